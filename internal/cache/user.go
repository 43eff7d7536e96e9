package cache

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveUser makes u the single active user of its provider.
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	u.IsActive = true
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = u.UpdatedAt
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("provider = ? AND id <> ?", u.Provider, u.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(u).Error
	})
}

// ActiveUser returns the authenticated account for p.
func (s *Store) ActiveUser(ctx context.Context, p models.Provider) (*models.User, error) {
	user := new(models.User)
	err := s.db.WithContext(ctx).
		Where("provider = ? AND is_active = ?", p, true).
		First(user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// ActiveUsers returns the authenticated account of every provider.
func (s *Store) ActiveUsers(ctx context.Context) ([]*models.User, error) {
	users := make([]*models.User, 0)
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("provider").
		Find(&users).Error
	return users, err
}

// DeactivateUsers marks every user of p inactive.
func (s *Store) DeactivateUsers(ctx context.Context, p models.Provider) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("provider = ?", p).
		Update("is_active", false).Error
}
