package cache

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/google/uuid"
)

// SaveTarget creates a target, or updates the one already watching the same
// provider and locator.
func (s *Store) SaveTarget(ctx context.Context, t *models.Target) error {
	now := time.Now().UTC()

	existing := new(models.Target)
	err := s.db.WithContext(ctx).
		Where("provider = ? AND locator = ?", t.Provider, t.Locator).
		First(existing).Error
	switch notFound(err) {
	case nil:
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	case ErrNotFound:
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt = now
	default:
		return err
	}

	t.UpdatedAt = now
	return s.db.WithContext(ctx).Save(t).Error
}

// ListTargets returns targets, optionally for one provider.
func (s *Store) ListTargets(ctx context.Context, p models.Provider) (models.Targets, error) {
	var (
		targets = make(models.Targets, 0)
		q       = s.db.WithContext(ctx)
	)
	if p != "" {
		q = q.Where("provider = ?", p)
	}
	return targets, q.Order("provider").Order("locator").Find(&targets).Error
}

// GetTarget returns a target by id.
func (s *Store) GetTarget(ctx context.Context, id string) (*models.Target, error) {
	target := new(models.Target)
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(target).Error; err != nil {
		return nil, notFound(err)
	}
	return target, nil
}

// DeleteTarget removes a target by id.
func (s *Store) DeleteTarget(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Target{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
