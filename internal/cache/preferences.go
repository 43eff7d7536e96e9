package cache

import (
	"context"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"gorm.io/gorm/clause"
)

// Preferences returns the stored settings, or the defaults if none are saved.
func (s *Store) Preferences(ctx context.Context) (*models.Preferences, error) {
	prefs := new(models.Preferences)
	err := s.db.WithContext(ctx).Where("id = ?", 1).First(prefs).Error
	switch notFound(err) {
	case nil:
		return prefs, nil
	case ErrNotFound:
		return models.DefaultPreferences(), nil
	default:
		return nil, err
	}
}

// SavePreferences stores the single preferences row. The polling interval is
// clamped to the supported range.
func (s *Store) SavePreferences(ctx context.Context, prefs *models.Preferences) error {
	prefs.ID = 1
	prefs.PollingInterval = models.ClampPollingInterval(prefs.PollingInterval)
	prefs.UpdatedAt = time.Now().UTC()

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(prefs).Error
}
