// Package cache is the durable store of normalized pipelines, builds, users,
// targets and preferences. It is the source of truth for every reader.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultBuildLimit bounds ListBuilds when no limit is supplied.
const DefaultBuildLimit = 20

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store persists cache records through gorm.
type Store struct {
	db *gorm.DB
}

// New returns a store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ListRequest pages through active pipelines.
type ListRequest struct {
	Provider models.Provider
	Limit    int
	Offset   int
}

// UpsertPipelines inserts or replaces pipelines by id.
func (s *Store) UpsertPipelines(ctx context.Context, pipelines models.Pipelines) error {
	if len(pipelines) == 0 {
		return nil
	}
	return upsertPipelines(s.db.WithContext(ctx), pipelines)
}

func upsertPipelines(tx *gorm.DB, pipelines models.Pipelines) error {
	return tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&pipelines).Error
}

// ListPipelines returns active pipelines, most recently updated first.
func (s *Store) ListPipelines(ctx context.Context, req *ListRequest) (models.Pipelines, error) {
	var (
		pipelines = make(models.Pipelines, 0)
		q         = s.db.WithContext(ctx).Where("is_active = ?", true)
	)

	if req != nil {
		if req.Provider != "" {
			q = q.Where("provider = ?", req.Provider)
		}
		if req.Limit > 0 {
			q = q.Limit(req.Limit)
		}
		if req.Offset > 0 {
			q = q.Offset(req.Offset)
		}
	}

	return pipelines, q.Order("updated_at desc").Order("id").Find(&pipelines).Error
}

// GetPipeline returns a pipeline by id, active or not.
func (s *Store) GetPipeline(ctx context.Context, id string) (*models.Pipeline, error) {
	pipeline := new(models.Pipeline)
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(pipeline).Error; err != nil {
		return nil, notFound(err)
	}
	return pipeline, nil
}

// DeactivatePipeline soft-deletes a pipeline; its history is kept.
func (s *Store) DeactivatePipeline(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Pipeline{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePipeline removes a pipeline and its builds.
func (s *Store) DeletePipeline(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pipeline_id = ?", id).Delete(&models.Build{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Pipeline{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeletePipelinesByProvider removes every pipeline and build of p.
func (s *Store) DeletePipelinesByProvider(ctx context.Context, p models.Provider) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&models.Pipeline{}).Select("id").Where("provider = ?", p)
		if err := tx.Where("pipeline_id IN (?)", ids).Delete(&models.Build{}).Error; err != nil {
			return err
		}
		res := tx.Where("provider = ?", p).Delete(&models.Pipeline{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// PipelinesByProvider returns every cached pipeline of p, active or not.
func (s *Store) PipelinesByProvider(ctx context.Context, p models.Provider) (models.Pipelines, error) {
	pipelines := make(models.Pipelines, 0)
	err := s.db.WithContext(ctx).
		Where("provider = ?", p).
		Order("id").
		Find(&pipelines).Error
	return pipelines, err
}

// DeactivateMissing soft-deletes active pipelines of p whose id is not in keep.
func (s *Store) DeactivateMissing(ctx context.Context, p models.Provider, keep []string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Pipeline{}).
		Where("provider = ? AND is_active = ?", p, true)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	res := q.Update("is_active", false)
	return res.RowsAffected, res.Error
}

// CountActivePipelines counts active pipelines, optionally for one provider.
func (s *Store) CountActivePipelines(ctx context.Context, p models.Provider) (int64, error) {
	var (
		count int64
		q     = s.db.WithContext(ctx).Model(&models.Pipeline{}).Where("is_active = ?", true)
	)
	if p != "" {
		q = q.Where("provider = ?", p)
	}
	return count, q.Count(&count).Error
}

// UpsertBuilds inserts or replaces builds by id, in the order given.
func (s *Store) UpsertBuilds(ctx context.Context, builds models.Builds) error {
	return upsertBuilds(s.db.WithContext(ctx), builds)
}

func upsertBuilds(tx *gorm.DB, builds models.Builds) error {
	for _, b := range builds {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(b).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpsertBuild stores a single build.
func (s *Store) UpsertBuild(ctx context.Context, b *models.Build) error {
	return s.UpsertBuilds(ctx, models.Builds{b})
}

// ListBuilds returns the most recent builds of a pipeline.
func (s *Store) ListBuilds(ctx context.Context, pipelineID string, limit int) (models.Builds, error) {
	if limit <= 0 {
		limit = DefaultBuildLimit
	}

	builds := make(models.Builds, 0)
	err := s.db.WithContext(ctx).
		Where("pipeline_id = ?", pipelineID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&builds).Error
	return builds, err
}

// GetBuild returns a build by id.
func (s *Store) GetBuild(ctx context.Context, id string) (*models.Build, error) {
	build := new(models.Build)
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(build).Error; err != nil {
		return nil, notFound(err)
	}
	return build, nil
}

// LatestBuild returns the newest build of a pipeline.
func (s *Store) LatestBuild(ctx context.Context, pipelineID string) (*models.Build, error) {
	builds, err := s.ListBuilds(ctx, pipelineID, 1)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, ErrNotFound
	}
	return builds[0], nil
}

// BuildsByStatus returns builds in any of the given states across pipelines.
func (s *Store) BuildsByStatus(ctx context.Context, statuses ...models.BuildStatus) (models.Builds, error) {
	builds := make(models.Builds, 0)
	if len(statuses) == 0 {
		return builds, nil
	}
	err := s.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at desc").
		Find(&builds).Error
	return builds, err
}

// BuildStatuses maps build id to status for the given ids.
func (s *Store) BuildStatuses(ctx context.Context, ids []string) (map[string]models.BuildStatus, error) {
	out := make(map[string]models.BuildStatus, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []struct {
		ID     string
		Status models.BuildStatus
	}
	if err := s.db.WithContext(ctx).Model(&models.Build{}).
		Select("id", "status").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.ID] = row.Status
	}
	return out, nil
}

// DeleteOldBuilds removes terminal builds created before cutoff.
func (s *Store) DeleteOldBuilds(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ? AND status IN ?", cutoff, terminalStatuses()).
		Delete(&models.Build{})
	return res.RowsAffected, res.Error
}

// CountBuilds counts the builds of a pipeline, or all builds when empty.
func (s *Store) CountBuilds(ctx context.Context, pipelineID string) (int64, error) {
	var (
		count int64
		q     = s.db.WithContext(ctx).Model(&models.Build{})
	)
	if pipelineID != "" {
		q = q.Where("pipeline_id = ?", pipelineID)
	}
	return count, q.Count(&count).Error
}

func terminalStatuses() []models.BuildStatus {
	return []models.BuildStatus{
		models.BuildStatusSuccess,
		models.BuildStatusFailure,
		models.BuildStatusCancelled,
		models.BuildStatusSkipped,
	}
}

// Reconcile stores a provider's snapshot in one transaction: pipelines first,
// then builds in provider order.
func (s *Store) Reconcile(ctx context.Context, pipelines models.Pipelines, builds models.Builds) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(pipelines) > 0 {
			if err := upsertPipelines(tx, pipelines); err != nil {
				return err
			}
		}
		return upsertBuilds(tx, builds)
	})
}
