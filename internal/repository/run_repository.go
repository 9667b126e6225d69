package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"dialect-bridge/internal/model"
	"dialect-bridge/internal/utils"
)

type runRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

// Migrate creates or updates the history tables
func (r *runRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&model.RunRecord{}, &model.DispositionRecord{})
}

// SaveRun stores the run and its dispositions in one transaction
func (r *runRepository) SaveRun(ctx context.Context, run model.RunReport) error {
	if run.RunID != "" {
		if !utils.IsValidUUID(run.RunID) {
			return ErrInvalidUUID
		}
	}
	record := model.NewRunRecord(run)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(record).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRunExists
		}
		return err
	})
}

// GetByID retrieves a run and its dispositions
func (r *runRepository) GetByID(ctx context.Context, id string) (*model.RunRecord, error) {
	if !utils.IsValidUUID(id) {
		return nil, ErrInvalidUUID
	}
	var run model.RunRecord
	result := r.db.WithContext(ctx).Preload("Dispositions").Where("id = ?", id).First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, result.Error
	}
	return &run, nil
}

// List returns runs newest first
func (r *runRepository) List(ctx context.Context, limit, offset int) ([]*model.RunRecord, int64, error) {
	var runs []*model.RunRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&model.RunRecord{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Limit(limit).Offset(offset).Order("started_at DESC").Find(&runs)
	if result.Error != nil {
		return nil, 0, result.Error
	}
	return runs, total, nil
}

// FailedUnits returns the failed dispositions of a run
func (r *runRepository) FailedUnits(ctx context.Context, runID string) ([]*model.DispositionRecord, error) {
	var records []*model.DispositionRecord
	result := r.db.WithContext(ctx).
		Where("run_id = ? AND outcome = ?", runID, model.OutcomeFailed.String()).
		Order("id").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// CountByOutcome returns disposition counts per outcome
func (r *runRepository) CountByOutcome(ctx context.Context) (map[string]int64, error) {
	var results []struct {
		Outcome string
		Count   int64
	}

	err := r.db.WithContext(ctx).Model(&model.DispositionRecord{}).Select("outcome, COUNT(*) as count").Group("outcome").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, result := range results {
		counts[result.Outcome] = result.Count
	}
	return counts, nil
}
