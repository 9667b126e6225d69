package repository

import (
	"context"

	"dialect-bridge/internal/model"
)

// RunRepository defines the run history operations
type RunRepository interface {
	// SaveRun stores a finished run with all of its dispositions
	SaveRun(ctx context.Context, run model.RunReport) error

	// GetByID retrieves a run and its dispositions
	GetByID(ctx context.Context, id string) (*model.RunRecord, error)

	// List returns runs newest first without their dispositions
	List(ctx context.Context, limit, offset int) ([]*model.RunRecord, int64, error)

	// FailedUnits returns the failed dispositions of a run
	FailedUnits(ctx context.Context, runID string) ([]*model.DispositionRecord, error)

	// CountByOutcome returns disposition counts per outcome across all runs
	CountByOutcome(ctx context.Context) (map[string]int64, error)

	// Migrate creates or updates the history tables
	Migrate(ctx context.Context) error
}
