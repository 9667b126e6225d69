package oracle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dialect-bridge/internal/model"
)

// DefaultPlanLines is how much of an accepted plan is kept for reporting.
const DefaultPlanLines = 5

const maxPlanLines = 10

// PlanExplainer asks the target engine for an execution plan without running
// the query. A non-nil error means no plan could be built.
type PlanExplainer interface {
	Explain(ctx context.Context, body string) ([]string, error)
}

// Validator turns planner answers into verdicts. It performs exactly one
// Explain call per Validate call and never retries.
type Validator struct {
	explainer PlanExplainer
	planLines int
	logger    *zap.Logger
}

// NewValidator creates a validator keeping planLines lines of each accepted
// plan (clamped to 1..10, 0 selects the default).
func NewValidator(explainer PlanExplainer, planLines int, logger *zap.Logger) *Validator {
	switch {
	case planLines <= 0:
		planLines = DefaultPlanLines
	case planLines > maxPlanLines:
		planLines = maxPlanLines
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{explainer: explainer, planLines: planLines, logger: logger.Named("oracle")}
}

// Validate submits the statement's plannable body.
func (v *Validator) Validate(ctx context.Context, statement string) model.ValidationVerdict {
	body := ExtractBody(statement)
	start := time.Now()

	lines, err := v.explainer.Explain(ctx, body)
	if err != nil {
		v.logger.Debug("plan rejected", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return model.ValidationVerdict{Accepted: false, Diagnostic: err.Error()}
	}

	if len(lines) > v.planLines {
		lines = lines[:v.planLines]
	}
	v.logger.Debug("plan accepted", zap.Duration("elapsed", time.Since(start)), zap.Int("plan_lines", len(lines)))
	return model.ValidationVerdict{Accepted: true, PlanSummary: lines}
}
