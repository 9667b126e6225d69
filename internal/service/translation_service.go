package service

import (
	"context"

	"dialect-bridge/internal/model"
	"dialect-bridge/internal/security"
	"dialect-bridge/internal/utils"
	"dialect-bridge/internal/utils/sql_translator"
)

// TranslationService is the request-scoped face of the pipeline used by the
// HTTP API.
type TranslationService interface {
	Translate(ctx context.Context, origin, sql string, dialect model.Dialect) (model.FileResult, error)
	PreviewRules(ctx context.Context, sql string, dialect model.Dialect) (sql_translator.Result, error)
	SupportedDialects() []model.Dialect
	Stats() Stats
}

type translationService struct {
	pipeline *Pipeline
	rules    *sql_translator.SQLTranslationManager
	guard    *security.StatementGuard
	metrics  *MetricsCollector
}

// NewTranslationService creates a TranslationService.
func NewTranslationService(pipeline *Pipeline, rules *sql_translator.SQLTranslationManager, guard *security.StatementGuard, metrics *MetricsCollector) TranslationService {
	return &translationService{
		pipeline: pipeline,
		rules:    rules,
		guard:    guard,
		metrics:  metrics,
	}
}

func (ts *translationService) Translate(ctx context.Context, origin, sql string, dialect model.Dialect) (model.FileResult, error) {
	if err := ts.guard.CheckInput(sql); err != nil {
		return model.FileResult{}, utils.NewValidationError("SQL rejected", err.Error())
	}
	if origin == "" {
		origin = "request"
	}
	return ts.pipeline.TranslateText(ctx, origin, sql, dialect)
}

func (ts *translationService) PreviewRules(_ context.Context, sql string, dialect model.Dialect) (sql_translator.Result, error) {
	if err := ts.guard.CheckInput(sql); err != nil {
		return sql_translator.Result{}, utils.NewValidationError("SQL rejected", err.Error())
	}
	result, err := ts.rules.Translate(sql, dialect)
	if err != nil {
		return sql_translator.Result{}, utils.NewErrorBuilder(utils.ErrCodeInvalidRequest).
			WithMessage("cannot apply rewrite rules").
			WithCause(err).
			Build()
	}
	return result, nil
}

func (ts *translationService) SupportedDialects() []model.Dialect {
	return ts.rules.SupportedDialects()
}

func (ts *translationService) Stats() Stats {
	if ts.metrics == nil {
		return Stats{}
	}
	return ts.metrics.Snapshot()
}
