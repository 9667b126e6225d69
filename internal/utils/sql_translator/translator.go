package sql_translator

import (
	"errors"

	"dialect-bridge/internal/model"
)

// SQLTranslator defines the interface for deterministic dialect translation
type SQLTranslator interface {
	// Translate rewrites SQL from the source dialect into Databricks SQL
	Translate(sql string, source model.Dialect) (Result, error)

	// SupportedDialects returns the source dialects with a rule catalog
	SupportedDialects() []model.Dialect
}

// ValidationError represents an error when translation input is rejected
type ValidationError struct {
	Dialect string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error for dialect " + e.Dialect + ": " + e.Message
}

// TranslationError represents an error when SQL translation fails
type TranslationError struct {
	SourceDialect string
	TargetDialect string
	Message       string
}

func (e *TranslationError) Error() string {
	return "translation error from " + e.SourceDialect + " to " + e.TargetDialect + ": " + e.Message
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTranslationError checks if an error is a translation error
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}
