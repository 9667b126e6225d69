// Package generative asks a language model to translate a statement the rule
// engine could not fix. Backends return raw SQL text; callers validate it.
package generative

import (
	"context"
	"errors"

	"dialect-bridge/internal/model"
)

var (
	// ErrEmptyResponse is returned when a backend answers with no SQL.
	ErrEmptyResponse = errors.New("generative: empty translation")
	// ErrDisabled marks a run without a configured backend.
	ErrDisabled = errors.New("generative translation disabled")
)

// Request describes one translation attempt.
type Request struct {
	SourceDialect model.Dialect
	TargetDialect model.Dialect
	// Diagnostic is the most recent planner rejection, if any.
	Diagnostic string
	QueryText  string
}

// Translator turns a Request into candidate SQL. Implementations make at most
// one model call per Translate and return sanitized text.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}
