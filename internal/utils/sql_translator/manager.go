package sql_translator

import (
	"fmt"
	"strings"

	"dialect-bridge/internal/model"
)

// DefaultStorageFormat is written in place of legacy columnar formats.
const DefaultStorageFormat = "ICEBERG"

// SQLTranslationManager owns one rule engine per source dialect
type SQLTranslationManager struct {
	engines map[model.Dialect]*Engine
	format  string
}

// NewSQLTranslationManager creates a manager whose storage rules target format
func NewSQLTranslationManager(format string) (*SQLTranslationManager, error) {
	format = strings.ToUpper(strings.TrimSpace(format))
	if format == "" {
		format = DefaultStorageFormat
	}
	if format != "ICEBERG" && format != "DELTA" {
		return nil, &ValidationError{Dialect: string(model.DialectDatabricks), Message: fmt.Sprintf("unsupported target storage format %q", format)}
	}

	return &SQLTranslationManager{
		engines: map[model.Dialect]*Engine{
			model.DialectHive:  NewEngine(HiveRules(format)...),
			model.DialectTrino: NewEngine(TrinoRules(format)...),
		},
		format: format,
	}, nil
}

// StorageFormat returns the configured target storage format
func (stm *SQLTranslationManager) StorageFormat() string {
	return stm.format
}

// EngineFor returns the rule engine for a source dialect
func (stm *SQLTranslationManager) EngineFor(source model.Dialect) (*Engine, error) {
	engine, ok := stm.engines[source]
	if !ok {
		return nil, &TranslationError{
			SourceDialect: string(source),
			TargetDialect: string(model.DialectDatabricks),
			Message:       "no rule catalog for source dialect",
		}
	}
	return engine, nil
}

// Translate implements SQLTranslator
func (stm *SQLTranslationManager) Translate(sql string, source model.Dialect) (Result, error) {
	return stm.TranslateQuery(sql, source, model.DialectDatabricks)
}

// TranslateQuery applies the source dialect's rule catalog
func (stm *SQLTranslationManager) TranslateQuery(sql string, source, target model.Dialect) (Result, error) {
	// Validate inputs
	if strings.TrimSpace(sql) == "" {
		return Result{}, &ValidationError{Dialect: string(source), Message: "empty SQL query"}
	}
	if source == "" {
		return Result{}, fmt.Errorf("empty source dialect")
	}
	if target != model.DialectDatabricks {
		return Result{}, &TranslationError{SourceDialect: string(source), TargetDialect: string(target), Message: "only databricks is supported as target"}
	}

	// Already in the target dialect
	if source == target {
		return Result{Text: sql}, nil
	}

	engine, err := stm.EngineFor(source)
	if err != nil {
		return Result{}, fmt.Errorf("failed to translate SQL from %s to %s: %w", source, target, err)
	}
	return engine.Apply(sql), nil
}

// SupportedDialects returns all source dialects with a rule catalog
func (stm *SQLTranslationManager) SupportedDialects() []model.Dialect {
	return model.SourceDialects()
}
