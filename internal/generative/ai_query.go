package generative

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dialect-bridge/internal/database/drivers/warehouses"
)

// DefaultEndpoint is the model serving endpoint used by AI_QUERY.
const DefaultEndpoint = "databricks-claude-sonnet-4-5"

// StatementExecutor runs one statement on the warehouse.
type StatementExecutor interface {
	ExecuteQuery(ctx context.Context, sql string) (*warehouses.DatabricksQueryResult, error)
}

// AIQueryTranslator calls a model serving endpoint through the warehouse
// AI_QUERY function, reusing the statement session of the oracle.
type AIQueryTranslator struct {
	executor StatementExecutor
	endpoint string
	format   string
	logger   *zap.Logger
}

// NewAIQueryTranslator creates an AI_QUERY backend.
func NewAIQueryTranslator(executor StatementExecutor, endpoint, format string, logger *zap.Logger) *AIQueryTranslator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIQueryTranslator{
		executor: executor,
		endpoint: endpoint,
		format:   format,
		logger:   logger.Named("ai_query"),
	}
}

func (t *AIQueryTranslator) Name() string { return "ai_query:" + t.endpoint }

// Translate implements Translator
func (t *AIQueryTranslator) Translate(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(req, t.format)
	statement := fmt.Sprintf("SELECT AI_QUERY('%s', '%s') AS converted_sql",
		quoteLiteral(t.endpoint), quoteLiteral(prompt))

	t.logger.Debug("submitting AI_QUERY", zap.Int("prompt_bytes", len(prompt)))
	result, err := t.executor.ExecuteQuery(ctx, statement)
	if err != nil {
		return "", fmt.Errorf("ai_query: %w", err)
	}

	text := Sanitize(result.FirstCell())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteLiteral escapes s for use inside a single-quoted SQL string. Quotes
// are backslash escaped since Spark joins adjacent literals.
func quoteLiteral(s string) string {
	return literalEscaper.Replace(s)
}
