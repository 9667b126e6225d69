package generative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/model"
)

type stubExecutor struct {
	statements []string
	answer     string
	err        error
}

func (s *stubExecutor) ExecuteQuery(_ context.Context, sql string) (*warehouses.DatabricksQueryResult, error) {
	s.statements = append(s.statements, sql)
	if s.err != nil {
		return nil, s.err
	}
	return &warehouses.DatabricksQueryResult{Data: [][]string{{s.answer}}}, nil
}

func TestBuildPromptHive(t *testing.T) {
	prompt := BuildPrompt(Request{
		SourceDialect: model.DialectHive,
		TargetDialect: model.DialectDatabricks,
		Diagnostic:    "[PARSE_SYNTAX_ERROR] near DISTRIBUTE",
		QueryText:     "SELECT a FROM t DISTRIBUTE BY a",
	}, "ICEBERG")

	assert.True(t, strings.HasPrefix(prompt, "You are a SQL converter. Convert this HiveQL to Databricks Spark SQL."))
	assert.Contains(t, prompt, "ERROR: [PARSE_SYNTAX_ERROR] near DISTRIBUTE")
	assert.Contains(t, prompt, "Convert STORED AS ORC/PARQUET to USING ICEBERG")
	assert.Contains(t, prompt, "INPUT HQL:\nSELECT a FROM t DISTRIBUTE BY a")
	assert.True(t, strings.HasSuffix(prompt, "OUTPUT (SQL only):"))
}

func TestBuildPromptTrino(t *testing.T) {
	prompt := BuildPrompt(Request{SourceDialect: model.DialectTrino, QueryText: "SELECT cardinality(x) FROM t"}, "DELTA")

	assert.Contains(t, prompt, "Convert this Trino SQL")
	assert.Contains(t, prompt, "cardinality() becomes size()")
	assert.Contains(t, prompt, "WITH (format = ...) becomes USING DELTA")
	assert.Contains(t, prompt, "INPUT TRINO SQL:")
	assert.NotContains(t, prompt, "ERROR:")
}

func TestBuildPromptTruncates(t *testing.T) {
	prompt := BuildPrompt(Request{
		SourceDialect: model.DialectHive,
		Diagnostic:    strings.Repeat("e", 500),
		QueryText:     strings.Repeat("x", 5000),
	}, "ICEBERG")

	assert.Contains(t, prompt, "ERROR: "+strings.Repeat("e", MaxDiagnosticChars)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("e", MaxDiagnosticChars+1))
	assert.Contains(t, prompt, strings.Repeat("x", MaxQueryChars)+"\n-- [query truncated]")
	assert.NotContains(t, prompt, strings.Repeat("x", MaxQueryChars+1))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  SELECT 1  \n", "SELECT 1"},
		{"sql fence", "```sql\nSELECT 1\n```", "SELECT 1"},
		{"bare fence", "```\nSELECT 1\n```\n", "SELECT 1"},
		{"empty", "```sql\n```", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestAIQueryTranslator(t *testing.T) {
	exec := &stubExecutor{answer: "```sql\nSELECT size(x) FROM t\n```"}
	tr := NewAIQueryTranslator(exec, "", "ICEBERG", nil)

	out, err := tr.Translate(context.Background(), Request{
		SourceDialect: model.DialectTrino,
		QueryText:     "SELECT cardinality(x) FROM t WHERE y = 'it''s'",
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT size(x) FROM t", out)
	assert.Equal(t, "ai_query:"+DefaultEndpoint, tr.Name())

	require.Len(t, exec.statements, 1)
	stmt := exec.statements[0]
	assert.True(t, strings.HasPrefix(stmt, "SELECT AI_QUERY('databricks-claude-sonnet-4-5', '"))
	assert.True(t, strings.HasSuffix(stmt, "') AS converted_sql"))
	assert.Contains(t, stmt, `y = \'it\'\'s\'`)
}

func TestAIQueryTranslatorErrors(t *testing.T) {
	_, err := NewAIQueryTranslator(&stubExecutor{answer: "  "}, "ep", "ICEBERG", nil).
		Translate(context.Background(), Request{QueryText: "SELECT 1"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("warehouse down")
	_, err = NewAIQueryTranslator(&stubExecutor{err: boom}, "ep", "ICEBERG", nil).
		Translate(context.Background(), Request{QueryText: "SELECT 1"})
	assert.ErrorIs(t, err, boom)
}

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, `a\'b\\c`, quoteLiteral(`a'b\c`))
	assert.Equal(t, `\'it\'\'s\'`, quoteLiteral(`'it''s'`))
}

type countingTranslator struct{ calls int }

func (c *countingTranslator) Name() string { return "counting" }

func (c *countingTranslator) Translate(context.Context, Request) (string, error) {
	c.calls++
	return "SELECT 1", nil
}

func TestWithRateLimit(t *testing.T) {
	inner := &countingTranslator{}
	assert.Same(t, Translator(inner), WithRateLimit(inner, 0, 0))

	limited := WithRateLimit(inner, 1000, 2)
	assert.Equal(t, "counting", limited.Name())
	_, err := limited.Translate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	slow := WithRateLimit(inner, 0.001, 1)
	_, err = slow.Translate(context.Background(), Request{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = slow.Translate(ctx, Request{})
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
