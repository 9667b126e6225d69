package verifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/model"
	"dialect-bridge/internal/security"
)

type recordingExecutor struct {
	statements []string
	failOn     string
}

func (r *recordingExecutor) ExecuteQuery(_ context.Context, sql string) (*warehouses.DatabricksQueryResult, error) {
	r.statements = append(r.statements, sql)
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return nil, errors.New("boom")
	}
	return &warehouses.DatabricksQueryResult{}, nil
}

func disposition(id, text string, outcome model.Outcome) model.Disposition {
	d := model.Disposition{Unit: model.TranslationUnit{Identifier: id, SourceText: text}}
	if outcome == model.OutcomeFailed {
		d.Fail()
	} else {
		d.Accept(outcome, text)
	}
	return d
}

const stubs = `CREATE OR REPLACE FUNCTION clean_text(text STRING)
RETURNS STRING
RETURN LOWER(TRIM(text)); -- stub

CREATE OR REPLACE FUNCTION score(text STRING)
RETURNS DOUBLE
RETURN 0.5; -- stub`

func TestVerifyFileRunsAcceptedUnitsInOrder(t *testing.T) {
	exec := &recordingExecutor{}
	v := NewVerifier(exec, security.NewStatementGuard(0), false, nil)

	file := model.FileResult{Path: "a.hql", Dispositions: []model.Disposition{
		disposition(model.UDFUnitIdentifier, stubs, model.OutcomeAsIs),
		disposition("t1", "CREATE TABLE t1 AS SELECT 1 AS x", model.OutcomeAsIs),
		disposition("t2", "CREATE TABLE t2 AS SELECT bad", model.OutcomeFailed),
	}}

	results := v.VerifyFile(context.Background(), file)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, "t1", results[1].Unit)

	require.Len(t, exec.statements, 3)
	assert.True(t, strings.HasPrefix(exec.statements[0], "CREATE OR REPLACE FUNCTION clean_text"))
	assert.True(t, strings.HasPrefix(exec.statements[1], "CREATE OR REPLACE FUNCTION score"))
	assert.Equal(t, "CREATE TABLE t1 AS SELECT 1 AS x", exec.statements[2])
}

func TestVerifyFileRecordsFailures(t *testing.T) {
	exec := &recordingExecutor{failOn: "score"}
	v := NewVerifier(exec, security.NewStatementGuard(0), false, nil)

	results := v.VerifyFile(context.Background(), model.FileResult{Dispositions: []model.Disposition{
		disposition(model.UDFUnitIdentifier, stubs, model.OutcomeAsIs),
	}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "score: boom")
	// the first stub still ran
	assert.Len(t, exec.statements, 2)
}

func TestVerifyFileRefusesDestructiveStatements(t *testing.T) {
	exec := &recordingExecutor{}
	v := NewVerifier(exec, security.NewStatementGuard(0), false, nil)

	results := v.VerifyFile(context.Background(), model.FileResult{Dispositions: []model.Disposition{
		disposition("query_1", "DROP TABLE important", model.OutcomeAsIs),
	}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.False(t, results[0].Success)
	assert.Empty(t, exec.statements)
}

func TestVerifyFileCleanup(t *testing.T) {
	exec := &recordingExecutor{}
	v := NewVerifier(exec, security.NewStatementGuard(0), true, nil)

	v.VerifyFile(context.Background(), model.FileResult{Dispositions: []model.Disposition{
		disposition("v1", "CREATE VIEW v1 AS SELECT 1", model.OutcomeAsIs),
	}})
	assert.Equal(t, []string{
		"DROP VIEW v1 IF EXISTS",
		"CREATE VIEW v1 AS SELECT 1",
		"DROP VIEW v1 IF EXISTS",
	}, exec.statements)
}

func TestCreatedObject(t *testing.T) {
	assert.Equal(t, "TABLE db.t", createdObject("CREATE OR REPLACE TABLE db.t USING ICEBERG AS SELECT 1"))
	assert.Equal(t, "VIEW v", createdObject("create view v as select 1"))
	assert.Equal(t, "", createdObject("SELECT 1"))
}

func TestScriptLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.sql")
	require.NoError(t, os.WriteFile(path, []byte("-- setup\nCREATE TABLE a (x INT);\nINSERT INTO a VALUES (1);\n\n"), 0o644))

	exec := &recordingExecutor{}
	v := NewVerifier(exec, security.NewStatementGuard(0), false, nil)
	require.NoError(t, v.Prepare(context.Background(), NewScriptLoader(path)))
	assert.Equal(t, []string{"CREATE TABLE a (x INT)", "INSERT INTO a VALUES (1)"}, exec.statements)
}

func TestScriptLoaderMissingFile(t *testing.T) {
	v := NewVerifier(&recordingExecutor{}, security.NewStatementGuard(0), false, nil)
	err := v.Prepare(context.Background(), NewScriptLoader("/nonexistent/fixtures.sql"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load fixtures")
}

func TestSplitScriptKeepsQuotedTerminators(t *testing.T) {
	script := "-- seed\nINSERT INTO notes VALUES ('a;b'); -- first\nINSERT INTO notes VALUES (\"O'Brien\");\n"
	assert.Equal(t, []string{
		"INSERT INTO notes VALUES ('a;b')",
		"INSERT INTO notes VALUES (\"O'Brien\")",
	}, SplitScript(script))
}
