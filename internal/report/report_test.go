package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"dialect-bridge/internal/console"
	"dialect-bridge/internal/model"
)

func sampleRun() model.RunReport {
	unit := func(id string) model.TranslationUnit {
		return model.TranslationUnit{Identifier: id, SourceText: "SELECT * FROM " + id, Origin: "etl.hql", Dialect: model.DialectHive}
	}
	return model.RunReport{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Files: []model.FileResult{{
			Path:    "in/etl.hql",
			Dialect: model.DialectHive,
			Dispositions: []model.Disposition{
				{Unit: unit("a"), Outcome: model.OutcomeAsIs, FinalText: "SELECT * FROM a", Notes: []string{"Validation 1 (original): accepted"}},
				{Unit: unit("b"), Outcome: model.OutcomeRuleFixed, FinalText: "SELECT * FROM b", Notes: []string{"Rule: Removed hint", "Validation 2 (rules): accepted"}},
				{Unit: unit("c"), Outcome: model.OutcomeAiConverted, FinalText: "SELECT * FROM c"},
				{Unit: unit("d"), Outcome: model.OutcomeFailed, LastDiagnostic: "[UNRESOLVED_COLUMN] x\ndetail", Notes: []string{"Validation 3 (generative): rejected"}},
			},
		}},
	}
}

func TestSummarize(t *testing.T) {
	run := sampleRun()
	tally := Summarize(run.Dispositions())

	assert.Equal(t, 4, tally.Total)
	for _, o := range model.Outcomes() {
		assert.Equal(t, 1, tally.Counts[o], o.String())
		assert.InDelta(t, 25.0, tally.Percent(o), 0.001)
	}
	assert.Equal(t, 3, tally.Succeeded())
	assert.InDelta(t, 75.0, tally.SuccessRate(), 0.001)

	empty := Summarize(nil)
	assert.Zero(t, empty.Percent(model.OutcomeFailed))
	assert.Zero(t, empty.SuccessRate())
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	run := sampleRun()
	before := run.Dispositions()
	snapshot := make([]model.Disposition, len(before))
	copy(snapshot, before)

	Summarize(before)
	_ = RenderReport(run)
	_ = RenderFileOutput(run.Files[0])

	assert.Equal(t, snapshot, run.Dispositions())
}

func TestRenderConsole(t *testing.T) {
	run := sampleRun()
	var buf bytes.Buffer
	RenderConsole(&buf, Summarize(run.Dispositions()), Failures(run.Dispositions()), console.Plain{})
	out := buf.String()

	header := strings.Index(out, "PROCESSING SUMMARY")
	counts := strings.Index(out, "Failed:")
	detail := strings.Index(out, "x etl.hql - d")
	require.True(t, header >= 0 && counts > header && detail > counts, out)
	assert.Contains(t, out, "Works as-is:   1 (25.0%)")
	assert.Contains(t, out, "Success rate: 75.0%")
	assert.Contains(t, out, "    [UNRESOLVED_COLUMN] x\n")
	assert.NotContains(t, out, "detail")
}

func TestRenderConsoleNoFailures(t *testing.T) {
	var buf bytes.Buffer
	RenderConsole(&buf, Tally{Total: 1, Counts: map[model.Outcome]int{model.OutcomeAsIs: 1}}, nil, console.Plain{})
	assert.NotContains(t, buf.String(), "manual review")
}

func TestRenderReport(t *testing.T) {
	out := RenderReport(sampleRun())

	assert.True(t, strings.HasPrefix(out, strings.Repeat("=", 80)+"\n"))
	assert.Contains(t, out, "Run: run-1\n")
	assert.Equal(t, 4, strings.Count(out, "File: in/etl.hql"))
	assert.Contains(t, out, "Status: AUTO FIXED\n")
	assert.Contains(t, out, "\nLast Error:\n[UNRESOLVED_COLUMN] x\ndetail\n")

	rule := strings.Index(out, "Note: Rule: Removed hint")
	validation := strings.Index(out, "Note: Validation 2 (rules): accepted")
	final := strings.Index(out, "Final SQL:\nSELECT * FROM b")
	assert.True(t, rule < validation && validation < final)
}

func TestRenderFileOutput(t *testing.T) {
	out := RenderFileOutput(sampleRun().Files[0])

	assert.True(t, strings.HasPrefix(out, "-- Table: a\n-- Original file: etl.hql\n-- Status: AS IS\n-- Note: Validation 1 (original): accepted\n\nSELECT * FROM a;\n"))
	assert.Equal(t, 4, strings.Count(out, strings.Repeat("-", 80)))
	assert.Contains(t, out, "-- Not translated, original statement:\n-- SELECT * FROM d\n")
}

func TestTerminate(t *testing.T) {
	assert.Equal(t, "SELECT 1;", terminate("SELECT 1"))
	assert.Equal(t, "SELECT 1;", terminate("SELECT 1;\n"))
	assert.Equal(t, "SELECT k\n-- MAP(x) AS m\n;", terminate("SELECT k\n-- MAP(x) AS m\n"))
	assert.Equal(t, "SELECT '--' AS v;", terminate("SELECT '--' AS v"))
}

func TestRenderFileOutputTerminatesTrinoUnits(t *testing.T) {
	accepted := model.Disposition{Unit: model.TranslationUnit{Identifier: "query_1", SourceText: "SELECT cardinality(x) FROM t"}}
	accepted.Accept(model.OutcomeRuleFixed, "SELECT size(x) FROM t")
	out := RenderFileOutput(model.FileResult{Path: "q.sql", Dispositions: []model.Disposition{accepted}})

	assert.Contains(t, out, "\nSELECT size(x) FROM t;\n")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "script1_databricks.sql", OutputName("/data/hql/script1.hql"))
	assert.Equal(t, "q_databricks.sql", OutputName("q.sql"))
}

func TestRenderYAML(t *testing.T) {
	raw, err := RenderYAML(sampleRun())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, string(raw), "outcome: AUTO_FIXED")
	assert.Contains(t, string(raw), "FAILED: 1")
}
