package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"hive", DialectHive},
		{" HQL ", DialectHive},
		{"Trino", DialectTrino},
		{"presto", DialectTrino},
		{"spark", DialectDatabricks},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestOutcomeText(t *testing.T) {
	text, err := OutcomeRuleFixed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "AUTO_FIXED", string(text))
	assert.Equal(t, "AI converted", OutcomeAiConverted.Label())
	assert.Equal(t, "Outcome(9)", Outcome(9).String())
}

func TestDispositionAcceptAndFail(t *testing.T) {
	d := Disposition{Unit: TranslationUnit{Identifier: "t"}}
	d.AddNote("Validation %d (%s): accepted", 1, "original")
	d.Accept(OutcomeAsIs, "SELECT 1")
	assert.True(t, d.HasFinalText())
	assert.Equal(t, []string{"Validation 1 (original): accepted"}, d.Notes)

	d.Fail()
	assert.False(t, d.HasFinalText())
	assert.Empty(t, d.FinalText)
}

func TestNewRunRecord(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ok := Disposition{Unit: TranslationUnit{Identifier: "a", SourceText: "select 1"}, Notes: []string{"n1", "n2"}, OracleCalls: 1}
	ok.Accept(OutcomeAsIs, "select 1")
	fixed := Disposition{Unit: TranslationUnit{Identifier: "b"}}
	fixed.Accept(OutcomeRuleFixed, "select 2")
	failed := Disposition{Unit: TranslationUnit{Identifier: "c"}, LastDiagnostic: "boom", OracleCalls: 3, GenerativeCalls: 1}
	failed.Fail()

	run := RunReport{
		RunID:     "6f1c2d1e-7a57-4b7e-9a53-1c0d4c5e9f10",
		StartedAt: started,
		Files: []FileResult{
			{Path: "x.hql", Dialect: DialectHive, Dispositions: []Disposition{ok, fixed}},
			{Path: "y.sql", Dialect: DialectTrino, Dispositions: []Disposition{failed}},
		},
	}

	rec := NewRunRecord(run)
	assert.Equal(t, run.RunID, rec.ID)
	assert.Equal(t, 2, rec.Files)
	assert.Equal(t, 3, rec.Units)
	assert.Equal(t, 1, rec.AsIs)
	assert.Equal(t, 1, rec.RuleFixed)
	assert.Equal(t, 0, rec.AiConverted)
	assert.Equal(t, 1, rec.Failed)

	require.Len(t, rec.Dispositions, 3)
	assert.Equal(t, "n1\nn2", rec.Dispositions[0].Notes)
	assert.Equal(t, "AUTO_FIXED", rec.Dispositions[1].Outcome)
	assert.Equal(t, DialectTrino, rec.Dispositions[2].Dialect)
	assert.Equal(t, "boom", rec.Dispositions[2].LastDiagnostic)
	assert.Equal(t, 3, rec.Dispositions[2].OracleCalls)
	assert.Equal(t, "translation_runs", rec.TableName())
}
