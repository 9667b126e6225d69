package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"dialect-bridge/internal/model"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "x", Plain{}.Fail("x"))
	assert.Equal(t, "\033[31mx\033[0m", ANSI{}.Fail("x"))
	assert.Equal(t, "\033[1mx\033[0m", ANSI{}.Emphasize("x"))
	assert.IsType(t, ANSI{}, New(true))
	assert.IsType(t, Plain{}, New(false))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, Plain{})
	unit := model.TranslationUnit{Identifier: "sales"}

	p.FileStarted("etl.hql", model.DialectHive, 2)
	p.UnitStarted(1, 2, unit)
	p.UnitFinished(1, 2, model.Disposition{Unit: unit, Outcome: model.OutcomeRuleFixed, FinalText: "SELECT 1"})
	p.UnitStarted(2, 2, unit)
	p.UnitFinished(2, 2, model.Disposition{Unit: unit, Outcome: model.OutcomeFailed, LastDiagnostic: "[TABLE_OR_VIEW_NOT_FOUND] x\nstack"})

	assert.Equal(t,
		"\netl.hql (hive, 2 units)\n"+
			"  [1/2] sales ... Auto-fixed\n"+
			"  [2/2] sales ... Failed\n"+
			"        [TABLE_OR_VIEW_NOT_FOUND] x\n",
		buf.String())
}
