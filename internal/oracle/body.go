package oracle

import (
	"regexp"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"
)

// Statement shapes recognized before submitting to the planner.
const (
	KindSelect = "select"
	KindCreate = "create"
	KindOther  = "other"
)

var (
	leadingWord = regexp.MustCompile(`^\s*(\w+)`)
	ctasBody    = regexp.MustCompile(`(?is)\bAS\s+((?:SELECT|WITH)\b.*)$`)
)

// Kind classifies a statement by its leading keyword.
func Kind(statement string) string {
	switch sqlparser.Preview(statement) {
	case sqlparser.StmtSelect:
		return KindSelect
	case sqlparser.StmtDDL:
		if firstWord(statement) == "create" {
			return KindCreate
		}
		return KindOther
	}
	if firstWord(statement) == "with" {
		return KindSelect
	}
	return KindOther
}

// ExtractBody returns the part of a statement the planner is asked about.
// Queries are submitted as-is, CREATE ... AS SELECT submits only the
// trailing query and anything else is submitted whole. The statement
// terminator is always dropped.
func ExtractBody(statement string) string {
	stmt := trimTerminator(statement)
	if Kind(stmt) == KindCreate {
		if m := ctasBody.FindStringSubmatch(stmt); m != nil {
			return trimTerminator(m[1])
		}
	}
	return stmt
}

func trimTerminator(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "; \t\r\n")
}

func firstWord(s string) string {
	m := leadingWord.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
