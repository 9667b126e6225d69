package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"vitess.io/vitess/go/vt/sqlparser"
)

var (
	ErrEmptyQuery         = errors.New("query cannot be empty")
	ErrQueryTooLong       = errors.New("query exceeds maximum length")
	ErrSuspiciousInput    = errors.New("query contains non-printable characters")
	ErrDestructiveCommand = errors.New("destructive statements are never executed")
)

// DefaultMaxQueryLength bounds API submissions.
const DefaultMaxQueryLength = 200000

var destructivePrefix = regexp.MustCompile(`(?i)^\s*(?:DROP|TRUNCATE|ALTER|GRANT|REVOKE|MERGE|DELETE|UPDATE)\b`)

// StatementGuard screens SQL before it reaches the warehouse.
type StatementGuard struct {
	maxQueryLength int
}

// NewStatementGuard creates a guard. A non-positive limit selects the default.
func NewStatementGuard(maxQueryLength int) *StatementGuard {
	if maxQueryLength <= 0 {
		maxQueryLength = DefaultMaxQueryLength
	}
	return &StatementGuard{maxQueryLength: maxQueryLength}
}

// CheckInput validates text submitted for translation. Translation only asks
// for plans, so the checks are about size and garbage input.
func (g *StatementGuard) CheckInput(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return ErrEmptyQuery
	}
	if len(sql) > g.maxQueryLength {
		return ErrQueryTooLong
	}
	if hasSuspiciousCharacters(sql) {
		return ErrSuspiciousInput
	}
	return nil
}

// CheckExecutable allows a statement to be run for real. Statements that
// delete data, change privileges or alter existing objects are refused.
func (g *StatementGuard) CheckExecutable(sql string) error {
	if err := g.CheckInput(sql); err != nil {
		return err
	}
	switch sqlparser.Preview(sql) {
	case sqlparser.StmtDelete, sqlparser.StmtUpdate, sqlparser.StmtPriv:
		return ErrDestructiveCommand
	}
	if destructivePrefix.MatchString(stripLeadingComments(sql)) {
		return ErrDestructiveCommand
	}
	return nil
}

func stripLeadingComments(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			return strings.Join(lines[i:], "\n")
		}
	}
	return ""
}

func hasSuspiciousCharacters(sql string) bool {
	suspicious := 0
	for _, r := range sql {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			suspicious++
			if suspicious > 5 {
				return true
			}
		}
	}
	return false
}
