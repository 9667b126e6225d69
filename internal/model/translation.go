package model

import (
	"fmt"
	"strings"
	"time"
)

// Dialect identifies a SQL dialect family handled by the translator.
type Dialect string

const (
	DialectHive       Dialect = "hive"
	DialectTrino      Dialect = "trino"
	DialectDatabricks Dialect = "databricks"
)

// SourceDialects lists the dialects accepted as translation input.
func SourceDialects() []Dialect {
	return []Dialect{DialectHive, DialectTrino}
}

// ParseDialect resolves a user supplied dialect name.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case DialectHive, "hql", "hiveql":
		return DialectHive, nil
	case DialectTrino, "presto":
		return DialectTrino, nil
	case DialectDatabricks, "spark":
		return DialectDatabricks, nil
	}
	return "", fmt.Errorf("unsupported dialect %q", name)
}

// UDFUnitIdentifier names the synthetic unit that groups routine stubs.
const UDFUnitIdentifier = "UDF_Definitions"

// TranslationUnit is one independent statement extracted from a source file.
type TranslationUnit struct {
	Identifier string  `json:"identifier" yaml:"identifier"`
	SourceText string  `json:"sourceText" yaml:"source_text"`
	Origin     string  `json:"origin,omitempty" yaml:"origin,omitempty"`
	Dialect    Dialect `json:"dialect" yaml:"dialect"`
}

// IsUDFDefinitions reports whether the unit is the synthetic routine group.
func (u TranslationUnit) IsUDFDefinitions() bool {
	return u.Identifier == UDFUnitIdentifier
}

// Outcome is the terminal classification of a translation unit.
type Outcome int

const (
	OutcomeAsIs Outcome = iota
	OutcomeRuleFixed
	OutcomeAiConverted
	OutcomeFailed
)

// Outcomes lists every outcome in reporting order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeAsIs, OutcomeRuleFixed, OutcomeAiConverted, OutcomeFailed}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAsIs:
		return "AS_IS"
	case OutcomeRuleFixed:
		return "AUTO_FIXED"
	case OutcomeAiConverted:
		return "AI_CONVERTED"
	case OutcomeFailed:
		return "FAILED"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Label is the human readable form used in reports.
func (o Outcome) Label() string {
	switch o {
	case OutcomeAsIs:
		return "Works as-is"
	case OutcomeRuleFixed:
		return "Auto-fixed"
	case OutcomeAiConverted:
		return "AI converted"
	case OutcomeFailed:
		return "Failed"
	}
	return o.String()
}

// MarshalText keeps outcomes readable in JSON and YAML output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// ValidationVerdict is the answer of the plan-validation oracle for one attempt.
type ValidationVerdict struct {
	Accepted    bool     `json:"accepted"`
	Diagnostic  string   `json:"diagnostic,omitempty"`
	PlanSummary []string `json:"planSummary,omitempty"`
}

// Disposition records the final text, outcome and audit trail of one unit.
type Disposition struct {
	Unit            TranslationUnit `json:"unit" yaml:"unit"`
	FinalText       string          `json:"finalText,omitempty" yaml:"final_text,omitempty"`
	Outcome         Outcome         `json:"outcome" yaml:"outcome"`
	Notes           []string        `json:"notes" yaml:"notes"`
	LastDiagnostic  string          `json:"lastDiagnostic,omitempty" yaml:"last_diagnostic,omitempty"`
	OracleCalls     int             `json:"oracleCalls" yaml:"oracle_calls"`
	GenerativeCalls int             `json:"generativeCalls" yaml:"generative_calls"`
}

// AddNote appends to the audit trail.
func (d *Disposition) AddNote(format string, args ...any) {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
}

// Accept finalizes the disposition with a validated text.
func (d *Disposition) Accept(outcome Outcome, text string) {
	d.Outcome = outcome
	d.FinalText = text
}

// Fail finalizes the disposition without a text.
func (d *Disposition) Fail() {
	d.Outcome = OutcomeFailed
	d.FinalText = ""
}

// HasFinalText reports whether the unit produced usable SQL.
func (d Disposition) HasFinalText() bool {
	return d.Outcome != OutcomeFailed
}

// FileResult groups the dispositions of one input file.
type FileResult struct {
	Path         string        `json:"path" yaml:"path"`
	OutputPath   string        `json:"outputPath,omitempty" yaml:"output_path,omitempty"`
	Dialect      Dialect       `json:"dialect" yaml:"dialect"`
	Dispositions []Disposition `json:"dispositions" yaml:"dispositions"`
}

// RunReport is the result of one invocation across all input files.
type RunReport struct {
	RunID      string       `json:"runId" yaml:"run_id"`
	StartedAt  time.Time    `json:"startedAt" yaml:"started_at"`
	FinishedAt time.Time    `json:"finishedAt" yaml:"finished_at"`
	Files      []FileResult `json:"files" yaml:"files"`
}

// Dispositions flattens the per-file results in processing order.
func (r RunReport) Dispositions() []Disposition {
	var all []Disposition
	for _, f := range r.Files {
		all = append(all, f.Dispositions...)
	}
	return all
}
