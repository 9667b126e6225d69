// Package report folds dispositions into tallies and renders the console
// summary, the run report and the per-file output. Nothing here mutates a
// disposition.
package report

import (
	"fmt"
	"io"
	"strings"

	"dialect-bridge/internal/console"
	"dialect-bridge/internal/model"
)

// Tally counts dispositions per outcome.
type Tally struct {
	Total  int                   `json:"total" yaml:"total"`
	Counts map[model.Outcome]int `json:"counts" yaml:"counts"`
}

// Summarize folds dispositions into a Tally.
func Summarize(dispositions []model.Disposition) Tally {
	t := Tally{Counts: make(map[model.Outcome]int, len(model.Outcomes()))}
	for _, d := range dispositions {
		t.Total++
		t.Counts[d.Outcome]++
	}
	return t
}

// Percent is the share of outcome o in the total, 0 for an empty tally.
func (t Tally) Percent(o model.Outcome) float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Counts[o]) * 100 / float64(t.Total)
}

// Succeeded counts every unit that produced SQL.
func (t Tally) Succeeded() int {
	return t.Total - t.Counts[model.OutcomeFailed]
}

// SuccessRate is the share of units that produced SQL.
func (t Tally) SuccessRate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Succeeded()) * 100 / float64(t.Total)
}

// Failures returns the failed dispositions in input order.
func Failures(dispositions []model.Disposition) []model.Disposition {
	var failed []model.Disposition
	for _, d := range dispositions {
		if d.Outcome == model.OutcomeFailed {
			failed = append(failed, d)
		}
	}
	return failed
}

// RenderConsole writes the end-of-run summary: header, counts, then one line
// per failed unit with its last diagnostic.
func RenderConsole(w io.Writer, t Tally, failed []model.Disposition, f console.Formatter) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", f.Emphasize(rule), f.Emphasize("PROCESSING SUMMARY"), f.Emphasize(rule))

	fmt.Fprintf(w, "Total units processed: %s\n", f.Emphasize(fmt.Sprint(t.Total)))
	for _, o := range model.Outcomes() {
		count := fmt.Sprint(t.Counts[o])
		switch o {
		case model.OutcomeAsIs:
			count = f.OK(count)
		case model.OutcomeFailed:
			count = f.Fail(count)
		default:
			count = f.Warn(count)
		}
		fmt.Fprintf(w, "%-14s %s (%.1f%%)\n", o.Label()+":", count, t.Percent(o))
	}
	fmt.Fprintf(w, "\nSuccess rate: %s\n", f.Emphasize(fmt.Sprintf("%.1f%%", t.SuccessRate())))

	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", f.Fail("Units that need manual review:"))
	for _, d := range failed {
		fmt.Fprintf(w, "  %s\n", f.Fail(fmt.Sprintf("x %s - %s", d.Unit.Origin, d.Unit.Identifier)))
		if d.LastDiagnostic != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(d.LastDiagnostic, 160))
		}
	}
}

// StatusLabel is the outcome as written in file headers.
func StatusLabel(o model.Outcome) string {
	return strings.ReplaceAll(o.String(), "_", " ")
}

func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
