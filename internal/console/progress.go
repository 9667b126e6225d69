package console

import (
	"fmt"
	"io"
	"strings"

	"dialect-bridge/internal/model"
)

// Progress prints per-unit progress as units are processed.
type Progress struct {
	w io.Writer
	f Formatter
}

// NewProgress writes to w using f.
func NewProgress(w io.Writer, f Formatter) *Progress {
	return &Progress{w: w, f: f}
}

func (p *Progress) FileStarted(path string, dialect model.Dialect, units int) {
	fmt.Fprintf(p.w, "\n%s (%s, %d units)\n", p.f.Emphasize(path), dialect, units)
}

func (p *Progress) UnitStarted(index, total int, unit model.TranslationUnit) {
	fmt.Fprintf(p.w, "  [%d/%d] %s ... ", index, total, unit.Identifier)
}

func (p *Progress) UnitFinished(_, _ int, d model.Disposition) {
	switch d.Outcome {
	case model.OutcomeAsIs:
		fmt.Fprintln(p.w, p.f.OK(d.Outcome.Label()))
	case model.OutcomeRuleFixed, model.OutcomeAiConverted:
		fmt.Fprintln(p.w, p.f.Warn(d.Outcome.Label()))
	default:
		fmt.Fprintln(p.w, p.f.Fail(d.Outcome.Label()))
		if d.LastDiagnostic != "" {
			fmt.Fprintf(p.w, "        %s\n", firstLine(d.LastDiagnostic, 120))
		}
	}
}

// firstLine returns the first line of s, cut to max bytes.
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
