package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dialect-bridge/internal/model"
	"dialect-bridge/internal/utils/sql_splitter"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// RenderReport renders the plain-text run report, one block per unit.
func RenderReport(run model.RunReport) string {
	var b strings.Builder
	b.WriteString(heavyRule + "\n")
	b.WriteString("Dialect Bridge Conversion Results\n")
	b.WriteString("Strategy: validate original first, rewrite with rules, translate what still fails\n")
	if run.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", run.RunID)
	}
	if !run.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString(heavyRule + "\n")

	for _, file := range run.Files {
		for _, d := range file.Dispositions {
			fmt.Fprintf(&b, "\nFile: %s\n", file.Path)
			fmt.Fprintf(&b, "Table: %s\n", d.Unit.Identifier)
			fmt.Fprintf(&b, "Status: %s\n", StatusLabel(d.Outcome))
			b.WriteString(lightRule + "\n")

			for _, note := range d.Notes {
				fmt.Fprintf(&b, "\nNote: %s\n", note)
			}
			if d.Outcome == model.OutcomeFailed && d.LastDiagnostic != "" {
				fmt.Fprintf(&b, "\nLast Error:\n%s\n", d.LastDiagnostic)
			}
			if d.HasFinalText() {
				fmt.Fprintf(&b, "\nFinal SQL:\n%s\n", d.FinalText)
			}
			b.WriteString("\n" + heavyRule + "\n")
		}
	}
	return b.String()
}

// RenderFileOutput renders the translated file for one input. Every final
// text ends with a terminator and failed units keep their source commented
// out, so the file runs as a script.
func RenderFileOutput(file model.FileResult) string {
	var lines []string
	origin := filepath.Base(file.Path)

	for _, d := range file.Dispositions {
		lines = append(lines,
			"-- Table: "+d.Unit.Identifier,
			"-- Original file: "+origin,
			"-- Status: "+StatusLabel(d.Outcome),
		)
		for _, note := range d.Notes {
			lines = append(lines, "-- Note: "+note)
		}
		lines = append(lines, "")

		if d.HasFinalText() {
			lines = append(lines, terminate(d.FinalText))
		} else {
			lines = append(lines, "-- Not translated, original statement:")
			for _, src := range strings.Split(d.Unit.SourceText, "\n") {
				lines = append(lines, "-- "+src)
			}
		}
		lines = append(lines, "", lightRule, "")
	}
	return strings.Join(lines, "\n")
}

// terminate appends ";" unless the statement already ends with one. A
// statement ending in a line comment gets it on a line of its own.
func terminate(sql string) string {
	sql = strings.TrimRight(sql, " \t\r\n")
	if sql == "" || strings.HasSuffix(sql, ";") {
		return sql
	}
	last := sql[strings.LastIndex(sql, "\n")+1:]
	if sql_splitter.StripLineComments(last) != last {
		return sql + "\n;"
	}
	return sql + ";"
}

// OutputName is the translated file name for an input path.
func OutputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_databricks.sql"
}

type runLog struct {
	model.RunReport `yaml:",inline"`
	Summary         Tally `yaml:"summary"`
}

// RenderYAML renders the structured run log.
func RenderYAML(run model.RunReport) ([]byte, error) {
	out, err := yaml.Marshal(runLog{RunReport: run, Summary: Summarize(run.Dispositions())})
	if err != nil {
		return nil, fmt.Errorf("render run log: %w", err)
	}
	return out, nil
}
