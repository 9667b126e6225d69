package sql_splitter

import (
	"fmt"
	"regexp"
	"strings"

	"dialect-bridge/internal/model"
)

var (
	resourceDirective = regexp.MustCompile(`(?i)^\s*ADD\s+(?:JARS?|FILES?|ARCHIVES?)\b`)
	sessionDirective  = regexp.MustCompile(`(?i)^\s*SET\s+(?:hive|mapreduce|mapred|spark|tez|dfs|io|parquet|orc)\.\S*`)
	temporaryFunction = regexp.MustCompile(`(?i)CREATE\s+TEMPORARY\s+FUNCTION\s+(\w+)(?:\s+AS\s+['"]([^'"]+)['"])?`)
	blankRun          = regexp.MustCompile(`\n{3,}`)
)

// Routine is a temporary function declaration replaced by a placeholder stub.
type Routine struct {
	Name       string
	ClassName  string
	ReturnType string
	Stub       string
}

// Extraction is the result of pulling side definitions out of a source text.
type Extraction struct {
	// Remaining is the source text without the extracted lines.
	Remaining  string
	Routines   []Routine
	Directives []string
}

// ExtractSideDefinitions scans the text line by line. Resource loading
// directives and session SET directives are dropped, temporary function
// declarations are replaced by CREATE OR REPLACE FUNCTION stubs.
func ExtractSideDefinitions(text string) Extraction {
	var (
		out  Extraction
		kept []string
	)
	for _, line := range strings.Split(text, "\n") {
		switch {
		case resourceDirective.MatchString(line):
			out.Directives = append(out.Directives, strings.TrimSpace(line))
		case sessionDirective.MatchString(line):
			out.Directives = append(out.Directives, strings.TrimSpace(line))
		case temporaryFunction.MatchString(line):
			m := temporaryFunction.FindStringSubmatch(line)
			out.Routines = append(out.Routines, placeholderRoutine(m[1], m[2]))
		default:
			kept = append(kept, line)
		}
	}
	out.Remaining = blankRun.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return out
}

// Unit returns the synthetic unit holding every routine stub. The second
// result is false when no routine was extracted.
func (e Extraction) Unit(origin string, dialect model.Dialect) (model.TranslationUnit, bool) {
	if len(e.Routines) == 0 {
		return model.TranslationUnit{}, false
	}
	stubs := make([]string, 0, len(e.Routines))
	for _, r := range e.Routines {
		stubs = append(stubs, r.Stub)
	}
	return model.TranslationUnit{
		Identifier: model.UDFUnitIdentifier,
		SourceText: strings.Join(stubs, "\n\n"),
		Origin:     origin,
		Dialect:    dialect,
	}, true
}

// Units runs the extractor and the splitter and returns the routine unit
// (if any) ahead of the statement units.
func Units(text string, s Splitter) ([]model.TranslationUnit, Extraction) {
	extraction := ExtractSideDefinitions(text)
	var units []model.TranslationUnit
	if udf, ok := extraction.Unit(s.Origin, s.Dialect); ok {
		units = append(units, udf)
	}
	return append(units, s.Split(extraction.Remaining)...), extraction
}

func placeholderRoutine(name, className string) Routine {
	returnType, expr, summary := "DOUBLE", "0.5", "returns a neutral score"
	lower := strings.ToLower(name)
	if strings.Contains(lower, "text") || strings.Contains(lower, "normalize") {
		returnType, expr, summary = "STRING", "LOWER(TRIM(text))", "returns lowercased, trimmed text"
	}

	origin := "a Java UDF"
	if className != "" {
		origin = "Java class " + className
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Placeholder for %s, originally %s. Follow-up options:\n", name, origin)
	b.WriteString("-- 1. keep this SQL UDF placeholder\n")
	b.WriteString("-- 2. port the logic to a Python UDF\n")
	b.WriteString("-- 3. replace calls with built-in or AI functions\n")
	fmt.Fprintf(&b, "CREATE OR REPLACE FUNCTION %s(text STRING)\n", name)
	fmt.Fprintf(&b, "RETURNS %s\n", returnType)
	fmt.Fprintf(&b, "RETURN %s; -- %s", expr, summary)

	return Routine{Name: name, ClassName: className, ReturnType: returnType, Stub: b.String()}
}
