package generative

import (
	"fmt"
	"regexp"
	"strings"

	"dialect-bridge/internal/model"
)

const (
	// MaxQueryChars bounds the query text sent to a model.
	MaxQueryChars = 3000
	// MaxDiagnosticChars bounds the planner diagnostic sent to a model.
	MaxDiagnosticChars = 200
)

var hiveConversions = []string{
	"Remove DISTRIBUTE BY and SORT BY clauses",
	"Convert STORED AS ORC/PARQUET to USING %s",
	"Convert TBLPROPERTIES to OPTIONS",
	"Remove MAPJOIN and STREAMTABLE hints",
	"Remove TABLESAMPLE from CREATE TABLE AS SELECT",
	"Remove CLUSTERED BY ... INTO n BUCKETS from CREATE TABLE AS SELECT",
}

var trinoConversions = []string{
	"VARCHAR becomes STRING",
	"cardinality() becomes size()",
	"json_extract_scalar() becomes get_json_object()",
	"array_agg() becomes collect_list()",
	"date_add('unit', n, d) becomes date_add(d, n) or add_months(d, n)",
	"date_diff('day', a, b) becomes datediff(b, a)",
	"CROSS JOIN UNNEST becomes LATERAL VIEW explode()",
	"approx_percentile() becomes percentile_approx()",
	"ROW() becomes STRUCT()",
	"WITH (format = ...) becomes USING %s",
}

var (
	openFence  = regexp.MustCompile("(?m)^```(?:sql)?[ \t]*\r?\n?")
	closeFence = regexp.MustCompile("(?m)^```[ \t]*$")
)

// BuildPrompt renders the instruction text for one request. format is the
// target table format named in storage conversions.
func BuildPrompt(req Request, format string) string {
	var b strings.Builder

	source, label, conversions := "HiveQL", "HQL", hiveConversions
	if req.SourceDialect == model.DialectTrino {
		source, label, conversions = "Trino SQL", "TRINO SQL", trinoConversions
	}

	fmt.Fprintf(&b, "You are a SQL converter. Convert this %s to Databricks Spark SQL.\n\n", source)
	if d := strings.TrimSpace(req.Diagnostic); d != "" {
		fmt.Fprintf(&b, "ERROR: %s\n\n", truncate(d, MaxDiagnosticChars))
	}

	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("1. Return ONLY executable SQL code\n")
	b.WriteString("2. NO explanations, markdown, or commentary\n")
	b.WriteString("3. If the query is incomplete, return an empty string\n")
	b.WriteString("4. Conversions:\n")
	for _, c := range conversions {
		if strings.Contains(c, "%s") {
			c = fmt.Sprintf(c, format)
		}
		fmt.Fprintf(&b, "   - %s\n", c)
	}

	query := req.QueryText
	if len(query) > MaxQueryChars {
		query = truncate(query, MaxQueryChars) + "\n-- [query truncated]"
	}
	fmt.Fprintf(&b, "\nINPUT %s:\n%s\n\nOUTPUT (SQL only):", label, query)
	return b.String()
}

// Sanitize strips markdown fences from a model answer.
func Sanitize(text string) string {
	text = openFence.ReplaceAllString(text, "")
	text = closeFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// keep a valid utf-8 prefix
	for n > 0 && !utf8Start(s[n]) {
		n--
	}
	return s[:n]
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
