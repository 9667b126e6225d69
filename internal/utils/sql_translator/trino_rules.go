package sql_translator

import (
	"fmt"
	"regexp"
	"strconv"
)

// arg matches one function argument with at most one level of parentheses.
const arg = `((?:[^(),]|\([^()]*\))+?)`

var (
	varcharType       = regexp.MustCompile(`(?i)\bVARCHAR\b(?:\s*\(\s*\d+\s*\))?`)
	varbinaryType     = regexp.MustCompile(`(?i)\bVARBINARY\b`)
	cardinalityFn     = regexp.MustCompile(`(?i)\bcardinality\s*\(`)
	jsonExtractScalar = regexp.MustCompile(`(?i)\bjson_extract_scalar\s*\(`)
	arrayAggDistinct  = regexp.MustCompile(`(?i)\barray_agg\s*\(\s*DISTINCT\s+`)
	arrayAgg          = regexp.MustCompile(`(?i)\barray_agg\s*\(`)
	approxPercentile  = regexp.MustCompile(`(?i)\bapprox_percentile\s*\(`)
	arbitraryFn       = regexp.MustCompile(`(?i)\barbitrary\s*\(`)
	dateAddDay        = regexp.MustCompile(`(?i)\bdate_add\s*\(\s*'day'\s*,\s*(-?\d+)\s*,\s*` + arg + `\s*\)`)
	dateAddMonth      = regexp.MustCompile(`(?i)\bdate_add\s*\(\s*'month'\s*,\s*(-?\d+)\s*,\s*` + arg + `\s*\)`)
	dateAddYear       = regexp.MustCompile(`(?i)\bdate_add\s*\(\s*'year'\s*,\s*(-?\d+)\s*,\s*` + arg + `\s*\)`)
	dateDiffDay       = regexp.MustCompile(`(?i)\bdate_diff\s*\(\s*'day'\s*,\s*` + arg + `\s*,\s*` + arg + `\s*\)`)
	crossJoinUnnest   = regexp.MustCompile(`(?i)\bCROSS\s+JOIN\s+UNNEST\s*\(\s*([^()]+?)\s*\)\s+(?:AS\s+)?(\w+)\s*\(\s*(\w+)\s*\)`)
	rowConstructor    = regexp.MustCompile(`(?i)\bROW\s*\(`)
	castAsJSON        = regexp.MustCompile(`(?i)\bCAST\s*\(\s*((?:[^()]|\([^()]*\))+?)\s+AS\s+JSON\s*\)`)
	quotedInterval    = regexp.MustCompile(`(?i)\bINTERVAL\s+'(-?\d+)'\s+(YEAR|MONTH|WEEK|DAY|HOUR|MINUTE|SECOND)S?\b`)
	castJSONExtract   = regexp.MustCompile(`(?i)\bCAST\s*\(\s*json_extract\s*\(`)
	withFormat        = regexp.MustCompile(`(?i)\bWITH\s*\(\s*format\s*=\s*'(PARQUET|ORC|AVRO)'\s*\)`)
)

// TrinoRules returns the Trino catalog in precedence order.
func TrinoRules(format string) []Rule {
	return []Rule{
		replaceRule("varchar-to-string", "Converted VARCHAR(n) to STRING", varcharType, "STRING"),
		replaceRule("varbinary-to-binary", "Converted VARBINARY to BINARY", varbinaryType, "BINARY"),
		replaceRule("cardinality-to-size", "Converted cardinality() to size()", cardinalityFn, "size("),
		replaceRule("json-extract-scalar", "Converted json_extract_scalar() to get_json_object()", jsonExtractScalar, "get_json_object("),
		replaceRule("array-agg-distinct", "Converted array_agg(DISTINCT ...) to collect_set()", arrayAggDistinct, "collect_set("),
		replaceRule("array-agg", "Converted array_agg() to collect_list()", arrayAgg, "collect_list("),
		replaceRule("approx-percentile", "Converted approx_percentile() to percentile_approx()", approxPercentile, "percentile_approx("),
		replaceRule("arbitrary-to-first", "Converted arbitrary() to first()", arbitraryFn, "first("),
		replaceRule("date-add-day", "Converted date_add('day', n, d) to date_add(d, n)", dateAddDay, "date_add($2, $1)"),
		replaceRule("date-add-month", "Converted date_add('month', n, d) to add_months(d, n)", dateAddMonth, "add_months($2, $1)"),
		{
			Name:        "date-add-year",
			Description: "Converted date_add('year', n, d) to add_months(d, n*12)",
			Detect:      dateAddYear.MatchString,
			Apply: func(sql string) string {
				return dateAddYear.ReplaceAllStringFunc(sql, func(match string) string {
					m := dateAddYear.FindStringSubmatch(match)
					years, err := strconv.Atoi(m[1])
					if err != nil {
						return match
					}
					return fmt.Sprintf("add_months(%s, %d)", m[2], years*12)
				})
			},
		},
		replaceRule("date-diff-day", "Converted date_diff('day', a, b) to datediff(b, a)", dateDiffDay, "datediff($2, $1)"),
		replaceRule("unnest-to-explode", "Converted CROSS JOIN UNNEST to LATERAL VIEW explode()", crossJoinUnnest, "LATERAL VIEW explode($1) $2 AS $3"),
		replaceRule("row-to-struct", "Converted ROW() to STRUCT()", rowConstructor, "STRUCT("),
		replaceRule("cast-json-to-json", "Converted CAST(x AS JSON) to to_json(x)", castAsJSON, "to_json($1)"),
		replaceRule("interval-literal", "Removed quotes from INTERVAL literal", quotedInterval, "INTERVAL $1 $2"),
		{
			Name:        "json-extract-cast",
			Description: "CAST(json_extract(...)) may need from_json() in Databricks; review manually",
			Detect:      castJSONExtract.MatchString,
			Advisory:    true,
		},
		replaceRule("storage-with-format",
			"Converted WITH (format=...) to USING "+format,
			withFormat, "USING "+format, TagStorage),
	}
}
