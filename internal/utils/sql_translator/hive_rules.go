package sql_translator

import (
	"fmt"
	"regexp"
	"strings"

	"dialect-bridge/internal/utils/sql_splitter"
)

var (
	ctasStatement = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+REPLACE\s+)?(?:TEMPORARY\s+)?(?:EXTERNAL\s+)?TABLE\b.*?\bAS\s+(?:SELECT|WITH)\b`)

	sessionSet     = regexp.MustCompile(`(?im)^[ \t]*SET\s+(?:hive|mapreduce|mapred|spark|tez|dfs|io|parquet|orc)\.[^\n]*$`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
	partitionedBy  = regexp.MustCompile(`(?i)\s+PARTITIONED\s+BY\s*\([^)]*\)`)
	bucketedBy     = regexp.MustCompile(`(?i)\s+CLUSTERED\s+BY\s*\([^)]*\)(?:\s+SORTED\s+BY\s*\([^)]*\))?\s+INTO\s+\d+\s+BUCKETS\b`)
	joinHint       = regexp.MustCompile(`(?i)(\bON\s+[^\s=]+\s*=\s*[^\s/]+)\s*/\*\+[^*]*\*/(\s*)`)
	tableSample    = regexp.MustCompile(`(?i)(\b(?:FROM|JOIN)\s+[\w.]+)(\s+(?:AS\s+)?\w+)?(\s+TABLESAMPLE\s*\([^)]*\))([ \t]+(?:AS\s+)?(\w+))?`)
	streamTable    = regexp.MustCompile(`(?i)/\*\+\s*STREAMTABLE\s*\([^)]*\)\s*\*/[ \t]*`)
	distributeBy   = regexp.MustCompile(`(?i)\s+DISTRIBUTE\s+BY\s+([\w.,\s]+?)(?:\s+SORT\s+BY\s+([\w.,\s]+?))?\s*(;?)\s*$`)
	ctasHeader     = regexp.MustCompile("(?is)(\\bCREATE\\s+(?:OR\\s+REPLACE\\s+)?TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?[\\w.`]+)((?:\\s+(?:USING\\s+\\w+|STORED\\s+AS\\s+\\w+))?(?:\\s+(?:OPTIONS|TBLPROPERTIES)\\s*\\([^)]*\\))?)\\s+AS\\s+(SELECT|WITH)\\b")
	usingFormat    = regexp.MustCompile(`(?i)\bUSING\s+(PARQUET|ORC)\b`)
	storedAsFormat = regexp.MustCompile(`(?i)\bSTORED\s+AS\s+(ORC|PARQUET)\b`)
	tblProperties  = regexp.MustCompile(`(?i)\bTBLPROPERTIES\s*\(([^)]*)\)`)
	groupBy        = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	windowOver     = regexp.MustCompile(`(?i)\bOVER\s*\(`)
	mapItemStart   = regexp.MustCompile(`(?i),\s*MAP\s*\(`)
	mapItemWindow  = regexp.MustCompile(`(?is)\bFIRST_VALUE\b.*?\bOVER\s*\(`)
	itemAlias      = regexp.MustCompile(`^\s+AS\s+\w+`)
)

// sqlKeywords may follow a sampling clause without being a table alias.
var sqlKeywords = map[string]bool{
	"WHERE": true, "JOIN": true, "LEFT": true, "RIGHT": true, "INNER": true,
	"FULL": true, "CROSS": true, "OUTER": true, "ON": true, "GROUP": true,
	"ORDER": true, "HAVING": true, "LIMIT": true, "UNION": true, "LATERAL": true,
	"WINDOW": true, "CLUSTER": true, "DISTRIBUTE": true, "SORT": true,
}

func isCTAS(sql string) bool {
	return ctasStatement.MatchString(sql)
}

// HiveRules returns the HiveQL catalog in precedence order. format is the
// target storage format written for legacy columnar declarations.
func HiveRules(format string) []Rule {
	return []Rule{
		{
			Name:   "remove-set",
			Detect: sessionSet.MatchString,
			Apply: func(sql string) string {
				out := sessionSet.ReplaceAllString(sql, "")
				return strings.TrimLeft(blankLines.ReplaceAllString(out, "\n\n"), "\n")
			},
			Describe: func(sql string) string {
				n := len(sessionSet.FindAllString(sql, -1))
				return fmt.Sprintf("Removed %d SET command(s) (Hive/MapReduce config not needed in Databricks)", n)
			},
		},
		{
			Name:        "remove-partitioned-by",
			Description: "Removed PARTITIONED BY (not supported in CREATE TABLE AS SELECT)",
			Detect:      func(sql string) bool { return isCTAS(sql) && partitionedBy.MatchString(sql) },
			Apply:       func(sql string) string { return partitionedBy.ReplaceAllString(sql, "") },
		},
		{
			Name:        "remove-clustered-by",
			Description: "Removed CLUSTERED BY ... INTO n BUCKETS (bucketing not supported in CREATE TABLE AS SELECT)",
			Detect:      func(sql string) bool { return isCTAS(sql) && bucketedBy.MatchString(sql) },
			Apply:       func(sql string) string { return bucketedBy.ReplaceAllString(sql, "") },
		},
		replaceRule("remove-join-hint",
			"Removed optimizer hint from JOIN ON clause",
			joinHint, "${1}${2}"),
		{
			Name:        "remove-tablesample",
			Description: "Removed TABLESAMPLE (not supported on Iceberg/Delta tables)",
			Detect:      tableSample.MatchString,
			Apply:       removeTableSample,
		},
		replaceRule("remove-streamtable-hint",
			"Removed STREAMTABLE hint (not supported in Databricks)",
			streamTable, ""),
		{
			Name:   "distribute-to-cluster-by",
			Detect: distributeBy.MatchString,
			Apply: func(sql string) string {
				out, _ := rewriteDistribute(sql)
				return out
			},
			Describe: func(sql string) string {
				_, note := rewriteDistribute(sql)
				return note
			},
		},
		{
			Name:        "storage-using",
			Tags:        []string{TagStorage},
			Detect:      usingFormat.MatchString,
			Apply:       func(sql string) string { return usingFormat.ReplaceAllString(sql, "USING "+format) },
			Describe:    storageNote(usingFormat, "USING %s", format),
			Description: "Converted storage format to USING " + format,
		},
		{
			Name:        "storage-stored-as",
			Tags:        []string{TagStorage},
			Detect:      storedAsFormat.MatchString,
			Apply:       func(sql string) string { return storedAsFormat.ReplaceAllString(sql, "USING "+format) },
			Describe:    storageNote(storedAsFormat, "STORED AS %s", format),
			Description: "Converted storage format to USING " + format,
		},
		replaceRule("tblproperties-to-options",
			"Converted TBLPROPERTIES to OPTIONS",
			tblProperties, "OPTIONS ($1)"),
		{
			Name:        "neutralize-map-window",
			Description: "Commented out MAP with window function mixed into an aggregation (unsupported in Databricks)",
			Detect:      hasMixedMapWindow,
			Apply:       neutralizeMapWindow,
		},
	}
}

func storageNote(re *regexp.Regexp, source, format string) func(string) string {
	return func(sql string) string {
		m := re.FindStringSubmatch(sql)
		if m == nil {
			return "Converted storage format to USING " + format
		}
		return fmt.Sprintf("Converted "+source+" to USING %s", strings.ToUpper(m[1]), format)
	}
}

// removeTableSample drops the sampling clause. When the table already had an
// alias, a trailing sample alias goes with the clause; otherwise the trailing
// identifier stays in place and becomes the alias.
func removeTableSample(sql string) string {
	var b strings.Builder
	last := 0
	for _, m := range tableSample.FindAllStringSubmatchIndex(sql, -1) {
		b.WriteString(sql[last:m[6]])
		hasAlias := m[4] >= 0
		trailing := m[8] >= 0
		keyword := trailing && sqlKeywords[strings.ToUpper(sql[m[10]:m[11]])]
		if hasAlias && trailing && !keyword {
			last = m[1]
			continue
		}
		last = m[7]
	}
	b.WriteString(sql[last:])
	return b.String()
}

// rewriteDistribute converts a trailing DISTRIBUTE BY [SORT BY] clause into a
// CLUSTER BY clause in the CREATE TABLE ... AS SELECT header, or drops it.
func rewriteDistribute(sql string) (string, string) {
	m := distributeBy.FindStringSubmatchIndex(sql)
	if m == nil {
		return sql, ""
	}
	cols := dedupeColumns(sql[m[2]:m[3]])
	if m[4] >= 0 {
		cols = dedupeColumns(strings.Join(cols, ",") + "," + sql[m[4]:m[5]])
	}
	stripped := sql[:m[0]] + sql[m[6]:m[7]]

	h := ctasHeader.FindStringSubmatchIndex(stripped)
	if h == nil || len(cols) == 0 {
		return stripped, "Removed DISTRIBUTE BY / SORT BY (Catalyst optimizer handles distribution)"
	}
	clusterBy := strings.Join(cols, ", ")
	out := stripped[:h[3]] + stripped[h[4]:h[5]] +
		"\nCLUSTER BY (" + clusterBy + ")\nAS " + stripped[h[6]:]
	return out, fmt.Sprintf("Converted DISTRIBUTE BY / SORT BY to CLUSTER BY (%s)", clusterBy)
}

// dedupeColumns keeps the column of each list entry once, in order. Sort
// directions and null ordering are dropped.
func dedupeColumns(list string) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, entry := range strings.Split(list, ",") {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}
		c := fields[0]
		if seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		cols = append(cols, c)
	}
	return cols
}

func hasMixedMapWindow(sql string) bool {
	code := sql_splitter.StripLineComments(sql)
	return groupBy.MatchString(code) && windowOver.MatchString(code) && len(mapWindowItems(code)) > 0
}

// mapWindowItems locates aliased select items ", MAP(...) AS x" whose own
// parentheses hold a FIRST_VALUE ... OVER (...) call. Items inside line
// comments are skipped.
func mapWindowItems(sql string) [][2]int {
	var items [][2]int
	next := 0
	for _, loc := range mapItemStart.FindAllStringIndex(sql, -1) {
		if loc[0] < next || inLineComment(sql, loc[0]) {
			continue
		}
		closing := sql_splitter.MatchingParen(sql, loc[1]-1)
		if closing < 0 || !mapItemWindow.MatchString(sql[loc[1]:closing]) {
			continue
		}
		alias := itemAlias.FindStringIndex(sql[closing+1:])
		if alias == nil {
			continue
		}
		end := closing + 1 + alias[1]
		items = append(items, [2]int{loc[0], end})
		next = end
	}
	return items
}

func neutralizeMapWindow(sql string) string {
	var b strings.Builder
	last := 0
	for _, loc := range mapWindowItems(sql) {
		b.WriteString(sql[last:loc[0]])
		b.WriteString("\n    -- UNSUPPORTED: mixed aggregate/window function inside MAP, rewrite manually\n")
		for _, line := range strings.Split(sql[loc[0]:loc[1]], "\n") {
			b.WriteString("    -- " + strings.TrimSpace(line) + "\n")
		}
		last = loc[1]
	}
	b.WriteString(sql[last:])
	return b.String()
}

func inLineComment(sql string, idx int) bool {
	lineStart := strings.LastIndex(sql[:idx], "\n") + 1
	return strings.Contains(sql[lineStart:idx], "--")
}
