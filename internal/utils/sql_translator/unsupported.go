package sql_translator

import "dialect-bridge/internal/utils/sql_splitter"

const (
	reasonBucketedCTAS = "CREATE TABLE AS SELECT cannot declare bucketing (CLUSTERED BY ... INTO n BUCKETS)"
	reasonMapWindow    = "MAP mixing aggregate and window functions is not supported under GROUP BY"
)

// KnownUnsupported reports constructs the target planner is known to reject.
// The reason stands in for a planner diagnostic.
func KnownUnsupported(sql string) (string, bool) {
	code := sql_splitter.StripLineComments(sql)
	if isCTAS(code) && bucketedBy.MatchString(code) {
		return reasonBucketedCTAS, true
	}
	if hasMixedMapWindow(code) {
		return reasonMapWindow, true
	}
	return "", false
}
