package sql_translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hiveEngine() *Engine {
	return NewEngine(HiveRules(DefaultStorageFormat)...)
}

func TestHiveSetRemovalAndStorageFormat(t *testing.T) {
	res := hiveEngine().Apply("SET hive.exec.foo=bar;\nCREATE TABLE t USING PARQUET AS SELECT id FROM src")

	assert.Equal(t, "CREATE TABLE t USING ICEBERG AS SELECT id FROM src", res.Text)
	assert.NotContains(t, res.Text, "SET ")
	assert.Equal(t, []string{
		"Removed 1 SET command(s) (Hive/MapReduce config not needed in Databricks)",
		"Converted USING PARQUET to USING ICEBERG",
	}, res.Descriptions())
}

func TestHiveBucketingRemovedFromCTAS(t *testing.T) {
	in := "CREATE TABLE bucketed_sales\nCLUSTERED BY (customer_id) INTO 4 BUCKETS\nAS\nSELECT customer_id, amount FROM sales;"
	res := hiveEngine().Apply(in)

	assert.Equal(t, "CREATE TABLE bucketed_sales\nAS\nSELECT customer_id, amount FROM sales;", res.Text)
	assert.NotContains(t, res.Text, "BUCKETS")
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "remove-clustered-by", res.Applied[0].Name)
}

func TestHiveBucketingKeptOutsideCTAS(t *testing.T) {
	in := "CREATE TABLE b (x INT)\nCLUSTERED BY (x) INTO 4 BUCKETS"
	res := hiveEngine().Apply(in)
	assert.Equal(t, in, res.Text)
	assert.False(t, res.Changed())
}

func TestHiveRules(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		rules []string
	}{
		{
			name:  "partitioned by with stored as",
			in:    "CREATE TABLE p\nPARTITIONED BY (dt)\nSTORED AS ORC\nAS SELECT a, dt FROM s;",
			want:  "CREATE TABLE p\nUSING ICEBERG\nAS SELECT a, dt FROM s;",
			rules: []string{"remove-partitioned-by", "storage-stored-as"},
		},
		{
			name:  "join hint",
			in:    "SELECT a.id FROM a JOIN b ON a.id = b.id /*+ BROADCAST(b) */\nWHERE a.v > 1",
			want:  "SELECT a.id FROM a JOIN b ON a.id = b.id\nWHERE a.v > 1",
			rules: []string{"remove-join-hint"},
		},
		{
			name:  "tablesample with both aliases",
			in:    "SELECT * FROM events e TABLESAMPLE(BUCKET 1 OUT OF 10 ON id) s\nWHERE e.v > 1",
			want:  "SELECT * FROM events e\nWHERE e.v > 1",
			rules: []string{"remove-tablesample"},
		},
		{
			name:  "tablesample alias after clause",
			in:    "SELECT * FROM events TABLESAMPLE(10 PERCENT) ev",
			want:  "SELECT * FROM events ev",
			rules: []string{"remove-tablesample"},
		},
		{
			name:  "tablesample followed by keyword",
			in:    "SELECT * FROM events TABLESAMPLE(10 PERCENT) WHERE v > 1",
			want:  "SELECT * FROM events WHERE v > 1",
			rules: []string{"remove-tablesample"},
		},
		{
			name:  "streamtable hint",
			in:    "SELECT /*+ STREAMTABLE(a) */ a.id FROM a JOIN b ON a.id = b.id",
			want:  "SELECT a.id FROM a JOIN b ON a.id = b.id",
			rules: []string{"remove-streamtable-hint"},
		},
		{
			name:  "distribute by in CTAS",
			in:    "CREATE TABLE d USING PARQUET AS\nSELECT region, amount FROM sales\nDISTRIBUTE BY region SORT BY region, amount;",
			want:  "CREATE TABLE d USING ICEBERG\nCLUSTER BY (region, amount)\nAS SELECT region, amount FROM sales;",
			rules: []string{"distribute-to-cluster-by", "storage-using"},
		},
		{
			name:  "sort directions stay out of cluster by",
			in:    "CREATE TABLE d USING PARQUET AS\nSELECT region, amount FROM sales\nDISTRIBUTE BY region SORT BY amount DESC NULLS LAST, region ASC;",
			want:  "CREATE TABLE d USING ICEBERG\nCLUSTER BY (region, amount)\nAS SELECT region, amount FROM sales;",
			rules: []string{"distribute-to-cluster-by", "storage-using"},
		},
		{
			name:  "distribute by outside CTAS",
			in:    "SELECT region FROM sales\nDISTRIBUTE BY region",
			want:  "SELECT region FROM sales",
			rules: []string{"distribute-to-cluster-by"},
		},
		{
			name:  "tblproperties",
			in:    "CREATE TABLE o STORED AS PARQUET TBLPROPERTIES ('k'='v') AS SELECT 1 AS a",
			want:  "CREATE TABLE o USING ICEBERG OPTIONS ('k'='v') AS SELECT 1 AS a",
			rules: []string{"storage-stored-as", "tblproperties-to-options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := hiveEngine().Apply(tt.in)
			assert.Equal(t, tt.want, res.Text)

			var names []string
			for _, a := range res.Applied {
				names = append(names, a.Name)
			}
			assert.Equal(t, tt.rules, names)
		})
	}
}

func TestDistributeNotes(t *testing.T) {
	res := hiveEngine().Apply("SELECT region FROM sales\nDISTRIBUTE BY region")
	assert.Equal(t, []string{"Removed DISTRIBUTE BY / SORT BY (Catalyst optimizer handles distribution)"}, res.Descriptions())

	res = hiveEngine().Apply("CREATE TABLE d AS SELECT a, b FROM s DISTRIBUTE BY a, b, a")
	assert.Equal(t, []string{"Converted DISTRIBUTE BY / SORT BY to CLUSTER BY (a, b)"}, res.Descriptions())
	assert.Contains(t, res.Text, "CLUSTER BY (a, b)\nAS SELECT a, b FROM s")
}

const mapWindowQuery = "SELECT region, SUM(amount) AS total,\n" +
	"  MAP('first', FIRST_VALUE(amount) OVER (PARTITION BY region ORDER BY ts)) AS firsts\n" +
	"FROM sales\n" +
	"GROUP BY region"

func TestNeutralizeMapWindow(t *testing.T) {
	res := hiveEngine().Apply(mapWindowQuery)

	require.Len(t, res.Applied, 1)
	assert.Equal(t, "neutralize-map-window", res.Applied[0].Name)
	assert.Contains(t, res.Text, "SELECT region, SUM(amount) AS total\n")
	assert.Contains(t, res.Text, "-- UNSUPPORTED: mixed aggregate/window function inside MAP")
	assert.Contains(t, res.Text, "    -- MAP('first', FIRST_VALUE(amount) OVER (PARTITION BY region ORDER BY ts)) AS firsts\n")
	assert.Contains(t, res.Text, "\nFROM sales\nGROUP BY region")

	again := hiveEngine().Apply(res.Text)
	assert.False(t, again.Changed())
}

func TestNeutralizeMapWindowNeedsAggregation(t *testing.T) {
	in := "SELECT region,\n  MAP('first', FIRST_VALUE(amount) OVER (PARTITION BY region ORDER BY ts)) AS firsts\nFROM sales"
	res := hiveEngine().Apply(in)
	assert.Equal(t, in, res.Text)
}

func TestMapWindowRequiresWindowInsideMap(t *testing.T) {
	in := "SELECT k,\n MAP('total', SUM(v)) AS m,\n FIRST_VALUE(v) OVER (ORDER BY MAX(ts)) AS fv\nFROM t\nGROUP BY k"

	res := hiveEngine().Apply(in)
	assert.Equal(t, in, res.Text)
	assert.False(t, res.Changed())

	_, unsupported := KnownUnsupported(in)
	assert.False(t, unsupported)
}

func TestNeutralizeMapWindowKeepsLaterItems(t *testing.T) {
	in := "SELECT k,\n MAP('first', FIRST_VALUE(v) OVER (PARTITION BY k ORDER BY ts)) AS m,\n MAX(v) AS hi\nFROM t\nGROUP BY k"

	res := hiveEngine().Apply(in)
	require.Len(t, res.Applied, 1)
	assert.Contains(t, res.Text, "    -- MAP('first', FIRST_VALUE(v) OVER (PARTITION BY k ORDER BY ts)) AS m\n")
	assert.Contains(t, res.Text, ",\n MAX(v) AS hi\nFROM t")
}

func TestStorageSubset(t *testing.T) {
	in := "SET hive.exec.foo=bar;\nCREATE TABLE t STORED AS ORC TBLPROPERTIES ('a'='b') AS SELECT 1 AS x"
	res := hiveEngine().ApplyTagged(in, TagStorage)

	assert.Equal(t, "SET hive.exec.foo=bar;\nCREATE TABLE t USING ICEBERG TBLPROPERTIES ('a'='b') AS SELECT 1 AS x", res.Text)
	assert.Equal(t, []string{"Converted STORED AS ORC to USING ICEBERG"}, res.Descriptions())
}

func TestDeltaTargetFormat(t *testing.T) {
	res := NewEngine(HiveRules("DELTA")...).Apply("CREATE TABLE t USING ORC AS SELECT 1 AS x")
	assert.Equal(t, "CREATE TABLE t USING DELTA AS SELECT 1 AS x", res.Text)
}
