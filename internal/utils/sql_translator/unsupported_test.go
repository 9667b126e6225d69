package sql_translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		reason string
	}{
		{
			name:   "bucketed ctas",
			sql:    "CREATE TABLE t\nCLUSTERED BY (id) INTO 8 BUCKETS\nAS SELECT id FROM s",
			reason: reasonBucketedCTAS,
		},
		{
			name:   "map window under group by",
			sql:    "SELECT k\n, MAP('a', FIRST_VALUE(v) OVER (PARTITION BY k)) AS m\nFROM t GROUP BY k",
			reason: reasonMapWindow,
		},
		{
			name: "bucketing outside ctas",
			sql:  "CREATE TABLE t (id INT) CLUSTERED BY (id) INTO 8 BUCKETS",
		},
		{
			name: "commented bucketing",
			sql:  "CREATE TABLE t\n-- CLUSTERED BY (id) INTO 8 BUCKETS\nAS SELECT id FROM s",
		},
		{
			name: "plain select",
			sql:  "SELECT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, ok := KnownUnsupported(tt.sql)
			assert.Equal(t, tt.reason != "", ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
