package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken("etl-bot", ScopeTranslate)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "etl-bot", claims.Subject)
	assert.Equal(t, "dialect-bridge", claims.Issuer)
	assert.True(t, claims.HasScope(ScopeTranslate))
	assert.False(t, claims.HasScope(ScopePreview))
}

func TestJWTRejections(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).GenerateToken("etl-bot")
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	expired, err := NewJWTManager("secret", -time.Minute).GenerateToken("etl-bot")
	require.NoError(t, err)
	_, err = NewJWTManager("secret", time.Hour).ValidateToken(expired)
	assert.Error(t, err, "expired")

	_, err = NewJWTManager("secret", time.Hour).ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestExtractTokenFromHeader(t *testing.T) {
	token, err := ExtractTokenFromHeader("Bearer abc.def ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = ExtractTokenFromHeader("")
	assert.Error(t, err)
	_, err = ExtractTokenFromHeader("Basic xyz")
	assert.Error(t, err)
}

func TestRequireScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Hour)
	auth := NewAuthMiddleware(m)

	r := gin.New()
	r.POST("/translate", auth.RequireScope(ScopeTranslate), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Subject)
	})

	withScope, err := m.GenerateToken("alice", ScopeTranslate)
	require.NoError(t, err)
	previewOnly, err := m.GenerateToken("bob", ScopePreview)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scope", "Bearer " + previewOnly, http.StatusForbidden},
		{"granted", "Bearer " + withScope, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/translate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "alice", w.Body.String())
			}
		})
	}
}

func TestStatementGuardCheckInput(t *testing.T) {
	g := NewStatementGuard(20)

	assert.NoError(t, g.CheckInput("SELECT 1"))
	assert.ErrorIs(t, g.CheckInput("   \n"), ErrEmptyQuery)
	assert.ErrorIs(t, g.CheckInput("SELECT "+strings.Repeat("x", 30)), ErrQueryTooLong)
	assert.ErrorIs(t, g.CheckInput("SELECT \x00\x01\x02\x03\x04\x05"), ErrSuspiciousInput)

	assert.Equal(t, DefaultMaxQueryLength, NewStatementGuard(0).maxQueryLength)
}

func TestStatementGuardCheckExecutable(t *testing.T) {
	g := NewStatementGuard(0)

	for _, sql := range []string{
		"SELECT * FROM sales",
		"CREATE TABLE t USING DELTA AS SELECT 1 AS id",
		"INSERT INTO t SELECT 2",
		"CREATE OR REPLACE VIEW v AS SELECT id FROM t",
	} {
		assert.NoError(t, g.CheckExecutable(sql), sql)
	}

	for _, sql := range []string{
		"DROP TABLE sales",
		"-- cleanup\ntruncate table sales",
		"DELETE FROM sales WHERE id = 1",
		"UPDATE sales SET id = 2",
		"ALTER TABLE sales ADD COLUMNS (x INT)",
		"GRANT SELECT ON sales TO analysts",
		"MERGE INTO t USING s ON t.id = s.id WHEN MATCHED THEN DELETE",
	} {
		assert.ErrorIs(t, g.CheckExecutable(sql), ErrDestructiveCommand, sql)
	}
}
