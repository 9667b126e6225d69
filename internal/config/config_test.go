package config

import (
	"os"
	"path/filepath"
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dialect-bridge/internal/utils"
)

func clearDatabricksEnv(t *testing.T) {
	for _, key := range []string{"DATABRICKS_HOST", "DATABRICKS_TOKEN", "DATABRICKS_CLIENT_ID", "DATABRICKS_CLIENT_SECRET", "DATABRICKS_WAREHOUSE_ID", "GEMINI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, dir, yaml string, opts Options) (*Config, error) {
	t.Helper()
	opts.ConfigFile = writeFile(t, dir, "config.yaml", yaml)
	opts.EnvFile = filepath.Join(dir, "missing.env")
	return Load(opts)
}

func TestLoadDefaultsAndEnvironment(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()
	t.Setenv("DATABRICKS_TOKEN", "dapi-123")
	t.Setenv("DIALECT_BRIDGE_TRANSLATION_PLAN_LINES", "3")

	cfg, err := load(t, dir, `
databricks:
  host: adb-1.azuredatabricks.net
  warehouse_id: wh-1
  config_file: `+filepath.Join(dir, "none.cfg")+`
translation:
  target_format: delta
`, Options{})
	require.NoError(t, err)

	assert.Equal(t, "dapi-123", cfg.Databricks.Token)
	assert.Equal(t, 3, cfg.Translation.PlanLines)
	assert.Equal(t, "DELTA", cfg.Translation.TargetFormat)
	assert.Equal(t, "ai_query", cfg.Generative.Backend)
	assert.Equal(t, "dir", cfg.Output.Sink)

	wh := cfg.WarehouseConfig()
	assert.Equal(t, "adb-1.azuredatabricks.net", wh.WorkspaceURL)
	assert.Equal(t, "wh-1", wh.WarehouseID)
	assert.Equal(t, "pat", wh.Auth.Method())
}

func TestLoadReadsProfile(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()
	profile := writeFile(t, dir, "databrickscfg", `[DEFAULT]
host = https://default.cloud.databricks.com
token = dapi-default

[dev]
host = https://dev.cloud.databricks.com
client_id = app-id
client_secret = app-secret
`)

	cfg, err := load(t, dir, `
databricks:
  warehouse_id: wh-2
  config_file: `+profile+`
`, Options{Profile: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "https://dev.cloud.databricks.com", cfg.Databricks.Host)
	assert.Equal(t, "oauth-m2m", cfg.Databricks.Auth().Method())
	assert.Empty(t, cfg.Databricks.Token)
}

func TestLoadUnknownProfile(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()
	profile := writeFile(t, dir, "databrickscfg", "[DEFAULT]\nhost = h\ntoken = t\n")

	_, err := load(t, dir, "databricks:\n  warehouse_id: wh\n  config_file: "+profile+"\n", Options{Profile: "prod"})
	require.Error(t, err)
	assert.True(t, utils.IsErrorType(err, utils.ErrCodeConfigError))
}

func TestLoadMissingSettingsIsConfigError(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()

	_, err := load(t, dir, "databricks:\n  config_file: "+filepath.Join(dir, "none.cfg")+"\n", Options{})
	require.Error(t, err)
	assert.True(t, utils.IsErrorType(err, utils.ErrCodeConfigError))
	assert.Contains(t, err.Error(), "Host")
}

func TestValidateCredentials(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()

	_, err := load(t, dir, `
databricks:
  host: h
  warehouse_id: wh
  config_file: `+filepath.Join(dir, "none.cfg")+`
`, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither a token")
}

func TestValidateMinIOSink(t *testing.T) {
	clearDatabricksEnv(t)
	dir := t.TempDir()

	_, err := load(t, dir, `
databricks:
  host: h
  token: t
  warehouse_id: wh
  config_file: `+filepath.Join(dir, "none.cfg")+`
output:
  sink: minio
`, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio")
}

func TestHistoryDSN(t *testing.T) {
	h := HistoryConfig{Host: "db", Port: "3306", Database: "runs", Username: "u", Password: "p"}
	parsed, err := mysqldriver.ParseDSN(h.HistoryDSN())
	require.NoError(t, err)
	assert.Equal(t, "u", parsed.User)
	assert.Equal(t, "p", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "runs", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, "utf8mb4", parsed.Params["charset"])
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/.databrickscfg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".databrickscfg"), got)

	got, err = expandHome("/etc/databrickscfg")
	require.NoError(t, err)
	assert.Equal(t, "/etc/databrickscfg", got)
}
