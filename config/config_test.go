package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect/sql"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv unsets the SQLKIT variables for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range []string{EnvURI, EnvCacheLevel, EnvLogLevel, EnvLogFormat, EnvSlowQuery} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := write(t, "sqlkit.yaml", `
uri: sqlite://:memory:
cache_level: rows
slow_query: 250ms
log:
  level: debug
  format: json
vars:
  foreign_keys: "1"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://:memory:", cfg.URI)
	assert.Equal(t, "rows", cfg.CacheLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQuery)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, map[string]string{"foreign_keys": "1"}, cfg.Vars)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := write(t, "sqlkit.yaml", "uri: sqlite://file.db\ncache_level: rows\n")
	dotenv := write(t, ".env", "SQLKIT_URI=sqlite://dotenv.db\nSQLKIT_LOG_LEVEL=info\nSQLKIT_SLOW_QUERY=1s\n")
	t.Setenv(EnvURI, "sqlite://env.db")

	cfg, err := Load(path, dotenv)
	require.NoError(t, err)
	assert.Equal(t, "sqlite://env.db", cfg.URI)
	assert.Equal(t, "rows", cfg.CacheLevel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.SlowQuery)

	_, set := os.LookupEnv(EnvLogLevel)
	assert.False(t, set, "dotenv values must not leak into the process environment")
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad.yaml", "uri: [unterminated"))
	assert.Error(t, err)

	_, err = Load(write(t, "unknown.yaml", "url: sqlite://:memory:\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "explicit env files must exist")

	_, err = Load(write(t, "enum.yaml", "cache_level: all\nlog:\n  level: loud\n  format: xml\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cache level "all"`)
	assert.Contains(t, err.Error(), `unknown log level "loud"`)
	assert.Contains(t, err.Error(), `unknown log format "xml"`)

	t.Setenv(EnvSlowQuery, "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Log: Log{Level: "info", Format: "json"}}
	log := cfg.Logger(&buf)
	log.Debug("hidden")
	log.Info("shown", "table", "users")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "users", entry["table"])

	buf.Reset()
	cfg = &Config{Log: Log{Level: "warn", Format: "text"}}
	cfg.Logger(&buf).Warn("careful")
	assert.Contains(t, buf.String(), "level=WARN msg=careful")
}

func TestOptions(t *testing.T) {
	cfg := &Config{
		CacheLevel: "rows",
		Log:        Log{Level: "debug"},
		Vars:       map[string]string{"foreign_keys": "1", "busy_timeout": "5000"},
	}
	var buf bytes.Buffer
	opts := cfg.Options(&buf)
	assert.Len(t, opts, 4)

	c := sql.NewConn(nil, nil, opts...)
	assert.Equal(t, sql.CacheRows, c.CacheLevel())
	c.Logger().Debug("configured")
	assert.Contains(t, buf.String(), "configured")
}
