package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"INTAKE_CONFIG_PATH", "PORT", "STORAGE_BACKEND", "DATABASE_URL", "RESUME_ROUTE_TEMPLATE",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "IDEMPOTENCY_TTL", "SHUTDOWN_TIMEOUT",
		"INTAKE_API_URL", "INTAKE_DRAFT_PATH", "INTAKE_DRAFT_BACKEND",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadServerConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "/applications/{id}", cfg.ResumeRouteTemplate)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadServerConfig_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "intake.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  storage_backend: postgres
  database_url: postgres://file
  cors_allowed_origins: ["http://a.test"]
  idempotency_ttl: 2h
`), 0o600))
	t.Setenv("INTAKE_CONFIG_PATH", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://b.test, http://c.test")

	cfg, err := LoadServerConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.StorageBackend)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, []string{"http://b.test", "http://c.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadServerConfig_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":       {"STORAGE_BACKEND": "mongo"},
		"postgres without dsn":  {"STORAGE_BACKEND": "postgres"},
		"gorm without dsn":      {"STORAGE_BACKEND": "gorm"},
		"route without id":      {"RESUME_ROUTE_TEMPLATE": "/resume"},
		"bad idempotency ttl":   {"IDEMPOTENCY_TTL": "soon"},
		"missing config file":   {"INTAKE_CONFIG_PATH": "/does/not/exist.yml"},
		"bad shutdown duration": {"SHUTDOWN_TIMEOUT": "x"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadServerConfigFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadClientConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTAKE_API_URL", "http://api.test/")
	t.Setenv("INTAKE_DRAFT_BACKEND", "SQLite")
	t.Setenv("INTAKE_DRAFT_PATH", "/tmp/drafts.db")

	cfg, err := LoadClientConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://api.test", cfg.APIURL)
	assert.Equal(t, DraftSQLite, cfg.DraftBackend)
	assert.Equal(t, "/tmp/drafts.db", cfg.DraftPath)

	t.Setenv("INTAKE_DRAFT_BACKEND", "cookie")
	_, err = LoadClientConfigFromEnv()
	assert.Error(t, err)
}
