package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"PORT", "API_KEY", "LOG_LEVEL", "LOG_FORMAT", "SOURCE", "DOCS_DIR", "DOCS_URL",
	"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_BUCKET",
	"S3_PREFIX", "S3_USE_SSL", "FRAGMENT_CACHE_SIZE", "FETCH_TIMEOUT", "CHECK_WORKERS",
}

// clearEnv unsets every variable Load reads for the duration of the test.
// envconfig falls back to the unprefixed name, so both are cleared.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		for _, key := range []string{Prefix + "_" + v, v} {
			if old, ok := os.LookupEnv(key); ok {
				require.NoError(t, os.Unsetenv(key))
				t.Cleanup(func() { os.Setenv(key, old) })
			}
		}
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "", cfg.APIKey)
	assert.Equal(t, SourceDir, cfg.Source)
	assert.Equal(t, "./html", cfg.DocsDir)
	assert.Equal(t, 256, cfg.FragmentCacheSize)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 8, cfg.CheckWorkers)
	assert.True(t, cfg.S3.UseSSL)
	require.NoError(t, cfg.Validate())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCNAV_SOURCE", "S3")
	t.Setenv("DOCNAV_S3_ENDPOINT", "localhost:9000")
	t.Setenv("DOCNAV_S3_BUCKET", "docs")
	t.Setenv("DOCNAV_S3_USE_SSL", "false")
	t.Setenv("DOCNAV_FETCH_TIMEOUT", "2s")
	t.Setenv("DOCNAV_LOG_LEVEL", "debug")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, SourceS3, cfg.Source)
	assert.Equal(t, "localhost:9000", cfg.S3.Endpoint)
	assert.Equal(t, "docs", cfg.S3.Bucket)
	assert.False(t, cfg.S3.UseSSL)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	require.NoError(t, cfg.Validate())

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCNAV_PORT=9999\nDOCNAV_DOCS_DIR=/srv/docs\n"), 0o644))
	t.Setenv("DOCNAV_PORT", "7000")
	// godotenv sets variables outside t.Setenv; restore them afterwards.
	t.Cleanup(func() { os.Unsetenv("DOCNAV_DOCS_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "/srv/docs", cfg.DocsDir)
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCNAV_CHECK_WORKERS", "many")

	_, err := Load(noEnvFile(t))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{Source: SourceDir, DocsDir: "html", LogLevel: "info", LogFormat: "json"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"dir ok", func(c *Config) {}, false},
		{"dir missing", func(c *Config) { c.DocsDir = "" }, true},
		{"http missing url", func(c *Config) { c.Source = SourceHTTP }, true},
		{"http ok", func(c *Config) { c.Source = SourceHTTP; c.DocsURL = "https://docs.example.com" }, false},
		{"s3 missing bucket", func(c *Config) { c.Source = SourceS3; c.S3.Endpoint = "minio:9000" }, true},
		{"unknown source", func(c *Config) { c.Source = "ftp" }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
