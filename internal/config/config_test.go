package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "TABLE_PREFIX", "STORAGE_DRIVER", "MOVE_TARGET", "DEBUG", "AUTH_DISABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, MoveTargetPublished, cfg.MoveTarget)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.AuthDisabled)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestTablePrefix(t *testing.T) {
	tests := []struct {
		env      string
		override string
		want     string
	}{
		{env: "prod", want: "prod_"},
		{env: "test", want: "test_"},
		{env: "staging", want: "dev_"},
		{env: "prod", override: "custom_", want: "custom_"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.override, func(t *testing.T) {
			t.Setenv("TABLE_PREFIX", tt.override)
			assert.Equal(t, tt.want, getTablePrefix(tt.env))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:   "dev",
			StorageDriver: DriverPostgres,
			DatabaseURL:   "postgres://localhost/site",
			JWKSURL:       "https://auth.example.com/.well-known/jwks.json",
			MoveTarget:    MoveTargetPublished,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "badger", mutate: func(c *Config) { c.StorageDriver = DriverBadger; c.BadgerPath = "/tmp/x"; c.DatabaseURL = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.StorageDriver = "sqlite" }, wantErr: "STORAGE_DRIVER"},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "bad move target", mutate: func(c *Config) { c.MoveTarget = "archived" }, wantErr: "MOVE_TARGET"},
		{name: "missing jwks", mutate: func(c *Config) { c.JWKSURL = "" }, wantErr: "JWKS_URL"},
		{name: "auth disabled in dev", mutate: func(c *Config) { c.JWKSURL = ""; c.AuthDisabled = true }},
		{name: "auth disabled in prod", mutate: func(c *Config) { c.AuthDisabled = true; c.Environment = "prod" }, wantErr: "AUTH_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetupLogFileKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2024-01-01T00-00-00.log", "server-2024-01-02T00-00-00.log", "server-2024-01-03T00-00-00.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	f, err := SetupLogFile(dir, "server", 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.NotContains(t, files, filepath.Join(dir, "server-2024-01-01T00-00-00.log"))
}

func TestLogWriter(t *testing.T) {
	w, closeFn, err := LogWriter(&Config{}, "server")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	assert.NoError(t, closeFn())

	dir := t.TempDir()
	_, closeFn, err = LogWriter(&Config{LogDir: dir}, "sitectl")
	require.NoError(t, err)
	defer closeFn()

	files, err := filepath.Glob(filepath.Join(dir, "sitectl-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestNewLoggerLevel(t *testing.T) {
	assert.True(t, NewLogger(&Config{Debug: true}, io.Discard).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewLogger(&Config{}, io.Discard).Enabled(context.Background(), slog.LevelDebug))
}
