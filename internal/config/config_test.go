package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"GANTRY_CONFIG", "GANTRY_DB", "GANTRY_SNAP_MINUTES", "GANTRY_SAME_DAY_CHAINING",
	"GANTRY_LOG_LEVEL", "GANTRY_LOG_FORMAT", "GANTRY_NATS_URL", "GANTRY_LOG_USE_CASES",
}

// isolate clears gantry env vars and points HOME at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gantry", "gantry.db"), cfg.DBPath)
	assert.Equal(t, 15, cfg.SnapMinutes)
	assert.False(t, cfg.SameDayChaining)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".gantry"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".gantry", "config.yaml"),
		[]byte("snap_minutes: 30\nsame_day_chaining: true\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.SnapMinutes)
	assert.True(t, cfg.SameDayChaining)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
db: /tmp/from-file.db
snap_minutes: 30
nats_url: nats://file:4222
log:
  level: info
  format: json
`)
	t.Setenv("GANTRY_CONFIG", path)
	t.Setenv("GANTRY_DB", "/tmp/from-env.db")
	t.Setenv("GANTRY_SNAP_MINUTES", "60")
	t.Setenv("GANTRY_LOG_USE_CASES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
	assert.Equal(t, 60, cfg.SnapMinutes)
	assert.Equal(t, "nats://file:4222", cfg.NATSURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.LogUseCases)
}

func TestLoad_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "BadSnapEnv", env: map[string]string{"GANTRY_SNAP_MINUTES": "abc"}},
		{name: "ZeroSnap", env: map[string]string{"GANTRY_SNAP_MINUTES": "0"}},
		{name: "SnapNotDividingDay", env: map[string]string{"GANTRY_SNAP_MINUTES": "7"}},
		{name: "BadBool", env: map[string]string{"GANTRY_SAME_DAY_CHAINING": "maybe"}},
		{name: "BadLevel", env: map[string]string{"GANTRY_LOG_LEVEL": "loud"}},
		{name: "BadFormat", env: map[string]string{"GANTRY_LOG_FORMAT": "xml"}},
		{name: "MalformedYAML", file: "snap_minutes: [1, 2"},
		{name: "MissingExplicitFile", env: map[string]string{"GANTRY_CONFIG": "/nonexistent/gantry.yaml"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			if tc.file != "" {
				t.Setenv("GANTRY_CONFIG", writeConfig(t, tc.file))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "info", Format: "json"}

	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "task", "a")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"task":"a"`)
}

func TestNewLogger_TextDefault(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.NewLogger(&buf).Warn("start defaulted", "task", "b")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "task=b")
}
