package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolate points every search location at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_ExplicitPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `
headers:
  - "X-Client: scurl"
  - "Accept-Language: en"
connect_timeout: 5s
max_time: 1m30s
rate: 2.5
history: /tmp/h.db
color: false
`)

	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, []string{"X-Client: scurl", "Accept-Language: en"}, cfg.Headers)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 90*time.Second, cfg.MaxTime)
	assert.Equal(t, 2.5, cfg.Rate)
	assert.Equal(t, "/tmp/h.db", cfg.History)
	assert.False(t, cfg.GetColor())
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	isolate(t)
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errdef.Is(err, errdef.CodeConfig))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.True(t, cfg.IsDefault())
	assert.True(t, cfg.GetColor())
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	isolate(t)
	cfg, _, err := Load(writeConfig(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestLoad_SearchOrder(t *testing.T) {
	dir := isolate(t)

	xdg := filepath.Join(dir, "scurl", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(xdg), 0o755))
	require.NoError(t, os.WriteFile(xdg, []byte("rate: 1\n"), 0o644))

	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, xdg, used)
	assert.Equal(t, 1.0, cfg.Rate)

	env := writeConfig(t, t.TempDir(), "rate: 7\n")
	t.Setenv(EnvConfig, env)

	cfg, used, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, env, used, "$SCURL_CONFIG wins over the user config dir")
	assert.Equal(t, 7.0, cfg.Rate)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	tests := map[string]string{
		"unknown key":      "colour: true\n",
		"bad duration":     "max_time: soon\n",
		"negative rate":    "rate: -1\n",
		"negative timeout": "connect_timeout: -5s\n",
		"not yaml":         "headers: [unterminated\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, t.TempDir(), content))
			require.Error(t, err)
			assert.True(t, errdef.Is(err, errdef.CodeConfig), "%v", err)
		})
	}
}

func TestLoad_ExpandsHomeInHistory(t *testing.T) {
	dir := isolate(t)
	cfg, _, err := Load(writeConfig(t, t.TempDir(), "history: ~/h.db\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "h.db"), cfg.History)
}

func TestMerge(t *testing.T) {
	base := &Config{
		Headers:        []string{"A: 1"},
		ConnectTimeout: 10 * time.Second,
		Rate:           1,
		History:        "base.db",
		Color:          BoolPtr(false),
	}
	flags := &Config{
		Headers: []string{"B: 2"},
		MaxTime: 3 * time.Second,
		Rate:    5,
	}

	got := base.Merge(flags)
	assert.Equal(t, []string{"A: 1", "B: 2"}, got.Headers, "file headers come first")
	assert.Equal(t, 10*time.Second, got.ConnectTimeout, "zero value does not override")
	assert.Equal(t, 3*time.Second, got.MaxTime)
	assert.Equal(t, 5.0, got.Rate)
	assert.Equal(t, "base.db", got.History)
	assert.False(t, got.GetColor(), "nil bool does not override")

	assert.Equal(t, []string{"A: 1"}, base.Headers, "receiver is not modified")
	assert.Same(t, base, base.Merge(nil))

	got = base.Merge(&Config{Color: BoolPtr(true)})
	assert.True(t, got.GetColor())
}
