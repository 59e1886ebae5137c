package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/metricsd/internal/config"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "metricsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func parseConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(body))
	require.NoError(t, err)
	return cfg
}

func TestApply_UpdatesLogLevel(t *testing.T) {
	current := parseConfig(t, "logging:\n  level: info\n")
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	cw := &ConfigWatcher{current: current, level: level}
	cw.apply(parseConfig(t, "logging:\n  level: debug\n"))

	require.Equal(t, slog.LevelDebug, level.Level())
	require.Equal(t, config.LogLevelDebug, cw.current.Logging.Level)
}

func TestApply_KeepsLevelWhenUnchanged(t *testing.T) {
	current := parseConfig(t, "logging:\n  level: warn\n")
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	cw := &ConfigWatcher{current: current, level: level}
	cw.apply(parseConfig(t, "logging:\n  level: warn\nmetrics:\n  name: other\n"))

	require.Equal(t, slog.LevelWarn, level.Level())
	require.Equal(t, "other", cw.current.Metrics.Name)
}

func TestStaticEqual(t *testing.T) {
	base := "metrics:\n  name: app\nserver:\n  listen: :9090\n"

	t.Run("identical configs", func(t *testing.T) {
		require.True(t, staticEqual(parseConfig(t, base), parseConfig(t, base)))
	})

	t.Run("explicit flags matching defaults", func(t *testing.T) {
		explicit := parseConfig(t, "metrics:\n  name: app\n  runtime: true\n  log_counts: true\nserver:\n  listen: :9090\n  enabled: true\n")
		require.True(t, staticEqual(parseConfig(t, base), explicit))
	})

	t.Run("registry rename", func(t *testing.T) {
		require.False(t, staticEqual(parseConfig(t, base), parseConfig(t, "metrics:\n  name: renamed\n")))
	})

	t.Run("export change", func(t *testing.T) {
		changed := parseConfig(t, base+"export:\n  enabled: true\n  interval: 30s\n  directory: /tmp/snaps\n")
		require.False(t, staticEqual(parseConfig(t, base), changed))
	})

	t.Run("logging change is not static", func(t *testing.T) {
		require.True(t, staticEqual(parseConfig(t, base), parseConfig(t, base+"logging:\n  level: debug\n")))
	})
}

func TestReload_IgnoresBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logging:\n  level: info\n")

	current := parseConfig(t, "logging:\n  level: info\n")
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	cw, err := New(path, current, level)
	require.NoError(t, err)
	defer cw.watcher.Close()

	writeConfig(t, dir, "logging:\n  level: chatty\n")
	cw.reload()

	require.Equal(t, slog.LevelInfo, level.Level())
	require.Same(t, current, cw.current)
}

func TestReload_AppliesNewLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logging:\n  level: info\n")

	current := parseConfig(t, "logging:\n  level: info\n")
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	cw, err := New(path, current, level)
	require.NoError(t, err)
	defer cw.watcher.Close()

	writeConfig(t, dir, "logging:\n  level: error\n")
	cw.reload()

	require.Equal(t, slog.LevelError, level.Level())
}

func TestWatcher_StartStop(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "logging:\n  level: info\n")

	cw, err := New(path, parseConfig(t, "logging:\n  level: info\n"), new(slog.LevelVar))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, cw.Start(ctx))
	require.NoError(t, cw.Stop(ctx))
}
