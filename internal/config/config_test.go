package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeUnit_AcceptsAllEnumeratedUnits(t *testing.T) {
	for _, unit := range TimeUnits {
		t.Run(string(unit), func(t *testing.T) {
			got, err := ParseTimeUnit(string(unit))
			require.NoError(t, err)
			require.Equal(t, unit, got)
			require.True(t, got.Valid())
			require.Positive(t, got.Duration())
		})
	}
}

func TestParseTimeUnit_CaseInsensitive(t *testing.T) {
	got, err := ParseTimeUnit("milliseconds")
	require.NoError(t, err)
	require.Equal(t, UnitMilliseconds, got)

	got, err = ParseTimeUnit(" Seconds ")
	require.NoError(t, err)
	require.Equal(t, UnitSeconds, got)
}

func TestParseTimeUnit_RejectsUnknown(t *testing.T) {
	for _, raw := range []string{"FORTNIGHTS", "", "sec", "WEEKS"} {
		_, err := ParseTimeUnit(raw)
		require.ErrorIs(t, err, ErrInvalidTimeUnit, "unit %q", raw)
	}
}

func TestTimeUnit_Durations(t *testing.T) {
	require.Equal(t, time.Millisecond, UnitMilliseconds.Duration())
	require.Equal(t, 24*time.Hour, UnitDays.Duration())
	require.Equal(t, "milliseconds", UnitMilliseconds.Label())
}

func TestParse_MinimalConfigGetsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("metrics:\n  name: test\n"))
	require.NoError(t, err)

	require.Equal(t, "test", cfg.Metrics.Name)
	require.Equal(t, UnitSeconds, cfg.Metrics.RateUnit)
	require.Equal(t, UnitMilliseconds, cfg.Metrics.DurationUnit)
	require.False(t, cfg.Metrics.ShowSamples)
	require.True(t, cfg.Metrics.RuntimeEnabled())
	require.True(t, cfg.Metrics.LogCountsEnabled())
	require.Equal(t, DefaultListen, cfg.Server.Listen)
	require.True(t, cfg.Server.ServerEnabled())
	require.False(t, cfg.Export.Enabled)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestParse_FullConfig(t *testing.T) {
	raw := `
metrics:
  name: webapp
  rate_unit: seconds
  duration_unit: MILLISECONDS
  show_samples: true
  runtime: false
  log_counts: false
server:
  enabled: false
  listen: "127.0.0.1:0"
export:
  enabled: true
  interval: 30s
  directory: /tmp/snapshots
  history_path: ":memory:"
  history_limit: 10
logging:
  level: debug
  format: json
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)

	require.Equal(t, "webapp", cfg.Metrics.Name)
	require.Equal(t, UnitSeconds, cfg.Metrics.RateUnit) // normalized to canonical form
	require.True(t, cfg.Metrics.ShowSamples)
	require.False(t, cfg.Metrics.RuntimeEnabled())
	require.False(t, cfg.Metrics.LogCountsEnabled())
	require.False(t, cfg.Server.ServerEnabled())

	d, err := cfg.Export.IntervalDuration()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, d)
}

func TestParse_InvalidRateUnitFailsFast(t *testing.T) {
	_, err := Parse([]byte("metrics:\n  name: test\n  rate_unit: FORTNIGHTS\n"))
	require.ErrorIs(t, err, ErrInvalidTimeUnit)
}

func TestParse_InvalidDurationUnitFailsFast(t *testing.T) {
	_, err := Parse([]byte("metrics:\n  name: test\n  duration_unit: lightyears\n"))
	require.ErrorIs(t, err, ErrInvalidTimeUnit)
}

func TestParse_ExportValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "bad interval",
			yaml: "export:\n  enabled: true\n  interval: soon\n  directory: /tmp\n",
			want: ErrInvalidInterval,
		},
		{
			name: "interval below floor",
			yaml: "export:\n  enabled: true\n  interval: 100ms\n  directory: /tmp\n",
			want: ErrInvalidInterval,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("no sink", func(t *testing.T) {
		_, err := Parse([]byte("export:\n  enabled: true\n"))
		require.Error(t, err)
	})
}

func TestParse_InvalidLogging(t *testing.T) {
	_, err := Parse([]byte("logging:\n  level: loud\n"))
	require.ErrorIs(t, err, ErrInvalidLogging)

	_, err = Parse([]byte("logging:\n  format: xml\n"))
	require.ErrorIs(t, err, ErrInvalidLogging)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("METRICSD_TEST_NAME", "from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics:\n  name: ${METRICSD_TEST_NAME}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Metrics.Name)
}
