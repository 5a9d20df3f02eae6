package bartrack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-bartrack/tracker"
)

func TestDefaultConfigValid(t *testing.T) {

	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	require.Equal(t, tracker.LevelAccurate, cfg.Level())
	require.True(t, cfg.Pace)
	require.Equal(t, 0.2, cfg.Detector.MinAspectRatio)
	require.Equal(t, 10, cfg.Detector.MaxObservations)
}

func TestConfigValidate(t *testing.T) {

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"tracking level", func(c *Config) { c.TrackingLevel = "turbo" }},
		{"frame rate", func(c *Config) { c.DefaultFrameRate = 0 }},
		{"max lost", func(c *Config) { c.MaxLostFrames = -1 }},
		{"view size", func(c *Config) { c.ViewWidth = -1 }},
		{"smoothing", func(c *Config) { c.SmoothTrajectory = true; c.SmoothPosition = 0 }},
		{"aspect range", func(c *Config) { c.Detector.Enabled = true; c.Detector.MinAspectRatio = 0.9; c.Detector.MaxAspectRatio = 0.5 }},
		{"min size", func(c *Config) { c.Detector.Enabled = true; c.Detector.MinSize = 2 }},
		{"observations", func(c *Config) { c.Detector.Enabled = true; c.Detector.MaxObservations = 0 }},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.modify(&cfg)

		err := cfg.Validate()
		require.True(t, errors.Is(err, ErrInvalidConfig), tc.name)
	}
}

func TestLoadConfig(t *testing.T) {

	path := filepath.Join(t.TempDir(), "bartrack.yaml")

	data := []byte(`tracking_level: fast
pace: false
max_lost_frames: 15
view_width: 390
view_height: 844
detector:
  enabled: true
  min_size: 0.2
`)

	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, tracker.LevelFast, cfg.Level())
	require.False(t, cfg.Pace)
	require.Equal(t, 15, cfg.MaxLostFrames)
	require.Equal(t, 390, cfg.ViewWidth)
	require.Equal(t, 844, cfg.ViewHeight)
	require.True(t, cfg.Detector.Enabled)
	require.Equal(t, 0.2, cfg.Detector.MinSize)

	// unset keys keep their defaults
	require.Equal(t, 30.0, cfg.DefaultFrameRate)
	require.Equal(t, 1.0, cfg.Detector.MaxAspectRatio)
	require.Equal(t, 10, cfg.Detector.MaxObservations)
}

func TestLoadConfigEnvironment(t *testing.T) {

	t.Setenv("BARTRACK_TRACKING_LEVEL", "fast")
	t.Setenv("BARTRACK_DETECTOR_MAX_OBSERVATIONS", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, tracker.LevelFast, cfg.Level())
	require.Equal(t, 3, cfg.Detector.MaxObservations)
}

func TestLoadConfigErrors(t *testing.T) {

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracking_level: turbo\n"), 0o600))

	_, err = LoadConfig(path)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}
