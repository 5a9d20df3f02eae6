package bartrack

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/swdee/go-bartrack/tracker"
)

// envPrefix is prepended to environment variables overriding config keys,
// eg: BARTRACK_TRACKING_LEVEL=fast
const envPrefix = "BARTRACK"

// Config holds the tracking session settings
type Config struct {
	// TrackingLevel is "accurate" or "fast"
	TrackingLevel string `mapstructure:"tracking_level"`
	// Pace sleeps one frame interval between frames to play back at the
	// video's frame rate.  Disable to process as fast as possible
	Pace bool `mapstructure:"pace"`
	// DefaultFrameRate is used when the video reports no frame rate
	DefaultFrameRate float64 `mapstructure:"default_frame_rate"`
	// MaxLostFrames stops submitting a region to the engine once it has been
	// lost for more consecutive frames than this.  Zero never stops
	MaxLostFrames int `mapstructure:"max_lost_frames"`
	// SmoothTrajectory applies a Kalman filter to the drawn trajectory
	SmoothTrajectory bool `mapstructure:"smooth_trajectory"`
	// SmoothPosition and SmoothVelocity are the filter noise weights in
	// tracker-normalized units
	SmoothPosition float64 `mapstructure:"smooth_position"`
	SmoothVelocity float64 `mapstructure:"smooth_velocity"`
	// ViewWidth and ViewHeight size the drawing view.  When zero the view
	// matches the display image size
	ViewWidth  int `mapstructure:"view_width"`
	ViewHeight int `mapstructure:"view_height"`
	// Detector configures rectangle detection on the first frame
	Detector DetectorConfig `mapstructure:"detector"`
}

// DetectorConfig holds rectangle detection settings
type DetectorConfig struct {
	// Enabled seeds regions from rectangles found on the first frame
	Enabled bool `mapstructure:"enabled"`
	// MinAspectRatio and MaxAspectRatio bound the short side divided by the
	// long side of accepted rectangles
	MinAspectRatio float64 `mapstructure:"min_aspect_ratio"`
	MaxAspectRatio float64 `mapstructure:"max_aspect_ratio"`
	// MinSize is the smallest accepted rectangle side relative to the
	// frame's short side
	MinSize float64 `mapstructure:"min_size"`
	// MaxObservations limits the number of rectangles returned
	MaxObservations int `mapstructure:"max_observations"`
}

// DefaultConfig returns the default session settings
func DefaultConfig() Config {
	return Config{
		TrackingLevel:    tracker.LevelAccurate.String(),
		Pace:             true,
		DefaultFrameRate: 30,
		MaxLostFrames:    0,
		SmoothTrajectory: false,
		SmoothPosition:   0.01,
		SmoothVelocity:   0.002,
		Detector: DetectorConfig{
			Enabled:         false,
			MinAspectRatio:  0.2,
			MaxAspectRatio:  1.0,
			MinSize:         0.1,
			MaxObservations: 10,
		},
	}
}

// Level returns the parsed tracking level
func (c Config) Level() tracker.TrackingLevel {
	lvl, _ := tracker.ParseTrackingLevel(c.TrackingLevel)
	return lvl
}

// Validate checks the settings are usable
func (c Config) Validate() error {

	if _, err := tracker.ParseTrackingLevel(c.TrackingLevel); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	if c.DefaultFrameRate <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "default_frame_rate %v must be positive",
			c.DefaultFrameRate)
	}

	if c.MaxLostFrames < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_lost_frames %d must not be negative",
			c.MaxLostFrames)
	}

	if c.ViewWidth < 0 || c.ViewHeight < 0 {
		return errors.Wrapf(ErrInvalidConfig, "view size %dx%d must not be negative",
			c.ViewWidth, c.ViewHeight)
	}

	if c.SmoothTrajectory && (c.SmoothPosition <= 0 || c.SmoothVelocity <= 0) {
		return errors.Wrap(ErrInvalidConfig, "smoothing weights must be positive")
	}

	d := c.Detector

	if d.Enabled {
		if d.MinAspectRatio < 0 || d.MaxAspectRatio > 1 || d.MinAspectRatio > d.MaxAspectRatio {
			return errors.Wrapf(ErrInvalidConfig, "detector aspect range %v..%v",
				d.MinAspectRatio, d.MaxAspectRatio)
		}

		if d.MinSize < 0 || d.MinSize > 1 {
			return errors.Wrapf(ErrInvalidConfig, "detector min_size %v", d.MinSize)
		}

		if d.MaxObservations < 1 {
			return errors.Wrapf(ErrInvalidConfig, "detector max_observations %d",
				d.MaxObservations)
		}
	}

	return nil
}

// LoadConfig reads settings from a config file (yaml, json or toml, chosen
// by extension) layered over DefaultConfig.  Environment variables prefixed
// with BARTRACK_ override file values.  An empty path reads defaults and the
// environment only
func LoadConfig(path string) (Config, error) {

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "error decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// setDefaults registers every key so environment overrides are picked up by
// Unmarshal
func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("tracking_level", c.TrackingLevel)
	v.SetDefault("pace", c.Pace)
	v.SetDefault("default_frame_rate", c.DefaultFrameRate)
	v.SetDefault("max_lost_frames", c.MaxLostFrames)
	v.SetDefault("smooth_trajectory", c.SmoothTrajectory)
	v.SetDefault("smooth_position", c.SmoothPosition)
	v.SetDefault("smooth_velocity", c.SmoothVelocity)
	v.SetDefault("view_width", c.ViewWidth)
	v.SetDefault("view_height", c.ViewHeight)
	v.SetDefault("detector.enabled", c.Detector.Enabled)
	v.SetDefault("detector.min_aspect_ratio", c.Detector.MinAspectRatio)
	v.SetDefault("detector.max_aspect_ratio", c.Detector.MaxAspectRatio)
	v.SetDefault("detector.min_size", c.Detector.MinSize)
	v.SetDefault("detector.max_observations", c.Detector.MaxObservations)
}
