// Package config loads runtime configuration for go-marker commands.
//
// Values come from defaults, an optional config file, and MARKER_* env vars,
// in increasing precedence. Commands bind their flags on top with BindFlags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/anchor/aruco"
	"github.com/teslashibe/go-marker/pkg/overlay"
	"github.com/teslashibe/go-marker/pkg/tracking"
)

// EnvPrefix is prepended to every env override, e.g. MARKER_CAMERA_DEVICE.
const EnvPrefix = "MARKER"

// DefaultName is the config file base name searched for when no path is given.
const DefaultName = "marker-overlay"

// Config is the typed result of Load.
type Config struct {
	LogLevel string
	LogFile  string
	Debug    bool

	Watchdog time.Duration
	Resource string
	MediaDir string

	Marker anchor.ReferenceImage
	Camera aruco.Config
}

// Tracking returns the tracking controller settings.
func (c Config) Tracking() tracking.Config {
	t := tracking.DefaultConfig()
	t.WatchdogPeriod = c.Watchdog
	t.Resource = c.Resource
	return t
}

// Anchors returns the spatial-anchor configuration for the marker.
func (c Config) Anchors() anchor.Config {
	return anchor.SingleImageConfig(c.Marker)
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "marker-overlay.log")
	viper.SetDefault("debug", false)

	viper.SetDefault("tracking.watchdog", "2s")
	viper.SetDefault("tracking.resource", overlay.DefaultResource)

	viper.SetDefault("media.dir", "./media")

	viper.SetDefault("marker.name", "poster")
	viper.SetDefault("marker.width", 0.2)
	viper.SetDefault("marker.height", 0.15)

	cam := aruco.DefaultConfig()
	viper.SetDefault("camera.device", cam.Device)
	viper.SetDefault("camera.dictionary", cam.Dictionary)
	viper.SetDefault("camera.markerId", cam.MarkerID)
	viper.SetDefault("camera.record", "")
	viper.SetDefault("camera.recordFps", cam.RecordFPS)
}

// Load reads configuration. An empty path searches the working directory
// and ~/.config/marker-overlay for marker-overlay.{yaml,json,toml}; a
// missing file is fine in that case. An explicit path must exist.
func Load(path string) (Config, error) {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(DefaultName)
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/marker-overlay")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return Current()
}

// Current decodes the values viper holds now, including bound flags.
func Current() (Config, error) {
	c := Config{
		LogLevel: viper.GetString("logLevel"),
		LogFile:  viper.GetString("logFile"),
		Debug:    viper.GetBool("debug"),
		Watchdog: viper.GetDuration("tracking.watchdog"),
		Resource: viper.GetString("tracking.resource"),
		MediaDir: viper.GetString("media.dir"),
		Marker: anchor.ReferenceImage{
			Name: viper.GetString("marker.name"),
			PhysicalSize: anchor.Size{
				Width:  viper.GetFloat64("marker.width"),
				Height: viper.GetFloat64("marker.height"),
			},
		},
		Camera: aruco.Config{
			Device:     viper.GetInt("camera.device"),
			Dictionary: viper.GetString("camera.dictionary"),
			MarkerID:   viper.GetInt("camera.markerId"),
			RecordPath: viper.GetString("camera.record"),
			RecordFPS:  viper.GetFloat64("camera.recordFps"),
		},
	}

	if err := c.Tracking().Validate(); err != nil {
		return Config{}, err
	}
	if err := c.Anchors().Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// BindFlags maps command-line flags onto config keys. Flags that were not
// set on the command line leave the file/env value in place.
func BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		f := flags.Lookup(flag)
		if f == nil {
			return fmt.Errorf("bind flag %q: no such flag", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}
	return nil
}
