// Package config defines service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/rank"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, sends logs to a rotated file instead of stdout.
	LogFile string `koanf:"log_file"`

	// LogJSON switches the log format to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// GameVersion is the default version for requests that name none.
	GameVersion int `koanf:"game_version"`

	// Region is the default region: jp, intl or cn.
	Region string `koanf:"region"`

	// IncludePreviousVersionFrom is the first version in which charts from
	// the previous version count as new. 0 disables the rule.
	IncludePreviousVersionFrom int `koanf:"include_previous_version_from"`

	// TopNewCharts and TopOldCharts size the two rating pools.
	TopNewCharts int `koanf:"top_new_charts"`
	TopOldCharts int `koanf:"top_old_charts"`

	// RecommendMinAchievement limits recommendations to tiers at or above it.
	RecommendMinAchievement float64 `koanf:"recommend_min_achievement"`

	// Feed files. Empty paths are skipped.
	SongsFeed           string `koanf:"songs_feed"`
	ChartOverridesFeed  string `koanf:"chart_overrides_feed"`
	RegionOverridesFeed string `koanf:"region_overrides_feed"`
	RemovedSongsFeed    string `koanf:"removed_songs_feed"`

	// VerboseLookups logs every song database miss.
	VerboseLookups bool `koanf:"verbose_lookups"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                   "info",
		Addr:                       ":9080",
		GameVersion:                int(gamever.Latest),
		Region:                     string(gamever.RegionIntl),
		IncludePreviousVersionFrom: int(gamever.Circle),
		TopNewCharts:               15,
		TopOldCharts:               35,
		RecommendMinAchievement:    99,
		VerboseLookups:             false,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !gamever.Version(c.GameVersion).Valid():
		return fmt.Errorf("%w: game_version %d out of range", ErrInvalidConfig, c.GameVersion)
	case c.IncludePreviousVersionFrom < 0:
		return fmt.Errorf("%w: include_previous_version_from must not be negative", ErrInvalidConfig)
	case c.TopNewCharts <= 0 || c.TopOldCharts <= 0:
		return fmt.Errorf("%w: top chart counts must be positive", ErrInvalidConfig)
	case c.RecommendMinAchievement < 0 || c.RecommendMinAchievement > rank.Default().Top().MinAchv:
		return fmt.Errorf("%w: recommend_min_achievement %.4f out of range", ErrInvalidConfig, c.RecommendMinAchievement)
	}
	if _, err := gamever.ParseRegion(c.Region); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// Version returns GameVersion as a gamever.Version.
func (c *Config) Version() gamever.Version { return gamever.Version(c.GameVersion) }

// DefaultRegion returns Region parsed, falling back to intl.
func (c *Config) DefaultRegion() gamever.Region {
	r, err := gamever.ParseRegion(c.Region)
	if err != nil {
		return gamever.RegionIntl
	}
	return r
}
