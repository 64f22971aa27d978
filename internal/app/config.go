package service

import (
	"github.com/okian/dxrating/internal/adapters/feed"
	"github.com/okian/dxrating/internal/config"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/rating"
)

// OptionsFromConfig maps loaded configuration onto service options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithDefaultVersion(cfg.Version()),
		WithDefaultRegion(cfg.DefaultRegion()),
		WithPolicy(rating.NewChartPolicy{IncludePreviousFrom: gamever.Version(cfg.IncludePreviousVersionFrom)}),
		WithTopCounts(cfg.TopNewCharts, cfg.TopOldCharts),
		WithRecommendMinAchievement(cfg.RecommendMinAchievement),
		WithVerboseLookups(cfg.VerboseLookups),
		WithFeedPaths(feed.Paths{
			Songs:           cfg.SongsFeed,
			ChartOverrides:  cfg.ChartOverridesFeed,
			RegionOverrides: cfg.RegionOverridesFeed,
			Removed:         cfg.RemovedSongsFeed,
		}),
	}
}
