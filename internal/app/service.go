// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the analyze CLI.
package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dxrating/internal/adapters/feed"
	repository "github.com/okian/dxrating/internal/adapters/repository"
	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/rank"
	"github.com/okian/dxrating/internal/domain/rating"
	"github.com/okian/dxrating/internal/domain/recommend"
	"github.com/okian/dxrating/internal/domain/songdb"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// Service implements the API dependencies for the rating engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	table    *rank.Table
	analyzer *rating.Analyzer
	loader   *feed.Loader
	cache    *repository.DatabaseCache

	// Configuration
	paths            feed.Paths
	feeds            *songdb.Feeds
	version          gamever.Version
	region           gamever.Region
	policy           rating.NewChartPolicy
	topNew, topOld   int
	recommendMinAchv float64
	verbose          bool
	metricsInterval  time.Duration

	// State
	started   bool
	startedAt time.Time
	analyses  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFeedPaths sets the feed files read on Start.
func WithFeedPaths(p feed.Paths) Option {
	return func(s *Service) {
		s.paths = p
	}
}

// WithFeeds supplies already loaded feeds; feed paths are then ignored.
func WithFeeds(f songdb.Feeds) Option {
	return func(s *Service) {
		s.feeds = &f
	}
}

// WithDefaultVersion sets the version used when a request names none.
func WithDefaultVersion(v gamever.Version) Option {
	return func(s *Service) {
		if v.Valid() {
			s.version = v
		}
	}
}

// WithDefaultRegion sets the region used when a request names none.
func WithDefaultRegion(r gamever.Region) Option {
	return func(s *Service) {
		if r != "" {
			s.region = r
		}
	}
}

// WithPolicy sets the new-chart classification policy.
func WithPolicy(p rating.NewChartPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithTopCounts sets how many new and old charts count toward the rating.
func WithTopCounts(newCharts, oldCharts int) Option {
	return func(s *Service) {
		if newCharts > 0 {
			s.topNew = newCharts
		}
		if oldCharts > 0 {
			s.topOld = oldCharts
		}
	}
}

// WithRecommendMinAchievement sets the lowest tier threshold offered in
// analysis recommendations.
func WithRecommendMinAchievement(a float64) Option {
	return func(s *Service) {
		if a >= 0 {
			s.recommendMinAchv = a
		}
	}
}

// WithVerboseLookups logs every song database miss.
func WithVerboseLookups(v bool) Option {
	return func(s *Service) {
		s.verbose = v
	}
}

// WithTable replaces the default tier table.
func WithTable(t *rank.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithMetricsUpdateInterval sets how often runtime and cache gauges refresh.
func WithMetricsUpdateInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.metricsInterval = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		table:            rank.Default(),
		version:          gamever.Latest,
		region:           gamever.RegionIntl,
		policy:           rating.DefaultPolicy,
		topNew:           rating.DefaultTopNewCharts,
		topOld:           rating.DefaultTopOldCharts,
		recommendMinAchv: 99,
		metricsInterval:  metrics.RefreshInterval(),
		logger:           nil, // replaced when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the feeds, builds the default song database and readies the
// analyzer.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting rating service...")

	s.loader = feed.NewLoader(feed.WithLogger(s.logger.Named("feed")))
	feeds := songdb.Feeds{}
	if s.feeds != nil {
		feeds = *s.feeds
	} else {
		loaded, err := s.loader.Feeds(ctx, s.paths)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStart, err)
		}
		feeds = loaded
	}

	defaultKey := repository.Key{Version: s.version, Region: s.region}
	s.cache = repository.NewDatabaseCache(ctx,
		repository.FeedBuilder(feeds,
			songdb.WithLogger(s.logger.Named("songdb")),
			songdb.WithVerbose(s.verbose),
		),
		repository.WithLogger(s.logger.Named("repository")),
		repository.WithMetricsUpdateInterval(s.metricsInterval),
		repository.WithPreload(defaultKey),
	)

	s.analyzer = rating.NewAnalyzer(
		rating.WithTable(s.table),
		rating.WithLogger(s.logger.Named("rating")),
		rating.WithRemovedSongs(feeds.Removed),
		rating.WithPolicy(s.policy),
		rating.WithTopCounts(s.topNew, s.topOld),
	)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "rating service started",
		logger.String("version", s.version.Name()),
		logger.String("region", string(s.region)),
		logger.Int("songs", len(feeds.Songs)),
		logger.Int("include_previous_from", int(s.policy.IncludePreviousFrom)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping rating service...")

	if s.cache != nil {
		_ = s.cache.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// Ranks returns the tier table, highest tier first.
func (s *Service) Ranks() []rank.Tier {
	return s.table.Tiers()
}

// Rating rates one play.
func (s *Service) Rating(ctx context.Context, lv, achv float64) (rating.Detail, error) {
	if math.IsNaN(lv) || math.IsNaN(achv) {
		return rating.Detail{}, fmt.Errorf("%w: level and achievement must be numbers", ErrInvalidInput)
	}
	if _, ok := s.table.ForAchievement(achv); !ok {
		return rating.Detail{}, fmt.Errorf("%w: no rank for achievement %v", ErrRankNotFound, achv)
	}
	return s.formula().Detail(ctx, lv, achv), nil
}

// RatingRange is the span of floored ratings a tier yields at one level.
type RatingRange struct {
	MinRating int
	MaxRating int
	RankTitle string
}

// RatingRange returns the ratings reachable at lv while staying in the tier
// named title.
func (s *Service) RatingRange(_ context.Context, lv float64, title string) (RatingRange, error) {
	tier, ok := s.table.ByTitle(strings.TrimSpace(title))
	if !ok {
		return RatingRange{}, fmt.Errorf("%w: %q", ErrRankNotFound, title)
	}
	lo, hi := s.table.RatingRange(lv, tier)
	return RatingRange{MinRating: lo, MaxRating: hi, RankTitle: tier.Title}, nil
}

// RecommendedLevels solves for the levels reaching target in every tier at
// or above minAchv. A zero minAchv considers the whole table.
func (s *Service) RecommendedLevels(ctx context.Context, target, minAchv float64) []recommend.TierEntries {
	tiers := s.table.AtOrAbove(minAchv)
	res := recommend.Levels(target, tiers)
	s.log().Debug(ctx, "recommended levels computed",
		logger.Float64("target", target),
		logger.Int("tiers", len(res)),
	)
	return res.Ordered(tiers)
}

// AnalyzeRequest describes one player's records to rate.
type AnalyzeRequest struct {
	PlayerName string
	// Version is a version number; empty selects the service default.
	Version string
	// Region is a region code; empty selects the service default.
	Region              string
	Records             []chart.Record
	ExcludeUnknownSongs bool
	// RecommendMinAchievement overrides the service default when positive.
	RecommendMinAchievement float64
}

// Recommendation lists the levels that would lift one pool by one point.
type Recommendation struct {
	Pool   string                  `json:"pool"`
	Target int                     `json:"target"`
	Tiers  []recommend.TierEntries `json:"tiers"`
}

// Analysis is the full result of Analyze.
type Analysis struct {
	ID              string              `json:"id"`
	Version         gamever.Version     `json:"version"`
	VersionName     string              `json:"versionName"`
	Region          gamever.Region      `json:"region"`
	TotalRating     int                 `json:"totalRating"`
	Data            rating.Data         `json:"data"`
	NewAverage      string              `json:"newAverage"`
	OldAverage      string              `json:"oldAverage"`
	Distribution    rating.Distribution `json:"distribution"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// Analyze resolves the song database for the request and rates every
// record in it.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	s.mu.RLock()
	started, analyzer, cache := s.started, s.analyzer, s.cache
	s.mu.RUnlock()
	if !started {
		return Analysis{}, ErrNotStarted
	}

	ver := s.version
	if raw := strings.TrimSpace(req.Version); raw != "" {
		ver = gamever.Validate(raw, gamever.DX)
	}
	region := s.region
	if raw := strings.TrimSpace(req.Region); raw != "" {
		r, err := gamever.ParseRegion(raw)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		region = r
	}

	db, err := cache.Get(ctx, repository.Key{Version: ver, Region: region})
	if err != nil {
		return Analysis{}, err
	}

	data := analyzer.Analyze(ctx, rating.Input{
		DB:                  db,
		Date:                time.Now().UTC(),
		PlayerName:          req.PlayerName,
		Records:             req.Records,
		Region:              region,
		Version:             ver,
		ExcludeUnknownSongs: req.ExcludeUnknownSongs,
	})

	minAchv := s.recommendMinAchv
	if req.RecommendMinAchievement > 0 {
		minAchv = req.RecommendMinAchievement
	}

	all := append(append([]chart.RecordWithRating(nil), data.NewChartRecords...), data.OldChartRecords...)
	out := Analysis{
		ID:           uuid.NewString(),
		Version:      ver,
		VersionName:  ver.Name(),
		Region:       region,
		TotalRating:  data.Total(),
		Data:         data,
		NewAverage:   rating.Average(data.NewChartsRating, data.NewTopChartsCount),
		OldAverage:   rating.Average(data.OldChartsRating, data.OldTopChartsCount),
		Distribution: rating.Distribute(s.table, all, ver),
	}
	for _, pool := range []struct {
		name    string
		records []chart.RecordWithRating
		count   int
	}{
		{"new", data.NewChartRecords, data.NewTopChartsCount},
		{"old", data.OldChartRecords, data.OldTopChartsCount},
	} {
		if pool.count == 0 {
			continue
		}
		target := rating.Floor(pool.records[pool.count-1].Rating) + 1
		out.Recommendations = append(out.Recommendations, Recommendation{
			Pool:   pool.name,
			Target: target,
			Tiers:  s.RecommendedLevels(ctx, float64(target), minAchv),
		})
	}

	s.analyses.Add(1)
	s.log().Info(ctx, "analysis completed",
		logger.String("id", out.ID),
		logger.String("player", req.PlayerName),
		logger.String("db", repository.Key{Version: ver, Region: region}.String()),
		logger.Int("records", len(req.Records)),
		logger.Int("rating", out.TotalRating),
	)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"defaultVersion": s.version.Name(),
		"defaultRegion":  string(s.region),
		"tiers":          s.table.Len(),
		"topNewCharts":   s.topNew,
		"topOldCharts":   s.topOld,
		"analyses":       s.analyses.Load(),
	}

	if s.started {
		cached := s.cache.Count(ctx)
		stats["cachedDatabases"] = cached
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		goroutines := runtime.NumGoroutine()
		stats["goroutines"] = goroutines

		metrics.UpdateCachedDatabases(cached)
		metrics.UpdateSystemMemoryUsage(mem.Alloc)
		metrics.UpdateSystemGoroutineCount(goroutines)
	}

	return stats
}

func (s *Service) formula() *rating.Formula {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analyzer != nil {
		return s.analyzer.Formula()
	}
	return rating.NewFormula(s.table, s.logger)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
