package songdb

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// StageFunc turns one database snapshot into the next. It must not mutate
// its input.
type StageFunc func(ctx context.Context, db *Database) (*Database, error)

// Stage is a named step of a Pipeline.
type Stage struct {
	Name  string
	Apply StageFunc
}

// Pipeline applies stages in order. Later stages take precedence over
// earlier ones because they see, and may overwrite, their results.
type Pipeline struct {
	stages []Stage
	logger logger.Logger
}

// NewPipeline creates a pipeline from stages.
func NewPipeline(log logger.Logger, stages ...Stage) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{stages: stages, logger: log}
}

// Stages returns the stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run feeds seed through every stage and returns the last snapshot. seed is
// left untouched.
func (p *Pipeline) Run(ctx context.Context, seed *Database) (*Database, error) {
	db := seed
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStageFailed, s.Name, err)
		}
		start := time.Now()
		next, err := s.Apply(ctx, db)
		metrics.RecordPipelineStage(s.Name, float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStageFailed, s.Name, err)
		}
		dx, std := next.Len()
		p.logger.Debug(ctx, "song database stage applied",
			logger.String("stage", s.Name),
			logger.Int("dx_songs", dx),
			logger.Int("standard_songs", std),
		)
		db = next
	}
	return db, nil
}

// InsertAll upserts every song, in order.
func InsertAll(name string, songs []Update) Stage {
	return Stage{Name: name, Apply: func(ctx context.Context, db *Database) (*Database, error) {
		next := db.Clone()
		for _, s := range songs {
			next.Upsert(ctx, s)
		}
		return next, nil
	}}
}

// UpdateAll merges every update into an existing song. Updates for songs
// that are not present are skipped.
func UpdateAll(name string, updates []Update) Stage {
	return Stage{Name: name, Apply: func(ctx context.Context, db *Database) (*Database, error) {
		next := db.Clone()
		for _, u := range updates {
			if !next.Update(ctx, u) {
				next.logger.Debug(ctx, "update for unknown song skipped", logger.String("song", u.Name))
			}
		}
		return next, nil
	}}
}

// DeleteAll removes every named song.
func DeleteAll(name string, names []string) Stage {
	return Stage{Name: name, Apply: func(ctx context.Context, db *Database) (*Database, error) {
		next := db.Clone()
		for _, n := range names {
			next.Delete(ctx, n)
		}
		return next, nil
	}}
}

// ValidateStage drops songs that break the database invariants.
func ValidateStage() Stage {
	return Stage{Name: "validate", Apply: func(ctx context.Context, db *Database) (*Database, error) {
		next := db.Clone()
		if dropped := next.prune(ctx); dropped > 0 {
			next.logger.Warn(ctx, "invalid songs dropped", logger.Int("count", dropped))
		}
		return next, nil
	}}
}

// Feeds are the metadata sources for one database, listed by priority.
type Feeds struct {
	Songs           []Update
	ChartOverrides  []Update
	RegionOverrides []Update
	Removed         RemovedSongs
}

// StandardPipeline is the fixed build order: primary songs, chart level
// overrides, region overrides, removals for the database's region and
// version, then validation.
func StandardPipeline(log logger.Logger, feeds Feeds, db *Database) *Pipeline {
	return NewPipeline(log,
		InsertAll("songs", feeds.Songs),
		InsertAll("chart_overrides", feeds.ChartOverrides),
		UpdateAll("region_overrides", feeds.RegionOverrides),
		DeleteAll("removed", feeds.Removed.For(db.Region(), db.Version())),
		ValidateStage(),
	)
}

// Build runs the standard pipeline over an empty database configured by
// opts and freezes the result.
func Build(ctx context.Context, feeds Feeds, opts ...Option) (*Database, error) {
	seed := New(opts...)
	db, err := StandardPipeline(seed.logger, feeds, seed).Run(ctx, seed)
	if err != nil {
		metrics.RecordDatabaseBuild("error")
		return nil, err
	}
	db.Freeze()
	dx, std := db.Len()
	metrics.UpdateSongCounts(dx, std)
	metrics.RecordDatabaseBuild("success")
	seed.logger.Info(ctx, "song database built",
		logger.String("version", db.Version().Name()),
		logger.String("region", string(db.Region())),
		logger.Int("dx_songs", dx),
		logger.Int("standard_songs", std),
	)
	return db, nil
}
