// Package songdb holds chart metadata for one game version and region.
//
// A Database is filled by a Pipeline of merge stages and then frozen. Once
// frozen it is read-only and safe for concurrent lookups; mutators refuse to
// run and log a warning instead.
package songdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/level"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// Option applies a configuration option to the Database.
type Option func(*Database)

// WithVersion sets the game version the database describes.
func WithVersion(v gamever.Version) Option {
	return func(db *Database) { db.version = v }
}

// WithRegion sets the region whose overrides are applied on insert.
func WithRegion(r gamever.Region) Option {
	return func(db *Database) { db.region = r }
}

// WithLogger sets the logger used for lookup misses and rejected inserts.
func WithLogger(l logger.Logger) Option {
	return func(db *Database) {
		if l != nil {
			db.logger = l
		}
	}
}

// WithVerbose controls whether lookup misses are logged.
func WithVerbose(verbose bool) Option {
	return func(db *Database) { db.verbose = verbose }
}

// Database maps song nicknames to Properties, one map per chart type.
type Database struct {
	version gamever.Version
	region  gamever.Region
	verbose bool
	frozen  bool
	logger  logger.Logger

	dx        map[string]Properties
	standard  map[string]Properties
	nameByIco map[string]string
}

// New creates an empty database.
func New(opts ...Option) *Database {
	db := &Database{
		version:   gamever.Latest,
		region:    gamever.RegionIntl,
		verbose:   true,
		logger:    logger.Nop(),
		dx:        make(map[string]Properties),
		standard:  make(map[string]Properties),
		nameByIco: make(map[string]string),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Version returns the game version of the database.
func (db *Database) Version() gamever.Version { return db.version }

// Region returns the region of the database.
func (db *Database) Region() gamever.Region { return db.region }

// Freeze makes the database read-only.
func (db *Database) Freeze() { db.frozen = true }

// Frozen reports whether Freeze was called.
func (db *Database) Frozen() bool { return db.frozen }

// Len returns the number of DX and standard songs.
func (db *Database) Len() (dx, standard int) { return len(db.dx), len(db.standard) }

func (db *Database) mapFor(t chart.Type) map[string]Properties {
	if t == chart.DX {
		return db.dx
	}
	return db.standard
}

func (db *Database) writable(ctx context.Context, op, name string) bool {
	if db.frozen {
		db.logger.Warn(ctx, "song database is frozen", logger.String("op", op), logger.String("song", name))
		return false
	}
	return true
}

// InsertOrUpdate merges song into an existing entry or stores it as a new
// one. It returns false when the song was rejected.
func (db *Database) InsertOrUpdate(ctx context.Context, song Properties) bool {
	return db.Upsert(ctx, song.AsUpdate())
}

// Upsert merges u into an existing entry when one exists under its name or
// nickname. Otherwise it creates a new entry, which requires u to carry a
// debut and at least MinLevelSlots levels.
func (db *Database) Upsert(ctx context.Context, u Update) bool {
	if !db.writable(ctx, "upsert", u.Name) {
		return false
	}
	if db.Update(ctx, u) {
		return true
	}
	if !u.complete() {
		db.logger.Warn(ctx, "cannot insert incomplete song",
			logger.String("song", u.Name),
			logger.String("chart_type", u.Type.String()),
			logger.Error(ErrInvalidSong),
		)
		return false
	}
	song := u.properties()
	if err := checkSong(song); err != nil {
		db.logger.Warn(ctx, "rejecting song", logger.Error(err))
		return false
	}

	// Update already resolved this key, so it is free here.
	m := db.mapFor(song.Type)
	key := Nickname(song.Name, song.Genre)
	if song.Ico != "" {
		db.nameByIco[song.Ico] = key
	}
	if o, ok := song.RegionOverrides[db.region]; ok {
		applyRegionOverride(&song, o)
	}
	m[key] = song
	return true
}

func applyRegionOverride(song *Properties, o RegionOverride) {
	if o.Debut >= 0 {
		song.Debut = gamever.Version(o.Debut)
	}
	for i := range song.Lv {
		// NaN > 0 is false, so NaN never overrides.
		if i < len(o.Lv) && o.Lv[i] > 0 {
			song.Lv[i] = level.Confirmed(o.Lv[i])
		}
	}
}

// Update merges u into the entry found by exact name, then by nickname.
// It returns false, without changing anything, when no entry exists.
func (db *Database) Update(ctx context.Context, u Update) bool {
	if !db.writable(ctx, "update", u.Name) {
		return false
	}
	m := db.mapFor(u.Type)
	key := u.Name
	if _, ok := m[key]; !ok {
		genre := ""
		if u.Genre != nil {
			genre = *u.Genre
		}
		key = Nickname(u.Name, genre)
	}
	existing, ok := m[key]
	if !ok {
		return false
	}

	merged := existing.clone()
	if u.Name != "" {
		merged.Name = u.Name
	}
	if u.Genre != nil {
		merged.Genre = *u.Genre
	}
	if u.Debut != nil {
		merged.Debut = *u.Debut
	}
	if u.RegionOverrides != nil {
		merged.RegionOverrides = u.RegionOverrides
	}
	for i := range merged.Lv {
		if i >= len(u.Lv) {
			break
		}
		if lv := u.Lv[i]; lv.Confirmed && lv.Value > 0 && !math.IsNaN(lv.Value) {
			merged.Lv[i] = lv
		}
	}
	if u.Ico != "" {
		merged.Ico = u.Ico
		db.nameByIco[u.Ico] = key
	}
	m[key] = merged
	return true
}

// Delete removes name from both chart type maps. Deleting a missing song is
// a no-op.
func (db *Database) Delete(ctx context.Context, name string) {
	if !db.writable(ctx, "delete", name) {
		return
	}
	delete(db.dx, name)
	delete(db.standard, name)
}

// HasDualCharts reports whether name has both a standard and a DX chart set.
// "Link" always does: its two songs cannot be told apart by title alone.
func (db *Database) HasDualCharts(name string) bool {
	if name == ambiguousTitle {
		return true
	}
	_, dx := db.dx[name]
	_, std := db.standard[name]
	return dx && std
}

// Get looks a song up by raw name, then by nickname. A miss is normal for
// new or unlisted songs.
func (db *Database) Get(ctx context.Context, name, genre string, t chart.Type) (Properties, bool) {
	if name == "" {
		return Properties{}, false
	}
	m := db.mapFor(t)
	if p, ok := m[name]; ok {
		return p, true
	}
	if p, ok := m[Nickname(name, genre)]; ok {
		return p, true
	}
	metrics.RecordSongLookupMiss()
	if db.verbose {
		db.logger.Warn(ctx, "could not find song properties",
			logger.String("song", name),
			logger.String("chart_type", t.String()),
		)
	}
	return Properties{}, false
}

// GetByIco resolves a song through its icon key.
func (db *Database) GetByIco(ctx context.Context, ico string, t chart.Type) (Properties, bool) {
	return db.Get(ctx, db.nameByIco[ico], "", t)
}

// All returns every song, DX songs first, each group ordered by key.
func (db *Database) All() []Properties {
	out := make([]Properties, 0, len(db.dx)+len(db.standard))
	for _, m := range []map[string]Properties{db.dx, db.standard} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, m[k])
		}
	}
	return out
}

// PropsFor returns the properties of every song in songs that is known.
func (db *Database) PropsFor(ctx context.Context, songs []BasicProps) []Properties {
	out := make([]Properties, 0, len(songs))
	for _, s := range songs {
		if p, ok := db.Get(ctx, s.Name, s.Genre, s.Type); ok {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns an unfrozen deep copy.
func (db *Database) Clone() *Database {
	c := &Database{
		version:   db.version,
		region:    db.region,
		verbose:   db.verbose,
		logger:    db.logger,
		dx:        make(map[string]Properties, len(db.dx)),
		standard:  make(map[string]Properties, len(db.standard)),
		nameByIco: make(map[string]string, len(db.nameByIco)),
	}
	for k, v := range db.dx {
		c.dx[k] = v.clone()
	}
	for k, v := range db.standard {
		c.standard[k] = v.clone()
	}
	for k, v := range db.nameByIco {
		c.nameByIco[k] = v
	}
	return c
}

// Validate checks every song against the database invariants and returns
// all violations joined.
func (db *Database) Validate() error {
	var errs []error
	for _, p := range db.All() {
		if err := checkSong(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// prune removes songs that fail checkSong and returns how many were dropped.
func (db *Database) prune(ctx context.Context) int {
	dropped := 0
	for _, m := range []map[string]Properties{db.dx, db.standard} {
		for k, p := range m {
			if err := checkSong(p); err != nil {
				db.logger.Warn(ctx, "dropping invalid song", logger.String("key", k), logger.Error(err))
				delete(m, k)
				dropped++
			}
		}
	}
	return dropped
}

func checkSong(p Properties) error {
	if !p.Debut.Valid() {
		return fmt.Errorf("%w: %s [%s] debut %d out of range", ErrInvalidSong, p.Name, p.Type, int(p.Debut))
	}
	if len(p.Lv) < MinLevelSlots {
		return fmt.Errorf("%w: %s [%s] has %d level slots", ErrInvalidSong, p.Name, p.Type, len(p.Lv))
	}
	return nil
}
