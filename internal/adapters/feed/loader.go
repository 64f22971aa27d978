// Package feed reads song metadata feeds and chart records from local
// JSON or YAML files.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/songdb"
	"github.com/okian/dxrating/pkg/logger"
)

// Paths locates the feed files. Empty paths are skipped.
type Paths struct {
	Songs           string
	ChartOverrides  string
	RegionOverrides string
	Removed         string
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// Loader decodes feed files.
type Loader struct {
	logger logger.Logger
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	ld := &Loader{logger: logger.Nop()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Feeds reads every feed in paths concurrently. The result keeps each feed
// in its own slot so the build order does not depend on read order.
func (ld *Loader) Feeds(ctx context.Context, paths Paths) (songdb.Feeds, error) {
	var feeds songdb.Feeds
	g, ctx := errgroup.WithContext(ctx)

	songSlots := []struct {
		path string
		dst  *[]songdb.Update
	}{
		{paths.Songs, &feeds.Songs},
		{paths.ChartOverrides, &feeds.ChartOverrides},
		{paths.RegionOverrides, &feeds.RegionOverrides},
	}
	for _, slot := range songSlots {
		if slot.path == "" {
			continue
		}
		g.Go(func() error {
			updates, err := ld.Songs(ctx, slot.path)
			if err != nil {
				return err
			}
			*slot.dst = updates
			return nil
		})
	}
	if paths.Removed != "" {
		g.Go(func() error {
			removed, err := ld.Removed(ctx, paths.Removed)
			if err != nil {
				return err
			}
			feeds.Removed = removed
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return songdb.Feeds{}, err
	}
	return feeds, nil
}

// Songs reads a song feed. Entries that cannot be converted are logged and
// skipped.
func (ld *Loader) Songs(ctx context.Context, path string) ([]songdb.Update, error) {
	var raw []Song
	if err := decodeFile(ctx, path, &raw); err != nil {
		return nil, err
	}
	updates := make([]songdb.Update, 0, len(raw))
	for _, s := range raw {
		u, err := s.Update()
		if err != nil {
			ld.logger.Warn(ctx, "skipping feed entry", logger.String("path", path), logger.Error(err))
			continue
		}
		updates = append(updates, u)
	}
	ld.logger.Debug(ctx, "song feed loaded", logger.String("path", path), logger.Int("songs", len(updates)))
	return updates, nil
}

// Removed reads a removed-songs feed.
func (ld *Loader) Removed(ctx context.Context, path string) (songdb.RemovedSongs, error) {
	var raw []Removed
	if err := decodeFile(ctx, path, &raw); err != nil {
		return nil, err
	}
	out := make(songdb.RemovedSongs, 0, len(raw))
	for _, r := range raw {
		region, err := gamever.ParseRegion(r.Region)
		if err != nil {
			ld.logger.Warn(ctx, "skipping removed-songs entry", logger.String("path", path), logger.Error(err))
			continue
		}
		out = append(out, songdb.RemovedEntry{Region: region, Version: gamever.Version(r.Version), Names: r.Names})
	}
	return out, nil
}

// Records reads chart records. Invalid records are logged and skipped.
func (ld *Loader) Records(ctx context.Context, path string) ([]chart.Record, error) {
	var raw []Record
	if err := decodeFile(ctx, path, &raw); err != nil {
		return nil, err
	}
	return ld.convertRecords(ctx, raw), nil
}

// DecodeRecords reads chart records in JSON from data.
func (ld *Loader) DecodeRecords(ctx context.Context, data []byte) ([]chart.Record, error) {
	var raw []Record
	if err := decode(data, ".json", &raw); err != nil {
		return nil, err
	}
	return ld.convertRecords(ctx, raw), nil
}

func (ld *Loader) convertRecords(ctx context.Context, raw []Record) []chart.Record {
	out := make([]chart.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := r.Record()
		if err != nil {
			ld.logger.Warn(ctx, "skipping chart record", logger.Error(err))
			continue
		}
		out = append(out, rec)
	}
	return out
}

func decodeFile(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadFeed, path, err)
	}
	if err := decode(data, strings.ToLower(filepath.Ext(path)), v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadFeed, path, err)
	}
	return nil
}

func decode(data []byte, ext string, v any) error {
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		return dec.Decode(v)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}
