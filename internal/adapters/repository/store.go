// Package repository keeps built song databases, one per game version and
// region.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/songdb"
)

// Key identifies one song database.
type Key struct {
	Version gamever.Version
	Region  gamever.Region
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Region, k.Version.Name()) }

// Validate checks that k names a known version and region.
func (k Key) Validate() error {
	if !k.Version.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(k.Version))
	}
	if _, err := gamever.ParseRegion(string(k.Region)); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedRegion, err)
	}
	return nil
}

// Builder creates the song database for a key.
type Builder func(ctx context.Context, key Key) (*songdb.Database, error)

// Store provides read access to built song databases.
type Store interface {
	// Get returns the database for key, building it on first use.
	Get(ctx context.Context, key Key) (*songdb.Database, error)

	// Peek returns the database for key only if it is already built.
	// Returns ErrNotFound otherwise.
	Peek(ctx context.Context, key Key) (*songdb.Database, error)

	// Invalidate drops the cached database for key.
	Invalidate(ctx context.Context, key Key)

	// Count returns the number of cached databases.
	Count(ctx context.Context) int
}

// FeedBuilder builds databases from one set of feeds for any key.
func FeedBuilder(feeds songdb.Feeds, opts ...songdb.Option) Builder {
	return func(ctx context.Context, key Key) (*songdb.Database, error) {
		all := append(append([]songdb.Option(nil), opts...), songdb.WithVersion(key.Version), songdb.WithRegion(key.Region))
		return songdb.Build(ctx, feeds, all...)
	}
}
