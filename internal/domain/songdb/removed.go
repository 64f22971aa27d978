package songdb

import "github.com/okian/dxrating/internal/domain/gamever"

// RemovedEntry lists songs taken out of a region's game in a version.
type RemovedEntry struct {
	Region  gamever.Region  `json:"region" yaml:"region"`
	Version gamever.Version `json:"version" yaml:"version"`
	Names   []string        `json:"names" yaml:"names"`
}

// RemovedSongs is the static removal history across regions.
type RemovedSongs []RemovedEntry

// For returns every song removed from region at or before ver, in list order.
func (r RemovedSongs) For(region gamever.Region, ver gamever.Version) []string {
	var names []string
	for _, e := range r {
		if e.Region == region && e.Version <= ver {
			names = append(names, e.Names...)
		}
	}
	return names
}

// Set returns For as a lookup set.
func (r RemovedSongs) Set(region gamever.Region, ver gamever.Version) map[string]struct{} {
	names := r.For(region, ver)
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Contains reports whether name was removed from region at or before ver.
func (r RemovedSongs) Contains(region gamever.Region, ver gamever.Version, name string) bool {
	for _, e := range r {
		if e.Region != region || e.Version > ver {
			continue
		}
		for _, n := range e.Names {
			if n == name {
				return true
			}
		}
	}
	return false
}
