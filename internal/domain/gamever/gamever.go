// Package gamever enumerates game versions and service regions.
package gamever

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the index of a game release, 0 being the first one.
type Version int

// Versions referenced by rating rules.
const (
	FiNALE       Version = 12
	DX           Version = 13
	UniversePlus Version = 18
	Festival     Version = 19
	FestivalPlus Version = 20
	Buddies      Version = 21
	BuddiesPlus  Version = 22
	Prism        Version = 23
	PrismPlus    Version = 24
	Circle       Version = 25

	Latest = Circle
)

var versionNames = []string{
	"maimai", // 0
	"maimai PLUS",
	"GreeN", // 2
	"GreeN PLUS",
	"ORANGE", // 4
	"ORANGE PLUS",
	"PiNK", // 6
	"PiNK PLUS",
	"MURASAKi", // 8
	"MURASAKi PLUS",
	"MiLK", // 10
	"MiLK PLUS",
	"FiNALE", // 12
	"maimaiでらっくす",
	"maimaiでらっくす PLUS",
	"Splash", // 15
	"Splash PLUS",
	"UNiVERSE", // 17
	"UNiVERSE PLUS",
	"FESTiVAL", // 19
	"FESTiVAL PLUS",
	"BUDDiES", // 21
	"BUDDiES PLUS",
	"PRiSM", // 23
	"PRiSM PLUS",
	"CiRCLE", // 25
}

// Name returns the display name of v, or its number when v is out of range.
func (v Version) Name() string {
	if v < 0 || int(v) >= len(versionNames) {
		return strconv.Itoa(int(v))
	}
	return versionNames[v]
}

func (v Version) String() string { return v.Name() }

// Valid reports whether v is a known version.
func (v Version) Valid() bool { return v >= 0 && v <= Latest }

// Validate parses raw and returns it if it lies in [minVer, Latest].
// Anything else, including empty or non-numeric input, falls back to Latest.
func Validate(raw string, minVer Version) Version {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return Latest
	}
	v := Version(n)
	if v >= minVer && v <= Latest {
		return v
	}
	return Latest
}

// Region identifies the game service region.
type Region string

// Known regions.
const (
	RegionJapan Region = "jp"
	RegionIntl  Region = "intl"
	RegionChina Region = "cn"
)

// ParseRegion normalizes s into a Region.
func ParseRegion(s string) (Region, error) {
	switch r := Region(strings.ToLower(strings.TrimSpace(s))); r {
	case RegionJapan, RegionIntl, RegionChina:
		return r, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}
