// Package level models chart internal levels and their official labels.
package level

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/dxrating/internal/domain/gamever"
)

// Level bounds.
const (
	MaxLevel = 15
	MinLevel = 1
)

// Level is a chart's internal level. Confirmed is false when Value is an
// estimate. A zero Value means the level is unknown.
type Level struct {
	Value     float64 `json:"value"`
	Confirmed bool    `json:"confirmed"`
}

// Confirmed returns a confirmed level.
func Confirmed(v float64) Level { return Level{Value: math.Abs(v), Confirmed: true} }

// Estimated returns an unconfirmed level.
func Estimated(v float64) Level { return Level{Value: math.Abs(v)} }

// FromSigned decodes the feed convention where a negative number marks an
// estimate and zero or NaN marks an unknown level.
func FromSigned(x float64) Level {
	switch {
	case math.IsNaN(x), x == 0:
		return Level{}
	case x < 0:
		return Level{Value: -x}
	default:
		return Level{Value: x, Confirmed: true}
	}
}

// Signed encodes l back into the feed convention.
func (l Level) Signed() float64 {
	if l.Confirmed {
		return l.Value
	}
	return -l.Value
}

// Known reports whether l carries a usable value.
func (l Level) Known() bool { return l.Value > 0 }

func maxMinorBeforePlus(ver gamever.Version) float64 {
	if ver > gamever.Buddies {
		return 0.5
	}
	return 0.6
}

func minMinorOfPlus(ver gamever.Version) float64 {
	if ver > gamever.Buddies {
		return 0.6
	}
	return 0.7
}

// Official returns the in-game label for an internal level, e.g. "13" or "13+".
// Since BUDDiES PLUS the "+" range starts at x.6; before that it starts at x.7.
func Official(ver gamever.Version, value float64) string {
	value = math.Abs(value)
	base := math.Floor(value)
	// compare in tenths so 13.6 - 13 does not land on 0.5999...
	tenths := int(math.Round((value - base) * 10))
	if tenths > int(math.Round(maxMinorBeforePlus(ver)*10)) {
		return strconv.Itoa(int(base)) + "+"
	}
	return strconv.Itoa(int(base))
}

// MinConstant returns the lowest internal level an official label can hold.
// A trailing "?" (unconfirmed label) is ignored.
func MinConstant(ver gamever.Version, label string) float64 {
	label = strings.TrimSuffix(strings.TrimSpace(label), "?")
	if label == "" {
		return MinLevel
	}
	base, err := strconv.Atoi(strings.TrimSuffix(label, "+"))
	if err != nil {
		return MinLevel
	}
	if strings.HasSuffix(label, "+") {
		return float64(base) + minMinorOfPlus(ver)
	}
	return float64(base)
}

// MaxConstant returns the highest internal level an official label can hold.
func MaxConstant(ver gamever.Version, label string) float64 {
	label = strings.TrimSuffix(strings.TrimSpace(label), "?")
	if label == "" {
		return MinLevel
	}
	base, err := strconv.Atoi(strings.TrimSuffix(label, "+"))
	if err != nil {
		return MinLevel
	}
	if strings.HasSuffix(label, "+") {
		return float64(base) + 0.9
	}
	return float64(base) + maxMinorBeforePlus(ver)
}

// Display renders a level for tables: "13.7" when confirmed, "13.7~" when
// estimated, "?" when unknown. Utage charts only show their official label.
func Display(l Level, utage bool) string {
	if utage {
		return Official(gamever.BuddiesPlus, l.Value) + "?"
	}
	if !l.Known() {
		return "?"
	}
	s := strconv.FormatFloat(l.Value, 'f', 1, 64)
	if l.Confirmed {
		return s
	}
	return s + "~"
}

// Compare orders levels by value; on equal values an estimate sorts first.
func Compare(a, b Level) int {
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Confirmed == b.Confirmed:
		return 0
	case !a.Confirmed:
		return -1
	default:
		return 1
	}
}
