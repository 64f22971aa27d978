// Package rank defines the achievement tiers and their rating factors.
//
// A Table is immutable. Tiers are kept in published order, highest
// achievement threshold first, and every lookup walks them in that order.
// Replacing the table means building a new one with NewTable.
package rank

import (
	"fmt"
	"math"
	"strings"
)

// bandEpsilon is the smallest achievement step (0.0001%).
const bandEpsilon = 0.0001

// Tier is one achievement bracket.
//
// MaxAchv and MaxFactor describe an optional bonus band: an achievement of
// exactly MaxAchv is scored with MaxFactor instead of Factor.
type Tier struct {
	MinAchv   float64 `json:"minAchv"`
	Factor    float64 `json:"factor"`
	Title     string  `json:"title"`
	MaxAchv   float64 `json:"maxAchv,omitempty"`
	MaxFactor float64 `json:"maxFactor,omitempty"`
}

// HasBonusBand reports whether t declares a MaxAchv/MaxFactor pair.
func (t Tier) HasBonusBand() bool { return t.MaxAchv > 0 && t.MaxFactor > 0 }

// Published tiers referenced directly by callers.
var (
	SSSPlus = Tier{MinAchv: 100.5, Factor: 0.224, Title: "SSS+"}
	S       = Tier{MinAchv: 97.0, Factor: 0.2, Title: "S"}
)

var published = []Tier{
	SSSPlus,
	{MinAchv: 100.0, Factor: 0.216, Title: "SSS", MaxAchv: 100.4999, MaxFactor: 0.222},
	{MinAchv: 99.5, Factor: 0.211, Title: "SS+", MaxAchv: 99.9999, MaxFactor: 0.214},
	{MinAchv: 99.0, Factor: 0.208, Title: "SS"},
	{MinAchv: 98.0, Factor: 0.203, Title: "S+", MaxAchv: 98.9999, MaxFactor: 0.206},
	S,
	{MinAchv: 94.0, Factor: 0.168, Title: "AAA", MaxAchv: 96.9999, MaxFactor: 0.176},
	{MinAchv: 90.0, Factor: 0.152, Title: "AA"},
	{MinAchv: 80.0, Factor: 0.136, Title: "A"},
	{MinAchv: 75.0, Factor: 0.12, Title: "BBB", MaxAchv: 79.9999, MaxFactor: 0.128},
	{MinAchv: 70.0, Factor: 0.112, Title: "BB"},
	{MinAchv: 60.0, Factor: 0.096, Title: "B"},
	{MinAchv: 50.0, Factor: 0.08, Title: "C"},
	{MinAchv: 0.0, Factor: 0.016, Title: "D"},
}

var defaultTable = &Table{tiers: published}

// Table is an ordered, read-only list of tiers.
type Table struct {
	tiers []Tier
}

// Default returns the published 14-tier table.
func Default() *Table { return defaultTable }

// NewTable validates tiers and returns them as a Table. Tiers must have
// strictly descending MinAchv, end with a catch-all tier at 0, and the top
// tier must not declare a bonus band.
func NewTable(tiers []Tier) (*Table, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrMalformedTable)
	}
	if tiers[0].HasBonusBand() {
		return nil, fmt.Errorf("%w: top tier %q has a bonus band", ErrMalformedTable, tiers[0].Title)
	}
	seen := make(map[string]struct{}, len(tiers))
	for i, t := range tiers {
		if t.Title == "" {
			return nil, fmt.Errorf("%w: tier %d has no title", ErrMalformedTable, i)
		}
		if _, dup := seen[strings.ToLower(t.Title)]; dup {
			return nil, fmt.Errorf("%w: duplicate title %q", ErrMalformedTable, t.Title)
		}
		seen[strings.ToLower(t.Title)] = struct{}{}
		if math.IsNaN(t.MinAchv) || math.IsNaN(t.Factor) || t.Factor <= 0 {
			return nil, fmt.Errorf("%w: tier %q has invalid numbers", ErrMalformedTable, t.Title)
		}
		if i > 0 && t.MinAchv >= tiers[i-1].MinAchv {
			return nil, fmt.Errorf("%w: tier %q is out of order", ErrMalformedTable, t.Title)
		}
	}
	if last := tiers[len(tiers)-1]; last.MinAchv != 0 {
		return nil, fmt.Errorf("%w: last tier %q is not a catch-all", ErrMalformedTable, last.Title)
	}
	return &Table{tiers: append([]Tier(nil), tiers...)}, nil
}

// Len returns the number of tiers.
func (t *Table) Len() int { return len(t.tiers) }

// Tiers returns a copy of the tiers in table order.
func (t *Table) Tiers() []Tier { return append([]Tier(nil), t.tiers...) }

// Top returns the highest tier, the reference for the achievement cap.
func (t *Table) Top() Tier { return t.tiers[0] }

// At returns the tier at index i.
func (t *Table) At(i int) Tier { return t.tiers[i] }

// IndexForAchievement returns the index of the first tier whose MinAchv is
// at most a, or -1 when none matches.
func (t *Table) IndexForAchievement(a float64) int {
	for i, tier := range t.tiers {
		if a >= tier.MinAchv {
			return i
		}
	}
	return -1
}

// ForAchievement returns the tier matching a.
func (t *Table) ForAchievement(a float64) (Tier, bool) {
	idx := t.IndexForAchievement(a)
	if idx < 0 {
		return Tier{}, false
	}
	return t.tiers[idx], true
}

// Title returns the title of the tier matching a, "D" when nothing matches.
func (t *Table) Title(a float64) string {
	tier, ok := t.ForAchievement(a)
	if !ok {
		return "D"
	}
	return tier.Title
}

// FinaleTitle is Title using the FiNALE-era labels, where SSS+ did not exist.
func (t *Table) FinaleTitle(a float64) string {
	return strings.Replace(t.Title(a), "SSS+", "SSS", 1)
}

// ByTitle finds a tier by title, ignoring case.
func (t *Table) ByTitle(title string) (Tier, bool) {
	idx := t.indexByTitle(title)
	if idx < 0 {
		return Tier{}, false
	}
	return t.tiers[idx], true
}

func (t *Table) indexByTitle(title string) int {
	for i, tier := range t.tiers {
		if strings.EqualFold(tier.Title, title) {
			return i
		}
	}
	return -1
}

// AtOrAbove returns the tiers from the top of the table down to and
// including the tier that matches minAchv.
func (t *Table) AtOrAbove(minAchv float64) []Tier {
	idx := t.IndexForAchievement(minAchv)
	if idx < 0 {
		return t.Tiers()
	}
	return append([]Tier(nil), t.tiers[:idx+1]...)
}

// RatingRange returns the floored rating bounds a chart of level lv can
// yield inside tier. The upper bound uses the bonus band when present,
// otherwise the next higher tier's threshold minus one step.
func (t *Table) RatingRange(lv float64, tier Tier) (minRating, maxRating int) {
	lv = math.Abs(lv)
	minRating = int(math.Floor(lv * tier.MinAchv * tier.Factor))
	if tier.HasBonusBand() {
		return minRating, int(math.Floor(lv * tier.MaxAchv * tier.MaxFactor))
	}
	maxAchv := tier.MinAchv
	if idx := t.indexByTitle(tier.Title); idx >= 1 {
		maxAchv = t.tiers[idx-1].MinAchv - bandEpsilon
	}
	return minRating, int(math.Floor(lv * maxAchv * tier.Factor))
}
