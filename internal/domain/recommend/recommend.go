// Package recommend answers the inverse rating question: which chart levels
// and achievements reach a given rating.
package recommend

import (
	"math"
	"sort"

	"github.com/okian/dxrating/internal/domain/level"
	"github.com/okian/dxrating/internal/domain/rank"
	"github.com/okian/dxrating/pkg/metrics"
)

// Grid steps. Levels move in tenths, achievements in ten-thousandths.
const (
	levelScale = 10
	achvScale  = 10000
	achvStep   = 1.0 / achvScale
)

// Entry is one way to reach the target: play a chart of Level at MinAchv or
// better and it rates Rating.
type Entry struct {
	Level   float64 `json:"lv"`
	MinAchv float64 `json:"minAchv"`
	Rating  int     `json:"rating"`
}

// Result maps a tier title to its entries, lowest level first. Tiers that
// cannot reach the target are absent.
type Result map[string][]Entry

// TierEntries is a Result row.
type TierEntries struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Ordered lists r in the order of tiers, skipping absent titles.
func (r Result) Ordered(tiers []rank.Tier) []TierEntries {
	out := make([]TierEntries, 0, len(r))
	for _, t := range tiers {
		if entries, ok := r[t.Title]; ok {
			out = append(out, TierEntries{Title: t.Title, Entries: entries})
		}
	}
	return out
}

// Levels finds, for every tier, each level at which floor(level * factor *
// achievement) can reach target without leaving the tier, together with the
// lowest such achievement. target is floored first.
//
// The tier's own bonus band is ignored: the achievement ceiling is the next
// higher tier's threshold minus one step, or the tier's own threshold for
// the highest tier given. Tiers whose first candidate level exceeds
// level.MaxLevel are omitted, and so are catch-all tiers with no threshold.
func Levels(target float64, tiers []rank.Tier) Result {
	metrics.RecordRecommendation()
	res := make(Result)
	goal := math.Floor(target)
	if goal < 1 || math.IsNaN(goal) {
		return res
	}

	asc := append([]rank.Tier(nil), tiers...)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].MinAchv < asc[j].MinAchv })

	for i, t := range asc {
		if t.MinAchv <= 0 || t.Factor <= 0 {
			continue
		}
		// compare as float first; huge targets would overflow the grid int
		lowest := goal / t.Factor / t.MinAchv
		if lowest > level.MaxLevel+1 {
			continue
		}
		tenths := ceilToGrid(lowest, levelScale)
		if tenths > level.MaxLevel*levelScale {
			continue
		}
		ceiling := t.MinAchv
		if i+1 < len(asc) {
			ceiling = asc[i+1].MinAchv - achvStep
		}

		var entries []Entry
		for ; tenths > 0; tenths-- {
			lv := float64(tenths) / levelScale
			if math.Floor(lv*t.Factor*ceiling) < goal {
				break
			}
			entries = append(entries, entryFor(goal, lv, t))
		}
		if len(entries) == 0 {
			continue
		}
		for l, r := 0, len(entries)-1; l < r; l, r = l+1, r-1 {
			entries[l], entries[r] = entries[r], entries[l]
		}
		res[t.Title] = entries
	}
	return res
}

func entryFor(goal, lv float64, t rank.Tier) Entry {
	steps := ceilToGrid(goal/t.Factor/lv, achvScale)
	minAchv := math.Max(float64(steps)/achvScale, t.MinAchv)
	r := math.Floor(lv * t.Factor * minAchv)
	// one step up if float error left the product just under the goal
	if r < goal {
		minAchv = math.Round((minAchv+achvStep)*achvScale) / achvScale
		r = math.Floor(lv * t.Factor * minAchv)
	}
	return Entry{Level: lv, MinAchv: minAchv, Rating: int(r)}
}

// ceilToGrid returns ceil(x*scale), treating values within float noise of
// a grid point as on it.
func ceilToGrid(x, scale float64) int {
	v := x * scale
	if r := math.Round(v); math.Abs(v-r) < 1e-7 {
		return int(r)
	}
	return int(math.Ceil(v))
}
