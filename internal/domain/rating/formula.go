// Package rating turns chart results into ratings and aggregates them into
// a player's total.
package rating

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/okian/dxrating/internal/domain/level"
	"github.com/okian/dxrating/internal/domain/rank"
	"github.com/okian/dxrating/internal/domain/songdb"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// Compute returns the unfloored rating of a chart of level lv played at
// achievement achv. Achievements above the top tier's threshold are capped.
// A tier's bonus band is used only when achv equals its MaxAchv exactly.
func Compute(table *rank.Table, lv, achv float64) float64 {
	r, _ := compute(table, lv, achv)
	return r
}

func compute(table *rank.Table, lv, achv float64) (float64, bool) {
	capped := math.Min(achv, table.Top().MinAchv)
	tier, ok := table.ForAchievement(capped)
	if !ok {
		return 0, false
	}
	lv = math.Abs(lv)
	if tier.HasBonusBand() && tier.MaxAchv == achv {
		return lv * tier.MaxAchv * tier.MaxFactor, true
	}
	return lv * capped * tier.Factor, true
}

// Detail is a rating together with the values it was derived from.
type Detail struct {
	Rating            float64 `json:"rating"`
	RankTitle         string  `json:"rankTitle"`
	CappedAchievement float64 `json:"cappedAchievement"`
}

// Formula computes ratings against one tier table and logs unresolved tiers.
type Formula struct {
	table  *rank.Table
	logger logger.Logger
}

// NewFormula returns a Formula over table. A nil table means rank.Default.
func NewFormula(table *rank.Table, log logger.Logger) *Formula {
	if table == nil {
		table = rank.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Formula{table: table, logger: log}
}

// Table returns the tier table in use.
func (f *Formula) Table() *rank.Table { return f.table }

// Rating is Compute with logging. An unresolved tier yields 0.
func (f *Formula) Rating(ctx context.Context, lv, achv float64) float64 {
	metrics.RecordRatingComputation()
	r, ok := compute(f.table, lv, achv)
	if !ok {
		metrics.RecordUnresolvedTier()
		f.logger.Warn(ctx, "could not find rank for achievement",
			logger.String("achievement", strconv.FormatFloat(achv, 'f', 4, 64)),
		)
	}
	return r
}

// Detail returns the rating along with the rank title and capped
// achievement used to compute it.
func (f *Formula) Detail(ctx context.Context, lv, achv float64) Detail {
	capped := math.Min(achv, f.table.Top().MinAchv)
	return Detail{
		Rating:            f.Rating(ctx, lv, achv),
		RankTitle:         f.table.Title(capped),
		CappedAchievement: capped,
	}
}

// FullRating is the highest total reachable from songs: the count highest
// known levels, each floored at the top tier's threshold and factor.
func FullRating(table *rank.Table, songs []songdb.Properties, count int) int {
	if table == nil {
		table = rank.Default()
	}
	var lvs []float64
	for _, s := range songs {
		for _, lv := range s.Lv {
			if lv.Known() {
				lvs = append(lvs, lv.Value)
			}
		}
	}
	sort.Float64s(lvs)
	if count < len(lvs) {
		lvs = lvs[len(lvs)-max(count, 0):]
	}
	top := table.Top()
	total := 0
	for _, lv := range lvs {
		total += int(math.Floor(lv * top.MinAchv * top.Factor))
	}
	return total
}

// Average returns sum/count rounded to an integer string, "0" when count is 0.
func Average(sum, count int) string {
	if count == 0 {
		return "0"
	}
	return strconv.Itoa(int(math.Round(float64(sum) / float64(count))))
}

// Floor returns the per-chart rating that counts toward a total.
func Floor(r float64) int { return int(math.Floor(r)) }

// ForLevel is Compute for a tagged level.
func ForLevel(table *rank.Table, lv level.Level, achv float64) float64 {
	return Compute(table, lv.Value, achv)
}
