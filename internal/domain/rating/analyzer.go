package rating

import (
	"context"
	"sort"
	"time"

	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/rank"
	"github.com/okian/dxrating/internal/domain/songdb"
	"github.com/okian/dxrating/pkg/logger"
	"github.com/okian/dxrating/pkg/metrics"
)

// Pool sizes of the official rating.
const (
	DefaultTopNewCharts = 15
	DefaultTopOldCharts = 35
)

// NewChartPolicy decides which debut versions count as new charts.
// From IncludePreviousFrom on, charts that debuted one version before the
// current one are new as well. Zero disables that rule.
type NewChartPolicy struct {
	IncludePreviousFrom gamever.Version
}

// DefaultPolicy is the rule in effect since CiRCLE.
var DefaultPolicy = NewChartPolicy{IncludePreviousFrom: gamever.Circle}

// IncludesPrevious reports whether the previous version's charts are new
// charts in ver.
func (p NewChartPolicy) IncludesPrevious(ver gamever.Version) bool {
	return p.IncludePreviousFrom > 0 && ver >= p.IncludePreviousFrom
}

// IsNew classifies a chart. Unknown songs count as new only for DX charts.
func (p NewChartPolicy) IsNew(t chart.Type, props songdb.Properties, found bool, ver gamever.Version) bool {
	if !found {
		return t == chart.DX
	}
	if props.Debut == ver {
		return true
	}
	return p.IncludesPrevious(ver) && props.Debut == ver-1
}

// Input is everything one analysis needs.
type Input struct {
	DB                  *songdb.Database
	Date                time.Time
	PlayerName          string
	Records             []chart.Record
	Region              gamever.Region
	Version             gamever.Version
	ExcludeUnknownSongs bool
}

// Data is the result of an analysis. Both buckets hold every analyzed
// record sorted by rating; IsTarget marks the ones that count.
type Data struct {
	Date              time.Time                `json:"date"`
	PlayerName        string                   `json:"playerName"`
	NewChartRecords   []chart.RecordWithRating `json:"newChartRecords"`
	OldChartRecords   []chart.RecordWithRating `json:"oldChartRecords"`
	NewTopChartsCount int                      `json:"newTopChartsCount"`
	OldTopChartsCount int                      `json:"oldTopChartsCount"`
	NewChartsRating   int                      `json:"newChartsRating"`
	OldChartsRating   int                      `json:"oldChartsRating"`
}

// Total is the player's rating.
func (d Data) Total() int { return d.NewChartsRating + d.OldChartsRating }

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithTable sets the tier table.
func WithTable(t *rank.Table) Option {
	return func(a *Analyzer) {
		if t != nil {
			a.table = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRemovedSongs sets the removal history used to filter records.
func WithRemovedSongs(r songdb.RemovedSongs) Option {
	return func(a *Analyzer) { a.removed = r }
}

// WithPolicy sets the new chart policy.
func WithPolicy(p NewChartPolicy) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithTopCounts sets how many new and old charts count toward the total.
func WithTopCounts(newCharts, oldCharts int) Option {
	return func(a *Analyzer) {
		if newCharts > 0 {
			a.topNew = newCharts
		}
		if oldCharts > 0 {
			a.topOld = oldCharts
		}
	}
}

// Analyzer computes RatingData from chart records.
type Analyzer struct {
	table   *rank.Table
	logger  logger.Logger
	removed songdb.RemovedSongs
	policy  NewChartPolicy
	topNew  int
	topOld  int
	formula *Formula
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		table:  rank.Default(),
		logger: logger.Nop(),
		policy: DefaultPolicy,
		topNew: DefaultTopNewCharts,
		topOld: DefaultTopOldCharts,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.formula = NewFormula(a.table, a.logger)
	return a
}

// Formula returns the formula the analyzer rates charts with.
func (a *Analyzer) Formula() *Formula { return a.formula }

// Policy returns the new chart policy.
func (a *Analyzer) Policy() NewChartPolicy { return a.policy }

// Analyze rates every record and picks the best charts of each pool.
//
// Records of removed songs are skipped, and so are records of unknown songs
// when ExcludeUnknownSongs is set. A level found in the database replaces
// the record's own. Equal ratings keep their input order.
func (a *Analyzer) Analyze(ctx context.Context, in Input) Data {
	start := time.Now()
	removed := a.removed.Set(in.Region, in.Version)

	var newCharts, oldCharts []chart.RecordWithRating
	for _, rec := range in.Records {
		if _, gone := removed[rec.SongName]; gone {
			metrics.RecordRecordSkipped("removed")
			continue
		}
		var (
			props songdb.Properties
			found bool
		)
		if in.DB != nil {
			props, found = in.DB.Get(ctx, rec.SongName, rec.Genre, rec.Type)
		}
		if in.ExcludeUnknownSongs && !found {
			metrics.RecordRecordSkipped("unknown")
			continue
		}
		if found {
			if lv, ok := props.Level(rec.Difficulty); ok && lv.Known() {
				rec.Level = lv
			}
		}

		rated := chart.RecordWithRating{
			Record: rec,
			Rating: a.formula.Rating(ctx, rec.Level.Value, rec.Achievement),
		}
		if a.policy.IsNew(rec.Type, props, found, in.Version) {
			newCharts = append(newCharts, rated)
		} else {
			oldCharts = append(oldCharts, rated)
		}
	}

	data := Data{
		Date:            in.Date,
		PlayerName:      in.PlayerName,
		NewChartRecords: newCharts,
		OldChartRecords: oldCharts,
	}
	data.NewTopChartsCount, data.NewChartsRating = selectTop(newCharts, a.topNew)
	data.OldTopChartsCount, data.OldChartsRating = selectTop(oldCharts, a.topOld)

	metrics.RecordRecordsAnalyzed("new", len(newCharts))
	metrics.RecordRecordsAnalyzed("old", len(oldCharts))
	metrics.RecordAnalysis(float64(time.Since(start).Microseconds()) / 1000)
	a.logger.Debug(ctx, "rating analyzed",
		logger.String("player", in.PlayerName),
		logger.String("version", in.Version.Name()),
		logger.Int("new_records", len(newCharts)),
		logger.Int("old_records", len(oldCharts)),
		logger.Int("rating", data.Total()),
	)
	return data
}

// selectTop sorts records by rating, marks the first n as targets and
// returns how many were marked and the sum of their floored ratings.
func selectTop(records []chart.RecordWithRating, n int) (count, sum int) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Rating > records[j].Rating
	})
	count = min(n, len(records))
	for i := 0; i < count; i++ {
		records[i].IsTarget = true
		sum += Floor(records[i].Rating)
	}
	return count, sum
}
