package rating

import (
	"sort"

	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/level"
	"github.com/okian/dxrating/internal/domain/rank"
)

// DistributionRow counts records of one official level per rank title.
type DistributionRow struct {
	Level  string         `json:"level"`
	Counts map[string]int `json:"counts"`
}

// Distribution is a level by rank histogram.
type Distribution struct {
	Ranks []string          `json:"ranks"`
	Rows  []DistributionRow `json:"rows"`
}

// Distribute groups records by official level label, highest first, and
// counts rank titles within each level. Ranks lists only the titles that
// occur, in table order.
func Distribute(table *rank.Table, records []chart.RecordWithRating, ver gamever.Version) Distribution {
	if table == nil {
		table = rank.Default()
	}
	rowIdx := make(map[string]int)
	var rows []DistributionRow
	seen := make(map[string]bool)

	ordered := append([]chart.RecordWithRating(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Level.Value > ordered[j].Level.Value
	})

	for _, r := range ordered {
		label := level.Official(ver, r.Level.Value)
		i, ok := rowIdx[label]
		if !ok {
			i = len(rows)
			rowIdx[label] = i
			rows = append(rows, DistributionRow{Level: label, Counts: make(map[string]int)})
		}
		title := table.Title(r.Achievement)
		rows[i].Counts[title]++
		seen[title] = true
	}

	var ranks []string
	for _, t := range table.Tiers() {
		if seen[t.Title] {
			ranks = append(ranks, t.Title)
		}
	}
	return Distribution{Ranks: ranks, Rows: rows}
}
