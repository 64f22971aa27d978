package feed

import (
	"fmt"

	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/level"
	"github.com/okian/dxrating/internal/domain/songdb"
)

// Song is one song entry of a metadata feed. Levels use the signed
// convention: negative values are estimates, null or 0 means unknown.
// Fields left out are not changed when the entry updates an existing song.
type Song struct {
	Name            string                    `json:"name" yaml:"name"`
	Nickname        string                    `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Genre           string                    `json:"genre,omitempty" yaml:"genre,omitempty"`
	DX              int                       `json:"dx" yaml:"dx"`
	Debut           *int                      `json:"debut,omitempty" yaml:"debut,omitempty"`
	Lv              []*float64                `json:"lv,omitempty" yaml:"lv,omitempty"`
	Ico             string                    `json:"ico,omitempty" yaml:"ico,omitempty"`
	RegionOverrides map[string]RegionOverride `json:"regionOverrides,omitempty" yaml:"regionOverrides,omitempty"`
}

// RegionOverride is the feed form of songdb.RegionOverride.
type RegionOverride struct {
	Debut *int       `json:"debut,omitempty" yaml:"debut,omitempty"`
	Lv    []*float64 `json:"lv,omitempty" yaml:"lv,omitempty"`
}

// Update converts s into a database update.
func (s Song) Update() (songdb.Update, error) {
	if s.Name == "" {
		return songdb.Update{}, fmt.Errorf("%w: song without name", ErrLoadFeed)
	}
	u := songdb.Update{Name: s.Name, Ico: s.Ico, Type: chart.Standard}
	if s.DX != 0 {
		u.Type = chart.DX
	}

	genre := s.Genre
	if genre == "" {
		genre = songdb.GenreFromNickname(s.Nickname)
	}
	if genre != "" {
		u.Genre = &genre
	}
	if s.Debut != nil {
		debut := gamever.Version(*s.Debut)
		u.Debut = &debut
	}
	if s.Lv != nil {
		u.Lv = make([]level.Level, len(s.Lv))
		for i, v := range s.Lv {
			if v != nil {
				u.Lv[i] = level.FromSigned(*v)
			}
		}
	}
	if len(s.RegionOverrides) > 0 {
		u.RegionOverrides = make(map[gamever.Region]songdb.RegionOverride, len(s.RegionOverrides))
		for raw, o := range s.RegionOverrides {
			region, err := gamever.ParseRegion(raw)
			if err != nil {
				return songdb.Update{}, fmt.Errorf("%w: %s: %w", ErrLoadFeed, s.Name, err)
			}
			u.RegionOverrides[region] = o.override()
		}
	}
	return u, nil
}

func (o RegionOverride) override() songdb.RegionOverride {
	out := songdb.RegionOverride{Debut: -1}
	if o.Debut != nil {
		out.Debut = *o.Debut
	}
	out.Lv = make([]float64, len(o.Lv))
	for i, v := range o.Lv {
		if v != nil {
			out.Lv[i] = *v
		}
	}
	return out
}

// Removed is one entry of a removed-songs feed.
type Removed struct {
	Region  string   `json:"region" yaml:"region"`
	Version int      `json:"version" yaml:"version"`
	Names   []string `json:"names" yaml:"names"`
}

// Record is the feed form of a chart record.
type Record struct {
	SongName    string  `json:"songName" yaml:"songName"`
	Genre       string  `json:"genre" yaml:"genre"`
	ChartType   string  `json:"chartType" yaml:"chartType"`
	Difficulty  string  `json:"difficulty" yaml:"difficulty"`
	Achievement float64 `json:"achievement" yaml:"achievement"`
	Level       float64 `json:"level" yaml:"level"`
}

// Record converts r into a chart record.
func (r Record) Record() (chart.Record, error) {
	if r.SongName == "" {
		return chart.Record{}, fmt.Errorf("%w: missing song name", ErrInvalidRecord)
	}
	t, err := chart.ParseType(r.ChartType)
	if err != nil {
		return chart.Record{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, r.SongName, err)
	}
	d, err := chart.ParseDifficulty(r.Difficulty)
	if err != nil {
		return chart.Record{}, fmt.Errorf("%w: %s: %w", ErrInvalidRecord, r.SongName, err)
	}
	if r.Achievement < 0 || r.Achievement > 101 {
		return chart.Record{}, fmt.Errorf("%w: %s: achievement %.4f out of range", ErrInvalidRecord, r.SongName, r.Achievement)
	}
	return chart.Record{
		SongName:    r.SongName,
		Genre:       r.Genre,
		Type:        t,
		Difficulty:  d,
		Achievement: r.Achievement,
		Level:       level.FromSigned(r.Level),
	}, nil
}

// FromRecord converts a chart record back into its feed form.
func FromRecord(r chart.Record) Record {
	return Record{
		SongName:    r.SongName,
		Genre:       r.Genre,
		ChartType:   r.Type.String(),
		Difficulty:  r.Difficulty.String(),
		Achievement: r.Achievement,
		Level:       r.Level.Signed(),
	}
}
