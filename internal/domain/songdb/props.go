package songdb

import (
	"github.com/okian/dxrating/internal/domain/chart"
	"github.com/okian/dxrating/internal/domain/gamever"
	"github.com/okian/dxrating/internal/domain/level"
)

// MinLevelSlots is the number of difficulty slots every song must carry
// (BASIC through MASTER). ReMASTER is optional.
const MinLevelSlots = 4

// BasicProps identifies a song's chart set.
type BasicProps struct {
	Name  string     `json:"name"`
	Genre string     `json:"genre"`
	Type  chart.Type `json:"dx"`
	Ico   string     `json:"ico,omitempty"`
}

// RegionOverride replaces debut and levels for one region.
// A negative Debut keeps the song's own debut; only positive Lv entries apply.
type RegionOverride struct {
	Debut int       `json:"debut"`
	Lv    []float64 `json:"lv"`
}

// Properties is everything known about one song's charts of one type.
type Properties struct {
	BasicProps
	Debut           gamever.Version                   `json:"debut"`
	Lv              []level.Level                     `json:"lv"`
	RegionOverrides map[gamever.Region]RegionOverride `json:"regionOverrides,omitempty"`
}

// Level returns the level of difficulty slot d.
func (p Properties) Level(d chart.Difficulty) (level.Level, bool) {
	if d < 0 || int(d) >= len(p.Lv) {
		return level.Level{}, false
	}
	return p.Lv[d], true
}

// AsUpdate returns p as an update that sets every field.
func (p Properties) AsUpdate() Update {
	genre := p.Genre
	debut := p.Debut
	return Update{
		Name:            p.Name,
		Type:            p.Type,
		Genre:           &genre,
		Debut:           &debut,
		Lv:              p.Lv,
		Ico:             p.Ico,
		RegionOverrides: p.RegionOverrides,
	}
}

func (p Properties) clone() Properties {
	c := p
	c.Lv = append([]level.Level(nil), p.Lv...)
	if p.RegionOverrides != nil {
		c.RegionOverrides = make(map[gamever.Region]RegionOverride, len(p.RegionOverrides))
		for r, o := range p.RegionOverrides {
			o.Lv = append([]float64(nil), o.Lv...)
			c.RegionOverrides[r] = o
		}
	}
	return c
}

// Update is a partial Properties. Nil pointers and empty values leave the
// existing data untouched. Lv entries replace existing slots only when they
// are confirmed and positive.
type Update struct {
	Name            string
	Type            chart.Type
	Genre           *string
	Debut           *gamever.Version
	Lv              []level.Level
	Ico             string
	RegionOverrides map[gamever.Region]RegionOverride
}

// complete reports whether u carries enough data to create a new song.
func (u Update) complete() bool {
	return u.Name != "" && u.Debut != nil && len(u.Lv) >= MinLevelSlots
}

func (u Update) properties() Properties {
	p := Properties{
		BasicProps: BasicProps{Name: u.Name, Type: u.Type, Ico: u.Ico},
		Lv:         u.Lv,
	}
	if u.Genre != nil {
		p.Genre = *u.Genre
	}
	if u.Debut != nil {
		p.Debut = *u.Debut
	}
	p.RegionOverrides = u.RegionOverrides
	return p.clone()
}
