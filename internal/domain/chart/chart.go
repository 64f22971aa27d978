// Package chart contains chart identity types and per-chart play records.
package chart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/dxrating/internal/domain/level"
)

// Type distinguishes the STANDARD and DX variants of a song's charts.
type Type int

// Chart types.
const (
	Standard Type = iota
	DX
)

func (t Type) String() string {
	if t == DX {
		return "DX"
	}
	return "STANDARD"
}

// ParseType accepts "DX", "STANDARD", "STD" and "SD", case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DX":
		return DX, nil
	case "STANDARD", "STD", "SD", "":
		return Standard, nil
	}
	return Standard, fmt.Errorf("unknown chart type %q", s)
}

// MarshalJSON renders the type by name.
func (t Type) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// UnmarshalJSON accepts either the name or the numeric value.
func (t *Type) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if n != int(Standard) && n != int(DX) {
			return fmt.Errorf("unknown chart type %d", n)
		}
		*t = Type(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Difficulty is the chart difficulty slot. The numeric value indexes the
// per-song level list.
type Difficulty int

// Difficulties.
const (
	Basic Difficulty = iota
	Advanced
	Expert
	Master
	ReMaster
	Utage
)

var difficultyNames = [...]string{"BASIC", "ADVANCED", "EXPERT", "MASTER", "ReMASTER", "UTAGE"}

func (d Difficulty) String() string {
	if d < 0 || int(d) >= len(difficultyNames) {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

// ParseDifficulty accepts difficulty names case-insensitively, plus
// "RE:MASTER" and "REMASTER".
func ParseDifficulty(s string) (Difficulty, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	u = strings.ReplaceAll(u, ":", "")
	for i, name := range difficultyNames {
		if u == strings.ToUpper(name) {
			return Difficulty(i), nil
		}
	}
	return Basic, fmt.Errorf("unknown difficulty %q", s)
}

// MarshalJSON renders the difficulty by name.
func (d Difficulty) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

// UnmarshalJSON accepts either the name or the numeric value.
func (d *Difficulty) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		if n < 0 || n >= len(difficultyNames) {
			return fmt.Errorf("unknown difficulty %d", n)
		}
		*d = Difficulty(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Record is one player result on one chart.
type Record struct {
	SongName    string      `json:"songName"`
	Genre       string      `json:"genre"`
	Type        Type        `json:"chartType"`
	Difficulty  Difficulty  `json:"difficulty"`
	Achievement float64     `json:"achievement"`
	Level       level.Level `json:"level"`
}

// RecordWithRating is a Record with its computed rating.
type RecordWithRating struct {
	Record
	Rating   float64 `json:"rating"`
	IsTarget bool    `json:"isTarget"`
}
