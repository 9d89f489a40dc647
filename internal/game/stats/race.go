package stats

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRace is the neutral row used for unknown races.
const DefaultRace = "human"

// RaceTable maps race name to per-stat modifiers.
// A RaceTable is immutable after loading and safe for concurrent reads.
type RaceTable struct {
	rows map[string]map[Stat]int
}

var builtinHuman = map[Stat]int{Strength: 5}

// NewRaceTable builds a table from rows. A "human" row is added when absent.
func NewRaceTable(rows map[string]map[Stat]int) *RaceTable {
	t := &RaceTable{rows: make(map[string]map[Stat]int, len(rows)+1)}
	for name, mods := range rows {
		cp := make(map[Stat]int, len(mods))
		for k, v := range mods {
			cp[k] = v
		}
		t.rows[strings.ToLower(name)] = cp
	}
	if _, ok := t.rows[DefaultRace]; !ok {
		t.rows[DefaultRace] = builtinHuman
	}
	return t
}

// Modifier returns the race modifier for stat. Unknown races use the human row.
// A nil table behaves as a table holding only the built-in human row.
func (t *RaceTable) Modifier(race string, stat Stat) int {
	if t == nil {
		return builtinHuman[stat]
	}
	row, ok := t.rows[strings.ToLower(race)]
	if !ok {
		row = t.rows[DefaultRace]
	}
	return row[stat]
}

// Known reports whether race has its own row.
func (t *RaceTable) Known(race string) bool {
	if t == nil {
		return strings.EqualFold(race, DefaultRace)
	}
	_, ok := t.rows[strings.ToLower(race)]
	return ok
}

// StatBonus computes floor((raw-50)/2) plus the racial modifier.
func (t *RaceTable) StatBonus(raw int, race string, stat Stat) int {
	return FloorDiv(raw-50, 2) + t.Modifier(race, stat)
}

type raceFile struct {
	Races map[string]map[Stat]int `yaml:"races"`
}

// LoadRaceTable reads a races YAML file of the form:
//
//	races:
//	  human: {strength: 5}
//	  dwarf: {strength: 10, constitution: 15, agility: -5}
//
// Postcondition: Returns a table or an error naming the file and the unknown stat.
func LoadRaceTable(path string) (*RaceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading race table %q: %w", path, err)
	}
	var f raceFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing race table %q: %w", path, err)
	}
	valid := make(map[Stat]bool, len(AllStats))
	for _, s := range AllStats {
		valid[s] = true
	}
	for race, mods := range f.Races {
		for stat := range mods {
			if !valid[stat] {
				return nil, fmt.Errorf("race table %q: race %q: unknown stat %q", path, race, stat)
			}
		}
	}
	return NewRaceTable(f.Races), nil
}
