package critical

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
)

// MaxRank is the highest critical rank.
const MaxRank = 9

// Entry is one row of a critical table.
type Entry struct {
	Rank   int `yaml:"rank"`
	Damage int `yaml:"damage"`
	// Message may contain the {target} placeholder.
	Message string   `yaml:"message"`
	Effects []Effect `yaml:"effects"`
	// Wounds overrides the rank-derived wound on the struck location.
	Wounds map[BodyPart]int `yaml:"wounds"`
}

// Has reports whether e carries an effect of kind k.
func (e *Entry) Has(k EffectKind) bool {
	for _, eff := range e.Effects {
		if eff.Kind == k {
			return true
		}
	}
	return false
}

// StunRounds returns the total stun rounds carried by e.
func (e *Entry) StunRounds() int {
	n := 0
	for _, eff := range e.Effects {
		if eff.Kind == EffectStun {
			n += eff.Rounds
		}
	}
	return n
}

// Render substitutes name for the {target} placeholder.
func (e *Entry) Render(name string) string {
	return strings.ReplaceAll(e.Message, "{target}", name)
}

// NeutralEntry synthesizes the entry used when a table has no row for a rank.
func NeutralEntry(part BodyPart, rank int) *Entry {
	return &Entry{
		Rank:    rank,
		Damage:  5 * rank,
		Message: fmt.Sprintf("A solid strike lands on {target}'s %s.", part.Display()),
	}
}

type tableKey struct {
	damageType armory.DamageType
	part       BodyPart
	rank       int
}

// Table indexes critical entries by damage type, body part and rank.
// A Table is read-only once loaded.
type Table struct {
	entries map[tableKey]*Entry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[tableKey]*Entry)}
}

// Add registers e for (dt, part, e.Rank).
//
// Postcondition: Returns an error for an out-of-range rank or a duplicate key.
func (t *Table) Add(dt armory.DamageType, part BodyPart, e *Entry) error {
	if e.Rank < 0 || e.Rank > MaxRank {
		return fmt.Errorf("critical %s/%s: rank %d out of range [0,%d]", dt, part, e.Rank, MaxRank)
	}
	k := tableKey{dt, part, e.Rank}
	if _, exists := t.entries[k]; exists {
		return fmt.Errorf("critical %s/%s rank %d already defined", dt, part, e.Rank)
	}
	t.entries[k] = e
	return nil
}

// Lookup returns the entry for (dt, part, rank).
func (t *Table) Lookup(dt armory.DamageType, part BodyPart, rank int) (*Entry, bool) {
	if t == nil {
		return nil, false
	}
	e, ok := t.entries[tableKey{dt, part, rank}]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

type tableFile struct {
	DamageType armory.DamageType   `yaml:"damage_type"`
	Locations  map[string][]*Entry `yaml:"locations"`
}

// LoadTable reads every *.yaml file in dir into one Table. Each file holds the
// entries for one damage type. A location key may be a body part or one of the
// sided aliases arm, leg, hand, eye; aliased rows expand to both sides, with
// {side} in the message and the alias in wound hints resolved per side.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns the populated Table or the first encountered error.
func LoadTable(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadTable: cannot read directory %q: %w", dir, err)
	}
	t := NewTable()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadTable: cannot read file %q: %w", path, err)
		}
		var f tableFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("LoadTable: cannot parse file %q: %w", path, err)
		}
		if err := t.addFile(&f); err != nil {
			return nil, fmt.Errorf("LoadTable: %q: %w", path, err)
		}
	}
	return t, nil
}

func (t *Table) addFile(f *tableFile) error {
	if _, err := armory.ParseDamageType(string(f.DamageType)); err != nil {
		return err
	}
	for loc, rows := range f.Locations {
		if sides, ok := sidedAliases[loc]; ok {
			for i, part := range sides {
				side := [2]string{"left", "right"}[i]
				for _, row := range rows {
					e, err := expand(row, loc, part, side)
					if err != nil {
						return err
					}
					if err := t.Add(f.DamageType, part, e); err != nil {
						return err
					}
				}
			}
			continue
		}
		part, err := ParseBodyPart(loc)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := validateWounds(row.Wounds); err != nil {
				return fmt.Errorf("%s/%s rank %d: %w", f.DamageType, part, row.Rank, err)
			}
			if err := t.Add(f.DamageType, part, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// expand produces the sided copy of an aliased row.
func expand(row *Entry, alias string, part BodyPart, side string) (*Entry, error) {
	e := &Entry{
		Rank:    row.Rank,
		Damage:  row.Damage,
		Message: strings.ReplaceAll(row.Message, "{side}", side),
		Effects: row.Effects,
	}
	if len(row.Wounds) > 0 {
		e.Wounds = make(map[BodyPart]int, len(row.Wounds))
		for k, v := range row.Wounds {
			if string(k) == alias {
				k = part
			}
			e.Wounds[k] = v
		}
	}
	if err := validateWounds(e.Wounds); err != nil {
		return nil, fmt.Errorf("%s rank %d: %w", part, row.Rank, err)
	}
	return e, nil
}

func validateWounds(w map[BodyPart]int) error {
	var errs []error
	for part, rank := range w {
		if Weight(part) == 0 {
			errs = append(errs, fmt.Errorf("wound hint on unknown location %q", part))
		}
		if rank < 1 || rank > 3 {
			errs = append(errs, fmt.Errorf("wound hint %s rank %d out of range [1,3]", part, rank))
		}
	}
	return errors.Join(errs...)
}

// Thresholds holds the rank at or above which a critical is fatal, per damage
// type and simplified location.
type Thresholds map[armory.DamageType]map[BodyPart]int

// Threshold returns the fatal rank for (dt, part), simplifying part first.
//
// Postcondition: ok is false when no threshold is defined.
func (th Thresholds) Threshold(dt armory.DamageType, part BodyPart) (rank int, ok bool) {
	row, found := th[dt]
	if !found {
		return 0, false
	}
	rank, ok = row[part.Simplified()]
	return rank, ok
}

// LoadThresholds reads a fatal threshold YAML file of the form:
//
//	slash:
//	  neck: 6
//	  eye: 8
//
// Postcondition: Returns the thresholds or an error naming the bad key.
func LoadThresholds(path string) (Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadThresholds: cannot read file %q: %w", path, err)
	}
	var th Thresholds
	if err := yaml.Unmarshal(data, &th); err != nil {
		return nil, fmt.Errorf("LoadThresholds: cannot parse file %q: %w", path, err)
	}
	for dt, row := range th {
		if _, err := armory.ParseDamageType(string(dt)); err != nil {
			return nil, fmt.Errorf("LoadThresholds: %q: %w", path, err)
		}
		for part, rank := range row {
			if part != Eye && Weight(part) == 0 {
				return nil, fmt.Errorf("LoadThresholds: %q: %s: unknown location %q", path, dt, part)
			}
			if rank < 0 || rank > MaxRank {
				return nil, fmt.Errorf("LoadThresholds: %q: %s/%s: rank %d out of range", path, dt, part, rank)
			}
		}
	}
	return th, nil
}
