// Package armory provides the weapon, armor and shield reference profiles
// consumed by the combat engine, their YAML loaders, and the
// weapon-versus-armor resolution table.
package armory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// DamageType is the kind of harm a weapon inflicts. It selects the critical table.
type DamageType string

const (
	Slash     DamageType = "slash"
	Puncture  DamageType = "puncture"
	Crush     DamageType = "crush"
	Unbalance DamageType = "unbalance"
)

var validDamageTypes = map[DamageType]struct{}{
	Slash: {}, Puncture: {}, Crush: {}, Unbalance: {},
}

// ParseDamageType validates s as a DamageType.
//
// Postcondition: Returns the DamageType or an error for unknown names.
func ParseDamageType(s string) (DamageType, error) {
	dt := DamageType(s)
	if _, ok := validDamageTypes[dt]; !ok {
		return "", fmt.Errorf("unknown damage type %q", s)
	}
	return dt, nil
}

// WeaponProfile is the immutable combat profile of a weapon base.
type WeaponProfile struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Skill       stats.Skill  `yaml:"skill"`
	DamageTypes []DamageType `yaml:"damage_types"`
	// DamageFactors and AvD are keyed by armor group (1..20).
	DamageFactors map[int]float64 `yaml:"damage_factors"`
	AvD           map[int]int     `yaml:"avd"`
	// BaseRoundtime is in whole seconds.
	BaseRoundtime int  `yaml:"base_roundtime"`
	TwoHanded     bool `yaml:"two_handed"`
	// Weighting is added to raw damage before the critical rank is computed.
	Weighting int `yaml:"weighting"`
}

// Unarmed is the profile used when nothing is wielded.
var Unarmed = &WeaponProfile{
	ID:            "unarmed",
	Name:          "bare hands",
	Skill:         stats.Brawling,
	DamageTypes:   []DamageType{Crush},
	DamageFactors: map[int]float64{1: 0.10},
	AvD:           map[int]int{1: 25},
	BaseRoundtime: 2,
}

// UnknownWeapon is the conservative profile used when a wielded item has no
// registered weapon base.
var UnknownWeapon = &WeaponProfile{
	ID:            "unknown",
	Name:          "improvised weapon",
	Skill:         stats.EdgedWeapons,
	DamageTypes:   []DamageType{Slash},
	DamageFactors: map[int]float64{1: 0.45},
	AvD:           map[int]int{1: 30},
	BaseRoundtime: 5,
}

// PrimaryDamageType returns the first listed damage type, or Crush when none is listed.
func (w *WeaponProfile) PrimaryDamageType() DamageType {
	if len(w.DamageTypes) == 0 {
		return Crush
	}
	return w.DamageTypes[0]
}

// Roundtime returns BaseRoundtime as a duration.
func (w *WeaponProfile) Roundtime() time.Duration {
	return time.Duration(w.BaseRoundtime) * time.Second
}

// Validate checks that the WeaponProfile satisfies its invariants.
//
// Precondition: w is non-nil.
// Postcondition: Returns nil iff all fields are valid.
func (w *WeaponProfile) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if w.Skill == "" {
		errs = append(errs, errors.New("skill must not be empty"))
	}
	if len(w.DamageTypes) == 0 {
		errs = append(errs, errors.New("damage_types must not be empty"))
	}
	for _, dt := range w.DamageTypes {
		if _, err := ParseDamageType(string(dt)); err != nil {
			errs = append(errs, err)
		}
	}
	if len(w.DamageFactors) == 0 {
		errs = append(errs, errors.New("damage_factors must not be empty"))
	}
	for g, df := range w.DamageFactors {
		if g < MinArmorGroup || g > MaxArmorGroup {
			errs = append(errs, fmt.Errorf("damage_factors: armor group %d out of range", g))
		}
		if df < 0 {
			errs = append(errs, fmt.Errorf("damage_factors: group %d factor must be >= 0", g))
		}
	}
	if len(w.AvD) == 0 {
		errs = append(errs, errors.New("avd must not be empty"))
	}
	for g := range w.AvD {
		if g < MinArmorGroup || g > MaxArmorGroup {
			errs = append(errs, fmt.Errorf("avd: armor group %d out of range", g))
		}
	}
	if w.BaseRoundtime < 0 {
		errs = append(errs, errors.New("base_roundtime must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q: %w", w.ID, errors.Join(errs...))
	}
	return nil
}

// LoadWeapons reads all *.yaml files from dir, parses each as a WeaponProfile,
// validates it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns all valid profiles or the first encountered error.
func LoadWeapons(dir string) ([]*WeaponProfile, error) {
	return loadDir(dir, "LoadWeapons", func(w *WeaponProfile) error { return w.Validate() })
}

// loadDir decodes every *.yaml file in dir into a T and validates it.
func loadDir[T any](dir, op string, validate func(*T) error) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read directory %q: %w", op, dir, err)
	}
	var out []*T
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot read file %q: %w", op, path, err)
		}
		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%s: cannot parse file %q: %w", op, path, err)
		}
		if err := validate(&v); err != nil {
			return nil, fmt.Errorf("%s: invalid entry in %q: %w", op, path, err)
		}
		out = append(out, &v)
	}
	return out, nil
}
