// Package npc provides NPC combat templates, live instances, their room index,
// target selection, respawning and loot.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Race        string `yaml:"race"`
	MaxHealth   int    `yaml:"max_health"`
	// AttackStrength and DefenseStrength are used as-is in place of derived values.
	AttackStrength  int  `yaml:"attack_strength"`
	DefenseStrength int  `yaml:"defense_strength"`
	Aggressive      bool `yaml:"aggressive"`
	// Weapon is an armory weapon ID. When set it takes precedence over Attacks.
	Weapon string `yaml:"weapon"`
	// Attacks are natural attacks used when no weapon is wielded.
	Attacks []SpecialAttack `yaml:"attacks"`
	// Armor is an armory armor ID. Empty means unarmored.
	Armor      string              `yaml:"armor"`
	Attributes map[stats.Stat]int  `yaml:"attributes"`
	Skills     map[stats.Skill]int `yaml:"skills"`
	Stance     string              `yaml:"stance"`
	// RespawnDelay is the duration string (e.g. "5m", "30s") before a dead NPC
	// of this template respawns. Empty means the NPC does not respawn.
	RespawnDelay string     `yaml:"respawn_delay"`
	Loot         *LootTable `yaml:"loot"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field is valid; otherwise the error
// lists every violation.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	var errs []error
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if t.MaxHealth < 1 {
		errs = append(errs, errors.New("max_health must be >= 1"))
	}
	if t.AttackStrength < 0 {
		errs = append(errs, errors.New("attack_strength must be >= 0"))
	}
	if t.DefenseStrength < 0 {
		errs = append(errs, errors.New("defense_strength must be >= 0"))
	}
	for i := range t.Attacks {
		if err := t.Attacks[i].Profile().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("attacks[%d]: %w", i, err))
		}
	}
	if t.Stance != "" {
		if _, err := stats.ParseStance(t.Stance); err != nil {
			errs = append(errs, err)
		}
	}
	if t.RespawnDelay != "" {
		if _, err := time.ParseDuration(t.RespawnDelay); err != nil {
			errs = append(errs, fmt.Errorf("respawn_delay %q is not a valid duration: %w", t.RespawnDelay, err))
		}
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("npc template %q: %w", t.ID, errors.Join(errs...))
	}
	return nil
}

// Respawn returns the parsed respawn delay, or 0 when the NPC does not respawn.
func (t *Template) Respawn() time.Duration {
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
