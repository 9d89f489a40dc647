package armory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// ShieldSize is the size class of a shield.
type ShieldSize string

const (
	ShieldSmall  ShieldSize = "small"
	ShieldMedium ShieldSize = "medium"
	ShieldLarge  ShieldSize = "large"
	ShieldTower  ShieldSize = "tower"
)

// Tier returns 1..4 for small..tower, or 0 for an unknown size.
func (s ShieldSize) Tier() int {
	switch s {
	case ShieldSmall:
		return 1
	case ShieldMedium:
		return 2
	case ShieldLarge:
		return 3
	case ShieldTower:
		return 4
	}
	return 0
}

// ShieldProfile is the immutable profile of a shield base.
type ShieldProfile struct {
	ID   string     `yaml:"id"`
	Name string     `yaml:"name"`
	Size ShieldSize `yaml:"size"`
}

// Bonus returns the DS contributed by the shield for the given shield-use ranks:
// 5 × tier plus floor(SkillBonus(ranks) × tier / 10).
// A nil shield contributes nothing.
func (s *ShieldProfile) Bonus(shieldRanks int) int {
	if s == nil {
		return 0
	}
	tier := s.Size.Tier()
	return 5*tier + stats.SkillBonus(shieldRanks)*tier/10
}

// Validate checks that the ShieldProfile satisfies its invariants.
//
// Precondition: s is non-nil.
// Postcondition: Returns nil iff all fields are valid.
func (s *ShieldProfile) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if s.Size.Tier() == 0 {
		errs = append(errs, fmt.Errorf("size must be one of small, medium, large, tower; got %q", s.Size))
	}
	if len(errs) > 0 {
		return fmt.Errorf("shield %q: %w", s.ID, errors.Join(errs...))
	}
	return nil
}

// LoadShields reads all *.yaml files from dir as ShieldProfiles.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns all valid profiles or the first encountered error.
func LoadShields(dir string) ([]*ShieldProfile, error) {
	return loadDir(dir, "LoadShields", func(s *ShieldProfile) error { return s.Validate() })
}
