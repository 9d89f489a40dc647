package armory

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinArmorGroup = 1
	MaxArmorGroup = 20
)

// ArmorProfile is the immutable combat profile of a worn torso armor base.
type ArmorProfile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Group is the armor group code, 1..20.
	Group int `yaml:"group"`
	// Padding is subtracted from raw damage before the critical rank is computed.
	Padding int `yaml:"padding"`
	// RoundtimePenalty is in whole seconds.
	RoundtimePenalty int `yaml:"roundtime_penalty"`
}

// Unarmored is the profile used when nothing is worn.
var Unarmored = &ArmorProfile{ID: "none", Name: "clothing", Group: MinArmorGroup}

// Penalty returns RoundtimePenalty as a duration.
func (a *ArmorProfile) Penalty() time.Duration {
	return time.Duration(a.RoundtimePenalty) * time.Second
}

// Category returns the broad armor category for the profile's group.
func (a *ArmorProfile) Category() string {
	return GroupCategory(a.Group)
}

// GroupCategory names the bucket an armor group falls in.
func GroupCategory(group int) string {
	switch {
	case group >= 17:
		return "plate"
	case group >= 13:
		return "chain"
	case group >= 9:
		return "scale"
	case group >= 5:
		return "leather"
	default:
		return "cloth"
	}
}

// Validate checks that the ArmorProfile satisfies its invariants.
//
// Precondition: a is non-nil.
// Postcondition: Returns nil iff all fields are valid.
func (a *ArmorProfile) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if a.Group < MinArmorGroup || a.Group > MaxArmorGroup {
		errs = append(errs, fmt.Errorf("group must be in [%d,%d], got %d", MinArmorGroup, MaxArmorGroup, a.Group))
	}
	if a.Padding < 0 {
		errs = append(errs, errors.New("padding must be >= 0"))
	}
	if a.RoundtimePenalty < 0 {
		errs = append(errs, errors.New("roundtime_penalty must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("armor %q: %w", a.ID, errors.Join(errs...))
	}
	return nil
}

// LoadArmors reads all *.yaml files from dir as ArmorProfiles.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns all valid profiles or the first encountered error.
func LoadArmors(dir string) ([]*ArmorProfile, error) {
	return loadDir(dir, "LoadArmors", func(a *ArmorProfile) error { return a.Validate() })
}
