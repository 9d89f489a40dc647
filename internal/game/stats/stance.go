package stats

import (
	"fmt"
	"strings"
)

// Stance is a combat posture, stored as its defensive percent (0-100).
type Stance int

const (
	StanceOffensive Stance = 0
	StanceAdvance   Stance = 20
	StanceForward   Stance = 40
	StanceNeutral   Stance = 60
	StanceGuarded   Stance = 80
	StanceDefensive Stance = 100
)

// DefenseBase is the flat DS every combatant starts from.
const DefenseBase = 25

var stanceNames = []struct {
	name   string
	stance Stance
}{
	{"offensive", StanceOffensive},
	{"advance", StanceAdvance},
	{"forward", StanceForward},
	{"neutral", StanceNeutral},
	{"guarded", StanceGuarded},
	{"defensive", StanceDefensive},
}

// Percent returns the defensive percent of s clamped to [0, 100].
func (s Stance) Percent() int {
	return max(0, min(100, int(s)))
}

// String returns the stance name, or "NN%" for off-step values.
func (s Stance) String() string {
	for _, n := range stanceNames {
		if n.stance == s {
			return n.name
		}
	}
	return fmt.Sprintf("%d%%", int(s))
}

// AttackMultiplier returns 1 - percent/200 (offensive 1.0, defensive 0.5).
func (s Stance) AttackMultiplier() float64 {
	return 1 - float64(s.Percent())/200
}

// DefenseBonus returns 25 + floor(percent/4).
func (s Stance) DefenseBonus() int {
	return DefenseBase + s.Percent()/4
}

// ParseStance resolves a stance name or unambiguous prefix ("def", "off").
//
// Postcondition: Returns the stance or an error listing the valid names.
func ParseStance(name string) (Stance, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, fmt.Errorf("stance name must not be empty")
	}
	var matches []Stance
	for _, n := range stanceNames {
		if n.name == name {
			return n.stance, nil
		}
		if strings.HasPrefix(n.name, name) {
			matches = append(matches, n.stance)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return 0, fmt.Errorf("unknown stance %q: expected one of offensive, advance, forward, neutral, guarded, defensive", name)
}
