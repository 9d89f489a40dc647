package npc

import (
	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// SpecialAttack is a natural attack (bite, claw, sting) with its own
// per-armor-group damage factor and AvD table.
type SpecialAttack struct {
	Name          string            `yaml:"name"`
	DamageType    armory.DamageType `yaml:"damage_type"`
	DamageFactors map[int]float64   `yaml:"damage_factors"`
	AvD           map[int]int       `yaml:"avd"`
	// Roundtime is in whole seconds.
	Roundtime int `yaml:"roundtime"`
	Weighting int `yaml:"weighting"`
}

// Profile expresses the attack as a weapon profile so it resolves exactly
// like a wielded weapon.
func (a SpecialAttack) Profile() *armory.WeaponProfile {
	return &armory.WeaponProfile{
		ID:            a.Name,
		Name:          a.Name,
		Skill:         stats.Brawling,
		DamageTypes:   []armory.DamageType{a.DamageType},
		DamageFactors: a.DamageFactors,
		AvD:           a.AvD,
		BaseRoundtime: a.Roundtime,
		Weighting:     a.Weighting,
	}
}

// AttackProfile picks the weapon profile an NPC attacks with: its wielded
// weapon when the template names one, else one of its special attacks drawn
// uniformly from src, else the generic unarmed profile.
//
// Precondition: tmpl and reg must be non-nil; src may be nil only when the
// template has at most one special attack.
// Postcondition: Never returns nil.
func AttackProfile(tmpl *Template, reg *armory.Registry, src dice.Source) *armory.WeaponProfile {
	switch {
	case tmpl.Weapon != "":
		return reg.Weapon(tmpl.Weapon)
	case len(tmpl.Attacks) == 1:
		return tmpl.Attacks[0].Profile()
	case len(tmpl.Attacks) > 1:
		return tmpl.Attacks[src.Intn(len(tmpl.Attacks))].Profile()
	default:
		return armory.Unarmed
	}
}
