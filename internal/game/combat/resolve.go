package combat

import (
	"math"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// HitThreshold is the end roll an attack must exceed to land.
const HitThreshold = 100

// Percentile draws a d100.
type Percentile interface {
	D100() int
}

// AttackResult is the pure outcome of one attack exchange.
type AttackResult struct {
	Hit          bool
	RawDamage    int
	AS           int
	DS           int
	AvD          int
	DamageFactor float64
	Roll         int
	EndRoll      int
	ArmorGroup   int
	Weapon       *armory.WeaponProfile
}

// AttackStrength returns c's AS with weapon. Static profiles return their
// fixed value; players derive it from strength, weapon skill, combat
// maneuvers, stance and spirit.
func AttackStrength(c *Combatant, weapon *armory.WeaponProfile, races *stats.RaceTable) int {
	if c.Static != nil {
		return c.Static.AttackStrength
	}
	if weapon == nil {
		weapon = armory.Unarmed
	}
	return stats.AttackStrength(stats.AttackInputs{
		StrengthBonus: races.StatBonus(c.Stat(stats.Strength), c.Race, stats.Strength),
		WeaponRanks:   c.Ranks(weapon.Skill),
		ManeuverRanks: c.Ranks(stats.CombatManeuvers),
		Stance:        c.Stance,
		Spirit:        c.Spirit,
		MaxSpirit:     c.MaxSpirit,
	})
}

// DefenseStrength returns c's DS: 25 + floor(stance/4) plus any shield bonus,
// or the fixed value of a static profile.
func DefenseStrength(c *Combatant) int {
	if c.Static != nil {
		return c.Static.DefenseStrength
	}
	return c.Stance.DefenseBonus() + c.Shield().Bonus(c.Ranks(stats.ShieldUse))
}

// ResolveAttack rolls one exchange of attacker, using weapon (nil for
// unarmed), against defender. It reads both combatants and changes neither.
//
// Precondition: attacker, defender and roll must be non-nil; both combatants
// must be locked by the caller or otherwise unshared.
// Postcondition: Hit iff EndRoll > HitThreshold; RawDamage is 0 on a miss.
func ResolveAttack(attacker *Combatant, weapon *armory.WeaponProfile, defender *Combatant, races *stats.RaceTable, roll Percentile) AttackResult {
	if weapon == nil {
		weapon = armory.Unarmed
	}
	group := defender.Armor().Group
	res := armory.Resolve(weapon, group, attacker.Stat(stats.Dexterity))

	out := AttackResult{
		AS:           AttackStrength(attacker, weapon, races),
		DS:           DefenseStrength(defender),
		AvD:          res.AvD,
		DamageFactor: res.DamageFactor,
		ArmorGroup:   group,
		Weapon:       weapon,
	}
	out.Roll = roll.D100()
	out.EndRoll = out.AS - out.DS + out.AvD + out.Roll
	out.Hit = out.EndRoll > HitThreshold
	if out.Hit {
		out.RawDamage = RawDamage(out.EndRoll, out.DamageFactor)
	}
	return out
}

// RawDamage returns floor((endRoll - 100) × damageFactor), or 0 when the
// roll did not exceed the threshold.
func RawDamage(endRoll int, damageFactor float64) int {
	margin := endRoll - HitThreshold
	if margin <= 0 || damageFactor <= 0 {
		return 0
	}
	// The epsilon keeps exact products such as 20 × 0.45 from flooring to 8.
	return int(math.Floor(float64(margin)*damageFactor + 1e-9))
}
