// Package stats turns raw attributes and trained skill ranks into combat
// bonuses: stat bonuses with racial modifiers, banded skill bonuses, stance
// and spirit multipliers, and the composed Attack Strength.
package stats

// Stat names a raw character attribute.
type Stat string

const (
	Strength     Stat = "strength"
	Constitution Stat = "constitution"
	Dexterity    Stat = "dexterity"
	Agility      Stat = "agility"
	Discipline   Stat = "discipline"
	Aura         Stat = "aura"
	Logic        Stat = "logic"
	Intuition    Stat = "intuition"
	Wisdom       Stat = "wisdom"
	Influence    Stat = "influence"
)

// AllStats lists every attribute in display order.
var AllStats = []Stat{
	Strength, Constitution, Dexterity, Agility, Discipline,
	Aura, Logic, Intuition, Wisdom, Influence,
}

// Skill names a trainable skill.
type Skill string

const (
	EdgedWeapons     Skill = "edged_weapons"
	BluntWeapons     Skill = "blunt_weapons"
	TwoHandedWeapons Skill = "two_handed_weapons"
	PolearmWeapons   Skill = "polearm_weapons"
	Brawling         Skill = "brawling"
	CombatManeuvers  Skill = "combat_maneuvers"
	ShieldUse        Skill = "shield_use"
	ArmorUse         Skill = "armor_use"
	FirstAid         Skill = "first_aid"
)

// Attribute is a raw attribute value: a trained base plus a temporary delta
// (buffs, injuries). Every attribute in the engine uses this one shape.
type Attribute struct {
	Base  int `yaml:"base"`
	Delta int `yaml:"delta"`
}

// Value returns the effective attribute value.
func (a Attribute) Value() int { return a.Base + a.Delta }

// Flat returns an Attribute with the given base and no delta.
func Flat(v int) Attribute { return Attribute{Base: v} }

// FloorDiv divides a by b rounding toward negative infinity.
//
// Precondition: b != 0.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
