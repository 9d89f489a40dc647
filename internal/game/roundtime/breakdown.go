package roundtime

import "time"

const (
	minTwoHanded      = 500 * time.Millisecond
	perEncumbranceTen = 500 * time.Millisecond
	perStunRound      = 5 * time.Second
	ranksPerSecond    = 20
)

// Inputs are the terms of one action's roundtime.
type Inputs struct {
	WeaponBase     time.Duration
	TwoHanded      bool
	TwoHandedRanks int
	ArmorPenalty   time.Duration
	ArmorRanks     int
	// EncumbrancePercent is carried load as a percent of capacity.
	EncumbrancePercent int
	StunRounds         int
}

// Breakdown is the roundtime of one action, by source.
type Breakdown struct {
	Weapon      time.Duration
	Armor       time.Duration
	Encumbrance time.Duration
	Stun        time.Duration
}

// Total sums every source.
func (b Breakdown) Total() time.Duration {
	return b.Weapon + b.Armor + b.Encumbrance + b.Stun
}

// Compute evaluates every roundtime source in.
// Two-handed weapons lose 1s per 20 two-handed ranks, floored at 0.5s; armor
// penalty loses 1s per 20 armor ranks, floored at 0; encumbrance costs 0.5s per
// full 10%; stun costs 5s per round.
//
// Postcondition: Every field of the result is >= 0.
func Compute(in Inputs) Breakdown {
	weapon := max(0, in.WeaponBase)
	if in.TwoHanded {
		reduced := weapon - time.Duration(max(0, in.TwoHandedRanks)/ranksPerSecond)*time.Second
		weapon = max(min(weapon, minTwoHanded), reduced)
	}
	armor := max(0, in.ArmorPenalty-time.Duration(max(0, in.ArmorRanks)/ranksPerSecond)*time.Second)
	return Breakdown{
		Weapon:      weapon,
		Armor:       armor,
		Encumbrance: time.Duration(max(0, in.EncumbrancePercent)/10) * perEncumbranceTen,
		Stun:        time.Duration(max(0, in.StunRounds)) * perStunRound,
	}
}
