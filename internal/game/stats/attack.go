package stats

// AttackInputs gathers the terms of a player's Attack Strength.
type AttackInputs struct {
	StrengthBonus int
	WeaponRanks   int
	ManeuverRanks int
	Stance        Stance
	Spirit        int
	MaxSpirit     int
}

// Base returns strengthBonus + SkillBonus(weaponRanks) + floor(maneuverRanks/2),
// the Attack Strength before stance and spirit scaling.
func (in AttackInputs) Base() int {
	return in.StrengthBonus + SkillBonus(in.WeaponRanks) + max(0, in.ManeuverRanks)/2
}

// AttackStrength returns floor(Base × (1 - stance/200) × spiritMultiplier).
// The product is evaluated in integers so that e.g. 125 × 0.70 floors to 87
// without float drift.
func AttackStrength(in AttackInputs) int {
	stanceNum := 200 - in.Stance.Percent()
	spirit := SpiritPercent(in.Spirit, in.MaxSpirit)
	return FloorDiv(in.Base()*stanceNum*spirit, 200*100)
}
