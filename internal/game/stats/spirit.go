package stats

// SpiritCap is the ceiling on maximum spirit.
const SpiritCap = 13

// MaxSpirit derives maximum spirit from the aura stat bonus:
// 10 + floor(auraBonus/10), clamped to [1, SpiritCap].
func MaxSpirit(auraBonus int) int {
	return max(1, min(SpiritCap, 10+FloorDiv(auraBonus, 10)))
}

// SpiritPercent returns the AS multiplier, in percent, for current/max spirit:
// >= 75% of max is 100, >= 50% is 80, >= 25% is 65, anything lower 50.
// A non-positive max is treated as full spirit.
func SpiritPercent(current, maxSpirit int) int {
	if maxSpirit <= 0 {
		return 100
	}
	c := max(0, current) * 100
	switch {
	case c >= maxSpirit*75:
		return 100
	case c >= maxSpirit*50:
		return 80
	case c >= maxSpirit*25:
		return 65
	default:
		return 50
	}
}
