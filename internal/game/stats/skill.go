package stats

// skillBands lists the per-rank value of each band of ten ranks.
// Ranks beyond the last band are worth 1 each.
var skillBands = []int{5, 4, 3, 2}

// SkillBonus converts trained ranks into a bonus with diminishing returns:
// ranks 1-10 are worth 5 each, 11-20 worth 4, 21-30 worth 3, 31-40 worth 2,
// and every rank past 40 worth 1.
//
// Postcondition: Returns 0 for ranks <= 0; SkillBonus is non-decreasing.
func SkillBonus(ranks int) int {
	if ranks <= 0 {
		return 0
	}
	bonus := 0
	for _, per := range skillBands {
		n := min(ranks, 10)
		bonus += n * per
		ranks -= n
		if ranks == 0 {
			return bonus
		}
	}
	return bonus + ranks
}
