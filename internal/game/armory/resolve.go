package armory

import "github.com/cory-johannsen/combatcore/internal/game/stats"

// tierBoundaries are the armor groups a missing bucket snaps down to.
var tierBoundaries = []int{20, 17, 13, 9, 5, 1}

// Resolution is the weapon-versus-armor lookup result.
type Resolution struct {
	DamageFactor float64
	// AvD includes the dexterity adjustment.
	AvD int
	// Bucket is the armor group the damage factor was read from.
	Bucket int
}

// Resolve looks up the damage factor and AvD of weapon against armorGroup and
// adds floor((dexterity-50)/10) to the AvD. A nil weapon resolves as Unarmed.
//
// Postcondition: Never fails; missing buckets snap to the nearest tier boundary
// at or below armorGroup, else to the lowest defined bucket.
func Resolve(weapon *WeaponProfile, armorGroup, dexterity int) Resolution {
	if weapon == nil {
		weapon = Unarmed
	}
	bucket, ok := snap(weapon.DamageFactors, armorGroup)
	if !ok {
		weapon = UnknownWeapon
		bucket, _ = snap(weapon.DamageFactors, armorGroup)
	}
	avd := 0
	if g, ok := snap(weapon.AvD, armorGroup); ok {
		avd = weapon.AvD[g]
	}
	return Resolution{
		DamageFactor: weapon.DamageFactors[bucket],
		AvD:          avd + stats.FloorDiv(dexterity-50, 10),
		Bucket:       bucket,
	}
}

// snap picks the key of table to read for group.
func snap[V any](table map[int]V, group int) (int, bool) {
	if len(table) == 0 {
		return 0, false
	}
	if _, ok := table[group]; ok {
		return group, true
	}
	for _, b := range tierBoundaries {
		if b > group {
			continue
		}
		if _, ok := table[b]; ok {
			return b, true
		}
	}
	lowest := 0
	for g := range table {
		if lowest == 0 || g < lowest {
			lowest = g
		}
	}
	return lowest, true
}
