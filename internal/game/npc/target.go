package npc

import (
	"sort"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
)

// Engagements reports whether a combatant is currently engaged.
type Engagements interface {
	InCombat(id string) bool
}

// SelectTarget picks the player an aggressive NPC engages: the living player
// with the lowest ID among candidates that shares the NPC's room. An NPC
// that is not aggressive, is dead, or is already engaged picks nobody.
//
// Precondition: inst and eng must be non-nil.
// Postcondition: Returns nil when no target qualifies.
func SelectTarget(inst *Instance, candidates []*combat.Combatant, eng Engagements) *combat.Combatant {
	if !inst.Template.Aggressive || inst.IsDead() || eng.InCombat(inst.ID) {
		return nil
	}
	room := inst.RoomID()

	sorted := append([]*combat.Combatant(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, c := range sorted {
		if c.Kind != combat.KindPlayer {
			continue
		}
		c.Lock()
		ok := !c.Dead && c.RoomID == room
		c.Unlock()
		if ok {
			return c
		}
	}
	return nil
}
