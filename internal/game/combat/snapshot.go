package combat

import (
	"slices"
	"time"

	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/wound"
)

// State is the persisted combat state of one combatant.
type State struct {
	ID          string
	RoomID      string
	Health      int
	MaxHealth   int
	Spirit      int
	MaxSpirit   int
	Stance      stats.Stance
	Lag         time.Duration
	Prone       bool
	Dead        bool
	Wounds      map[critical.BodyPart]wound.Wound
	Scars       map[critical.BodyPart]wound.Scar
	Amputations []critical.BodyPart
}

// Snapshot copies c's combat state.
//
// Precondition: c must not be locked by the caller.
func (c *Combatant) Snapshot() State {
	c.Lock()
	defer c.Unlock()
	c.ensure()
	st := State{
		ID:        c.ID,
		RoomID:    c.RoomID,
		Health:    c.Health,
		MaxHealth: c.MaxHealth,
		Spirit:    c.Spirit,
		MaxSpirit: c.MaxSpirit,
		Stance:    c.Stance,
		Lag:       c.CombatData.Lag,
		Prone:     c.Prone,
		Dead:      c.Dead,
		Wounds:    c.Wounds.Wounds(),
		Scars:     c.Wounds.Scars(),
	}
	for part, gone := range c.Amputations {
		if gone {
			st.Amputations = append(st.Amputations, part)
		}
	}
	slices.Sort(st.Amputations)
	return st
}

// Restore overwrites c's combat state with st. The ID is not changed.
//
// Precondition: c must not be locked by the caller.
func (c *Combatant) Restore(st State) {
	c.Lock()
	defer c.Unlock()
	c.ensure()
	c.RoomID = st.RoomID
	c.Health = st.Health
	c.MaxHealth = st.MaxHealth
	c.Spirit = st.Spirit
	c.MaxSpirit = st.MaxSpirit
	c.Stance = st.Stance
	c.CombatData.Lag = st.Lag
	c.Prone = st.Prone
	c.Dead = st.Dead
	c.Wounds.Restore(st.Wounds, st.Scars)
	c.Amputations = make(map[critical.BodyPart]bool, len(st.Amputations))
	for _, part := range st.Amputations {
		c.Amputations[part] = true
	}
}
