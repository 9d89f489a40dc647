package combat

import (
	"github.com/cory-johannsen/combatcore/internal/game/wound"
)

// TickReport is what one game tick did to a combatant.
type TickReport struct {
	// LagExpired is true when the combatant's roundtime ended on this tick.
	LagExpired bool
	// StoodUp is true when a knocked-down combatant regained its feet.
	StoodUp bool
	Bleed   wound.BleedReport
	Died    bool
}

// Tick advances c by one game tick: roundtime decrement, then bleeding.
// A prone combatant stands once its lag has run out. Dead combatants are
// skipped.
//
// Postcondition: Health and lag are never negative; bleeding to zero kills.
func (e *Engine) Tick(c *Combatant) TickReport {
	c.Lock()
	defer c.Unlock()
	if c.Dead {
		return TickReport{}
	}
	c.ensure()
	rep := TickReport{LagExpired: e.scheduler.Tick(&c.CombatData)}
	if c.Prone && c.CombatData.Lag == 0 {
		c.Prone = false
		rep.StoodUp = true
	}
	rep.Bleed = c.Wounds.Bleed(e.roller)
	if rep.Bleed.Total > 0 {
		e.recorder.Bleed(rep.Bleed.Total)
		if c.ApplyDamage(rep.Bleed.Total) {
			rep.Died = true
			e.kill(c, DeathByBleeding)
		}
	}
	return rep
}

// Blocked reports whether c is in roundtime.
func (e *Engine) Blocked(c *Combatant) bool {
	c.Lock()
	defer c.Unlock()
	return c.CombatData.Lag > 0
}
