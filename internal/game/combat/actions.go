package combat

import (
	"errors"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/wound"
)

// Tend has tender bandage the wound at loc on patient. A combatant may tend
// itself. Tending is allowed while in roundtime.
//
// Precondition: tender must be non-nil.
// Postcondition: On error (always a *Failure) nothing changed. On success the
// wound is bandaged and the tender's lag grew by the result's roundtime.
func (e *Engine) Tend(tender, patient *Combatant, loc critical.BodyPart) (*wound.TendResult, error) {
	if patient == nil {
		return nil, fail(CodeNoTarget, "Tend whom?")
	}
	unlock := lockPair(tender, patient)
	defer unlock()

	if tender.Dead {
		return nil, fail(CodeDead, "You are dead.")
	}
	if patient.Dead {
		return nil, fail(CodeTargetDead, "%s is beyond help.", patient.Name)
	}
	if tender.RoomID != patient.RoomID {
		return nil, fail(CodeNotHere, "You don't see %s here.", patient.Name)
	}
	if e.scheduler.Blocked(&tender.CombatData, roundtime.ActionTend) {
		return nil, fail(CodeRoundtime, "Wait %.1f seconds.", roundtime.Seconds(tender.CombatData.Lag))
	}
	patient.ensure()

	res, err := patient.Wounds.Tend(loc, tender.Ranks(stats.FirstAid))
	if err != nil {
		return nil, tendFailure(err, loc)
	}
	e.scheduler.AddLag(&tender.CombatData, res.Roundtime, e.now())
	e.logger.Debug("wound tended",
		zap.String("tender", tender.ID),
		zap.String("patient", patient.ID),
		zap.String("location", string(loc)),
		zap.Stringer("outcome", res.Outcome),
		zap.Duration("roundtime", res.Roundtime),
	)
	return &res, nil
}

func tendFailure(err error, loc critical.BodyPart) *Failure {
	switch {
	case errors.Is(err, wound.ErrNoWound):
		return fail(CodeNoWound, "There is no wound on the %s.", loc.Display())
	case errors.Is(err, wound.ErrNotBleeding):
		return fail(CodeNotBleeding, "The wound on the %s is not bleeding.", loc.Display())
	case errors.Is(err, wound.ErrAlreadyBandaged):
		return fail(CodeAlreadyBandaged, "The wound on the %s is already bandaged.", loc.Display())
	default:
		return fail(CodeBeyondSkill, "Tending the wound on the %s is beyond your skill.", loc.Display())
	}
}

// SetStance changes c's stance by name or unambiguous prefix.
//
// Postcondition: On error (always a *Failure) the stance is unchanged.
func (e *Engine) SetStance(c *Combatant, name string) (stats.Stance, error) {
	st, err := stats.ParseStance(name)
	if err != nil {
		return 0, fail(CodeInvalidStance, "Unknown stance %q. Try offensive, advance, forward, neutral, guarded or defensive.", name)
	}
	c.Lock()
	defer c.Unlock()
	if c.Dead {
		return 0, fail(CodeDead, "You are dead.")
	}
	if e.scheduler.Blocked(&c.CombatData, roundtime.ActionStance) {
		return 0, fail(CodeRoundtime, "Wait %.1f seconds.", roundtime.Seconds(c.CombatData.Lag))
	}
	c.Stance = st
	return st, nil
}

// Heal removes the wound at loc on c, leaving a scar when scar is true.
//
// Postcondition: Returns a CodeNoWound Failure when loc is unwounded.
func (e *Engine) Heal(c *Combatant, loc critical.BodyPart, scar bool) error {
	c.Lock()
	defer c.Unlock()
	c.ensure()
	if !c.Wounds.Heal(loc, scar, e.now()) {
		return fail(CodeNoWound, "There is no wound on the %s.", loc.Display())
	}
	return nil
}

// Disengage ends every engagement of c, as when fleeing.
//
// Postcondition: On success InCombat(c.ID) is false.
func (e *Engine) Disengage(c *Combatant) error {
	c.Lock()
	defer c.Unlock()
	if c.Dead {
		return fail(CodeDead, "You are dead.")
	}
	if e.scheduler.Blocked(&c.CombatData, roundtime.ActionFlee) {
		return fail(CodeRoundtime, "Wait %.1f seconds.", roundtime.Seconds(c.CombatData.Lag))
	}
	if !e.InCombat(c.ID) {
		return fail(CodeNotInCombat, "You are not fighting anyone.")
	}
	e.disengage(c.ID)
	return nil
}
