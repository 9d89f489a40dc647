package wound

import (
	"time"

	"github.com/cory-johannsen/combatcore/internal/game/critical"
)

// MinTendRoundtime is the floor on the roundtime of a successful tend.
const MinTendRoundtime = 3 * time.Second

// Outcome is the quality of a successful bandage.
type Outcome int

const (
	Partial Outcome = iota + 1
	Full
)

func (o Outcome) String() string {
	if o == Full {
		return "full"
	}
	return "partial"
}

// Reduction returns the bleed reduction the outcome applies.
func (o Outcome) Reduction() float64 {
	if o == Full {
		return 1.0
	}
	return 0.5
}

// TendPlan is the evaluated cost of tending one wound.
type TendPlan struct {
	Difficulty    int
	BleedPerRound int
	RanksRequired int
	BaseRoundtime int
}

// PlanTend computes the requirement and base roundtime for a wound of rank at loc.
func PlanTend(loc critical.BodyPart, rank int) TendPlan {
	d := Difficulty(loc)
	bpr := 4
	if rank == 2 {
		bpr = 2
	}
	return TendPlan{
		Difficulty:    d,
		BleedPerRound: bpr,
		RanksRequired: (2*d + 6*rank - 12) * bpr,
		BaseRoundtime: 2*d + 6*rank + 2*bpr + 3,
	}
}

// TendResult describes a successful tend.
type TendResult struct {
	Location  critical.BodyPart
	Outcome   Outcome
	Roundtime time.Duration
	Plan      TendPlan
}

// Evaluate decides the outcome of tending with firstAid ranks without
// changing anything.
//
// Postcondition: Returns ErrBeyondSkill when firstAid < half the required ranks.
func (p TendPlan) Evaluate(firstAid int) (Outcome, time.Duration, error) {
	switch {
	case firstAid >= p.RanksRequired:
		extra := max(0, firstAid-p.RanksRequired)
		rt := time.Duration(p.BaseRoundtime-extra) * time.Second
		return Full, max(MinTendRoundtime, rt), nil
	case firstAid*2 >= p.RanksRequired:
		rt := time.Duration(p.BaseRoundtime) * time.Second
		return Partial, max(MinTendRoundtime, rt), nil
	default:
		return 0, 0, ErrBeyondSkill
	}
}

// Tend attempts to bandage the wound at loc with firstAid ranks.
//
// Postcondition: On error the set is unchanged. On success the wound is
// bandaged with the outcome's reduction.
func (s *Set) Tend(loc critical.BodyPart, firstAid int) (TendResult, error) {
	w, ok := s.wounds[loc]
	if !ok {
		return TendResult{}, ErrNoWound
	}
	if w.Bandaged {
		return TendResult{}, ErrAlreadyBandaged
	}
	if w.Rank < 2 {
		return TendResult{}, ErrNotBleeding
	}
	plan := PlanTend(loc, w.Rank)
	outcome, rt, err := plan.Evaluate(firstAid)
	if err != nil {
		return TendResult{}, err
	}
	w.Bandaged = true
	w.BandageReduction = outcome.Reduction()
	return TendResult{Location: loc, Outcome: outcome, Roundtime: rt, Plan: plan}, nil
}
