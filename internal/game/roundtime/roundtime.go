// Package roundtime implements the per-combatant lag countdown that gates
// actions, and the composition of the roundtime an action costs.
package roundtime

import "time"

// DefaultInterval is the game tick period.
const DefaultInterval = time.Second

// Action names a gated player or NPC action.
type Action string

const (
	ActionAttack Action = "attack"
	ActionTend   Action = "tend"
	ActionStance Action = "stance"
	ActionFlee   Action = "flee"
)

// State is one combatant's lag counter.
// State is not safe for concurrent use; its owner serializes access.
type State struct {
	Lag          time.Duration
	RoundStarted time.Time
}

// Scheduler applies the shared tick interval to combatant lag.
type Scheduler struct {
	interval time.Duration
}

// NewScheduler creates a Scheduler decrementing by interval each tick.
//
// Precondition: interval > 0; non-positive values use DefaultInterval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{interval: interval}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Tick decrements st by one interval, flooring at zero.
//
// Postcondition: st.Lag >= 0. Returns true iff lag reached zero on this tick.
func (s *Scheduler) Tick(st *State) bool {
	if st.Lag <= 0 {
		st.Lag = 0
		return false
	}
	st.Lag = max(0, st.Lag-s.interval)
	return st.Lag == 0
}

// AddLag adds amount to st. Negative amounts are ignored. When st was idle the
// round start is set to now.
//
// Postcondition: st.Lag never decreases.
func (s *Scheduler) AddLag(st *State, amount time.Duration, now time.Time) {
	if amount <= 0 {
		return
	}
	if st.Lag <= 0 {
		st.RoundStarted = now
	}
	st.Lag += amount
}

// Blocked reports whether st forbids starting action. Tending is never blocked.
func (s *Scheduler) Blocked(st *State, action Action) bool {
	if action == ActionTend {
		return false
	}
	return st.Lag > 0
}

// Seconds renders d as whole-or-half seconds for player messages.
func Seconds(d time.Duration) float64 {
	return float64(d.Round(500*time.Millisecond)) / float64(time.Second)
}
