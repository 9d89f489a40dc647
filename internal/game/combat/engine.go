package combat

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/roundtime"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
)

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Critical  *critical.Engine
	Races     *stats.RaceTable
	Scheduler *roundtime.Scheduler
	Roller    *dice.Roller
	Logger    *zap.Logger
	// Recorder and Clock are optional.
	Recorder Recorder
	Clock    func() time.Time
}

// Engine owns the live combatants and performs every combat mutation.
// All methods are safe for concurrent use.
//
// Lock order: combatant locks are taken before Engine.mu, and pairs of
// combatants are locked in ascending ID order.
type Engine struct {
	crit      *critical.Engine
	races     *stats.RaceTable
	scheduler *roundtime.Scheduler
	roller    *dice.Roller
	logger    *zap.Logger
	recorder  Recorder
	now       func() time.Time

	mu         sync.RWMutex
	combatants map[string]*Combatant
	engaged    map[string]map[string]struct{}
}

// NewEngine creates an Engine.
//
// Precondition: d.Roller must be non-nil.
// Postcondition: Returns a non-nil Engine with no combatants.
func NewEngine(d Deps) *Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Critical == nil {
		d.Critical = critical.NewEngine(nil, nil, d.Logger)
	}
	if d.Scheduler == nil {
		d.Scheduler = roundtime.NewScheduler(roundtime.DefaultInterval)
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Engine{
		crit:       d.Critical,
		races:      d.Races,
		scheduler:  d.Scheduler,
		roller:     d.Roller,
		logger:     d.Logger,
		recorder:   d.Recorder,
		now:        d.Clock,
		combatants: make(map[string]*Combatant),
		engaged:    make(map[string]map[string]struct{}),
	}
}

// Races returns the engine's race table.
func (e *Engine) Races() *stats.RaceTable { return e.races }

// Scheduler returns the engine's roundtime scheduler.
func (e *Engine) Scheduler() *roundtime.Scheduler { return e.scheduler }

// Add registers c as a live combatant.
//
// Precondition: c.ID must be non-empty and unique among live combatants.
// Postcondition: Get(c.ID) returns c.
func (e *Engine) Add(c *Combatant) {
	c.Lock()
	c.ensure()
	c.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.combatants[c.ID] = c
}

// Remove unregisters the combatant with id and ends its engagements.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.combatants, id)
	e.disengageLocked(id)
}

// Get returns the live combatant with id.
func (e *Engine) Get(id string) (*Combatant, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.combatants[id]
	return c, ok
}

// All returns a snapshot of the live combatants ordered by ID.
func (e *Engine) All() []*Combatant {
	e.mu.RLock()
	out := make([]*Combatant, 0, len(e.combatants))
	for _, c := range e.combatants {
		out = append(out, c)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Opponents returns the IDs of everyone engaged with id, sorted.
func (e *Engine) Opponents(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.engaged[id]))
	for o := range e.engaged[id] {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// InCombat reports whether id has at least one opponent.
func (e *Engine) InCombat(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.engaged[id]) > 0
}

// engage records a and b as mutual opponents.
func (e *Engine) engage(a, b string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.engaged[a] == nil {
		e.engaged[a] = make(map[string]struct{})
	}
	if e.engaged[b] == nil {
		e.engaged[b] = make(map[string]struct{})
	}
	e.engaged[a][b] = struct{}{}
	e.engaged[b][a] = struct{}{}
}

// disengage ends every engagement of id.
func (e *Engine) disengage(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disengageLocked(id)
}

func (e *Engine) disengageLocked(id string) {
	for o := range e.engaged[id] {
		delete(e.engaged[o], id)
		if len(e.engaged[o]) == 0 {
			delete(e.engaged, o)
		}
	}
	delete(e.engaged, id)
}

// lockPair locks a and b in ascending ID order and returns the unlock func.
func lockPair(a, b *Combatant) func() {
	if a == b {
		a.Lock()
		return a.Unlock
	}
	first, second := a, b
	if second.ID < first.ID {
		first, second = second, first
	}
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

// kill performs the death transition on c.
//
// Precondition: c is locked.
func (e *Engine) kill(c *Combatant, cause string) {
	c.Health = 0
	c.Dead = true
	c.CombatData.Lag = 0
	e.disengage(c.ID)
	e.recorder.Death(c.Kind, cause)
	e.logger.Info("combatant died",
		zap.String("id", c.ID),
		zap.String("name", c.Name),
		zap.String("cause", cause),
	)
}
