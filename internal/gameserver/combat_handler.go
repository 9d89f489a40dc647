package gameserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/dice"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
	"github.com/cory-johannsen/combatcore/internal/game/world"
	"github.com/cory-johannsen/combatcore/internal/game/wound"
	"github.com/cory-johannsen/combatcore/internal/scripting"
	"github.com/cory-johannsen/combatcore/internal/storage/postgres"
)

// persistTimeout bounds a single queued state save.
const persistTimeout = 2 * time.Second

// Rooms is the world the handler fights in. *world.Manager implements it.
type Rooms interface {
	GetRoom(id string) (*world.Room, bool)
	Enter(id, roomID string) error
	Leave(id string)
	Occupants(roomID string) []string
	SpawnRemains(roomID, victimID, victimName string, items []world.RemainsItem, currency int, at time.Time) (*world.Remains, error)
	Decay(cutoff time.Time) int
}

// StateStore persists player combat state between sessions.
// *postgres.CombatStateRepository implements it.
type StateStore interface {
	Save(ctx context.Context, st combat.State) error
	Load(ctx context.Context, id string) (combat.State, error)
}

// CombatHandler turns player and NPC commands into engine calls, renders the
// results as room narrative, and performs the bookkeeping a death requires.
//
// Persistence and broadcasting happen after the engine has released every
// combatant lock. Saves are queued on a SaveQueue; the caller must run
// Saves().Run for them to reach the store.
type CombatHandler struct {
	engine      *combat.Engine
	npcMgr      *npc.Manager
	rooms       Rooms
	roller      *dice.Roller
	broadcastFn func(roomID string, events []*CombatEvent)
	scriptMgr   *scripting.Manager
	respawnMgr  *npc.RespawnManager
	store       StateStore
	saves       *SaveQueue
	logger      *zap.Logger
	now         func() time.Time
}

// NewCombatHandler creates a CombatHandler.
//
// Precondition: engine, npcMgr, rooms, roller and logger must be non-nil.
// broadcastFn, scriptMgr, respawnMgr and store may be nil; the matching step
// is skipped.
// Postcondition: Returns a non-nil CombatHandler.
func NewCombatHandler(
	engine *combat.Engine,
	npcMgr *npc.Manager,
	rooms Rooms,
	roller *dice.Roller,
	broadcastFn func(roomID string, events []*CombatEvent),
	scriptMgr *scripting.Manager,
	respawnMgr *npc.RespawnManager,
	store StateStore,
	logger *zap.Logger,
) *CombatHandler {
	if broadcastFn == nil {
		broadcastFn = func(string, []*CombatEvent) {}
	}
	var saves *SaveQueue
	if store != nil {
		saves = NewSaveQueue(store, persistTimeout, logger)
	}
	return &CombatHandler{
		engine:      engine,
		npcMgr:      npcMgr,
		rooms:       rooms,
		roller:      roller,
		broadcastFn: broadcastFn,
		scriptMgr:   scriptMgr,
		respawnMgr:  respawnMgr,
		store:       store,
		saves:       saves,
		logger:      logger,
		now:         time.Now,
	}
}

// Saves returns the queue that carries player snapshots to the store, or nil
// when the handler has no store.
func (h *CombatHandler) Saves() *SaveQueue {
	return h.saves
}

// Join brings player c into roomID, restoring its persisted combat state
// when the store has one. A snapshot still waiting in the save queue wins
// over the stored row.
//
// Precondition: c must be a player combatant not already registered.
// Postcondition: On success c is live in the engine and occupies roomID.
func (h *CombatHandler) Join(ctx context.Context, c *combat.Combatant, roomID string) error {
	if h.store != nil {
		if st, ok := h.saves.Pending(c.ID); ok {
			c.Restore(st)
		} else {
			st, err := h.store.Load(ctx, c.ID)
			switch {
			case err == nil:
				c.Restore(st)
			case errors.Is(err, postgres.ErrStateNotFound):
			default:
				return fmt.Errorf("loading state for %s: %w", c.ID, err)
			}
		}
	}
	c.Lock()
	c.RoomID = roomID
	c.Unlock()
	if err := h.rooms.Enter(c.ID, roomID); err != nil {
		return fmt.Errorf("joining %s: %w", c.ID, err)
	}
	h.engine.Add(c)
	h.logger.Info("player joined",
		zap.String("id", c.ID),
		zap.String("name", c.Name),
		zap.String("room", roomID),
	)
	return nil
}

// Leave queues player id's state for saving and removes it from the world.
//
// Postcondition: The engine no longer knows id.
func (h *CombatHandler) Leave(id string) error {
	c, ok := h.engine.Get(id)
	if !ok {
		return fmt.Errorf("combatant %q not found", id)
	}
	h.persist(c)
	h.engine.Remove(id)
	h.rooms.Leave(id)
	return nil
}

// AddNPC registers a freshly spawned NPC with the engine and its room.
func (h *CombatHandler) AddNPC(inst *npc.Instance) {
	h.engine.Add(inst.Combatant)
	if err := h.rooms.Enter(inst.ID, inst.RoomID()); err != nil {
		h.logger.Warn("placing npc",
			zap.String("npc", inst.ID),
			zap.Error(err),
		)
	}
}

// Populate fills every configured room to its spawn cap.
//
// Postcondition: Returns the number of NPCs spawned.
func (h *CombatHandler) Populate() int {
	if h.respawnMgr == nil {
		return 0
	}
	n := 0
	for _, roomID := range h.respawnMgr.Rooms() {
		for _, inst := range h.respawnMgr.PopulateRoom(roomID, h.npcMgr) {
			h.AddNPC(inst)
			n++
		}
	}
	return n
}

// Attack has actorID attack the combatant named target in the same room.
//
// Precondition: actorID must name a live combatant.
// Postcondition: Returns the events broadcast to the room, or a
// *combat.Failure when the attack was rejected.
func (h *CombatHandler) Attack(actorID, target string) ([]*CombatEvent, error) {
	actor, err := h.combatant(actorID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(target) == "" {
		return nil, combat.NewFailure(combat.CodeNoTarget, "Attack what?")
	}
	def := h.findTarget(roomOf(actor), actorID, target)
	if def == nil {
		return nil, combat.NewFailure(combat.CodeNotHere, "You don't see %q here.", target)
	}
	return h.attack(actor, def, h.now())
}

// attack resolves one attack and everything that follows from it.
func (h *CombatHandler) attack(actor, def *combat.Combatant, now time.Time) ([]*CombatEvent, error) {
	out, err := h.engine.Attack(actor, def)
	if err != nil {
		return nil, err
	}
	roomID := roomOf(actor)
	events := []*CombatEvent{attackEvent(roomID, actor, def, out)}
	if out.Critical != nil {
		events = append(events, h.criticalEvents(roomID, actor, def, out)...)
	}
	if out.Application.Killed {
		events = append(events, h.handleDeath(def, actor, out.Application.Cause, now)...)
	}
	h.persist(actor, def)
	h.broadcastFn(roomID, events)
	return events, nil
}

// Tend has actorID bandage the wound at location on patientID. An empty
// patientID, or the actor's own ID, tends the actor.
//
// Postcondition: Returns the tend event, or a *combat.Failure.
func (h *CombatHandler) Tend(actorID, patientID, location string) ([]*CombatEvent, error) {
	actor, err := h.combatant(actorID)
	if err != nil {
		return nil, err
	}
	loc, err := critical.ParseBodyPart(location)
	if err != nil {
		return nil, combat.NewFailure(combat.CodeInvalidLocation, "There is no %q to tend.", location)
	}
	patient := actor
	if patientID != "" && patientID != actorID {
		patient = h.findTarget(roomOf(actor), actorID, patientID)
		if patient == nil {
			return nil, combat.NewFailure(combat.CodeNotHere, "You don't see %q here.", patientID)
		}
	}

	res, err := h.engine.Tend(actor, patient, loc)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if patient == actor {
		fmt.Fprintf(&b, "%s bandages the wound on their %s.", actor.Name, loc.Display())
	} else {
		fmt.Fprintf(&b, "%s bandages the wound on %s's %s.", actor.Name, patient.Name, loc.Display())
	}
	if res.Outcome == wound.Partial {
		b.WriteString(" The bleeding slows but does not stop.")
	}
	roomID := roomOf(actor)
	events := []*CombatEvent{{
		Type:      EventTend,
		RoomID:    roomID,
		Attacker:  actor.Name,
		Target:    patient.Name,
		Narrative: b.String(),
	}}
	h.persist(actor, patient)
	h.broadcastFn(roomID, events)
	return events, nil
}

// SetStance moves actorID into the named stance.
func (h *CombatHandler) SetStance(actorID, name string) ([]*CombatEvent, error) {
	actor, err := h.combatant(actorID)
	if err != nil {
		return nil, err
	}
	st, err := h.engine.SetStance(actor, name)
	if err != nil {
		return nil, err
	}
	roomID := roomOf(actor)
	events := []*CombatEvent{{
		Type:      EventStance,
		RoomID:    roomID,
		Attacker:  actor.Name,
		Narrative: fmt.Sprintf("%s moves into a %s stance.", actor.Name, st),
	}}
	h.persist(actor)
	h.broadcastFn(roomID, events)
	return events, nil
}

// Heal removes the wound at location on id, optionally leaving a scar.
// It is the entry point for healers and regeneration, not a player command.
func (h *CombatHandler) Heal(id, location string, scar bool) ([]*CombatEvent, error) {
	c, err := h.combatant(id)
	if err != nil {
		return nil, err
	}
	loc, err := critical.ParseBodyPart(location)
	if err != nil {
		return nil, combat.NewFailure(combat.CodeInvalidLocation, "There is no %q to heal.", location)
	}
	if err := h.engine.Heal(c, loc, scar); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("The wound on %s's %s closes.", c.Name, loc.Display())
	if scar {
		msg = fmt.Sprintf("The wound on %s's %s closes, leaving a scar.", c.Name, loc.Display())
	}
	roomID := roomOf(c)
	events := []*CombatEvent{{Type: EventHeal, RoomID: roomID, Target: c.Name, Narrative: msg}}
	h.persist(c)
	h.broadcastFn(roomID, events)
	return events, nil
}

// Flee breaks every engagement of actorID.
func (h *CombatHandler) Flee(actorID string) ([]*CombatEvent, error) {
	actor, err := h.combatant(actorID)
	if err != nil {
		return nil, err
	}
	if err := h.engine.Disengage(actor); err != nil {
		return nil, err
	}
	roomID := roomOf(actor)
	events := []*CombatEvent{{
		Type:      EventFlee,
		RoomID:    roomID,
		Attacker:  actor.Name,
		Narrative: fmt.Sprintf("%s breaks away from the fight!", actor.Name),
	}}
	h.broadcastFn(roomID, events)
	return events, nil
}

// criticalEvents renders the critical entry and any hook narrative.
func (h *CombatHandler) criticalEvents(roomID string, actor, def *combat.Combatant, out *combat.AttackOutcome) []*CombatEvent {
	crit := out.Critical
	entry := crit.Entry
	if entry == nil {
		entry = critical.NeutralEntry(crit.Part, crit.Rank)
	}
	health, _ := healthOf(def)
	events := []*CombatEvent{{
		Type:         EventCritical,
		RoomID:       roomID,
		Attacker:     actor.Name,
		Target:       def.Name,
		Damage:       out.Application.Damage,
		TargetHealth: health,
		Narrative:    entry.Render(def.Name),
	}}
	if crit.Knockdown && !out.Application.Killed {
		events = append(events, &CombatEvent{
			Type:      EventCritical,
			RoomID:    roomID,
			Target:    def.Name,
			Narrative: fmt.Sprintf("%s is knocked to the ground!", def.Name),
		})
	}
	if out.Application.StunLag > 0 {
		events = append(events, &CombatEvent{
			Type:      EventCritical,
			RoomID:    roomID,
			Target:    def.Name,
			Narrative: fmt.Sprintf("%s is stunned!", def.Name),
		})
	}
	if h.scriptMgr != nil {
		extra := h.scriptMgr.OnCritical(h.zoneOf(roomID), combatantInfo(def), scripting.CriticalInfo{
			DamageType: string(out.Attack.Weapon.PrimaryDamageType()),
			Location:   string(crit.Part),
			Rank:       crit.Rank,
			Damage:     out.Application.Damage,
			Fatal:      out.Application.Killed,
		})
		if extra != "" {
			events = append(events, &CombatEvent{Type: EventCritical, RoomID: roomID, Target: def.Name, Narrative: extra})
		}
	}
	return events
}

// handleDeath runs the aftermath of victim dying: hook narrative, remains
// with loot, and for NPCs removal plus a scheduled respawn. killer is nil
// for deaths nobody dealt directly.
func (h *CombatHandler) handleDeath(victim, killer *combat.Combatant, cause string, now time.Time) []*CombatEvent {
	vi := combatantInfo(victim)
	roomID := vi.RoomID
	ev := &CombatEvent{
		Type:      EventDeath,
		RoomID:    roomID,
		Target:    victim.Name,
		Narrative: deathNarrative(victim.Name, cause),
	}
	if killer != nil {
		ev.Attacker = killer.Name
	}
	events := []*CombatEvent{ev}

	if h.scriptMgr != nil {
		var ki *scripting.CombatantInfo
		if killer != nil {
			info := combatantInfo(killer)
			ki = &info
		}
		if extra := h.scriptMgr.OnDeath(h.zoneOf(roomID), vi, ki, cause); extra != "" {
			events = append(events, &CombatEvent{Type: EventDeath, RoomID: roomID, Target: victim.Name, Narrative: extra})
		}
	}

	inst, isNPC := h.npcMgr.Get(victim.ID)
	var items []world.RemainsItem
	currency := 0
	if isNPC && inst.Template.Loot != nil {
		loot := npc.GenerateLoot(*inst.Template.Loot, h.roller)
		currency = loot.Currency
		for _, it := range loot.Items {
			items = append(items, world.RemainsItem{
				ItemDefID:  it.ItemDefID,
				InstanceID: it.InstanceID,
				Quantity:   it.Quantity,
			})
		}
	}
	if _, err := h.rooms.SpawnRemains(roomID, victim.ID, victim.Name, items, currency, now); err != nil {
		h.logger.Warn("spawning remains",
			zap.String("victim", victim.ID),
			zap.Error(err),
		)
	}

	if isNPC {
		h.engine.Remove(victim.ID)
		h.rooms.Leave(victim.ID)
		if err := h.npcMgr.Remove(victim.ID); err != nil {
			h.logger.Warn("removing dead npc",
				zap.String("npc", victim.ID),
				zap.Error(err),
			)
		}
		if h.respawnMgr != nil {
			delay := h.respawnMgr.ResolvedDelay(inst.TemplateID, roomID)
			h.respawnMgr.Schedule(inst.TemplateID, roomID, now, delay)
		}
	}
	return events
}

// persist queues the state of every player among cs for saving. NPC state
// is transient.
func (h *CombatHandler) persist(cs ...*combat.Combatant) {
	if h.saves == nil {
		return
	}
	for _, c := range cs {
		if c == nil || c.Kind != combat.KindPlayer {
			continue
		}
		h.saves.Enqueue(c.Snapshot())
	}
}

// combatant returns the live combatant with id.
func (h *CombatHandler) combatant(id string) (*combat.Combatant, error) {
	c, ok := h.engine.Get(id)
	if !ok {
		return nil, fmt.Errorf("combatant %q not found", id)
	}
	return c, nil
}

// findTarget resolves name to a combatant in roomID: an NPC by name prefix
// first, then a player by ID or name prefix. The actor is never returned.
func (h *CombatHandler) findTarget(roomID, actorID, name string) *combat.Combatant {
	if inst := h.npcMgr.FindInRoom(roomID, name); inst != nil {
		return inst.Combatant
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, id := range h.rooms.Occupants(roomID) {
		if id == actorID {
			continue
		}
		c, ok := h.engine.Get(id)
		if !ok || c.Kind != combat.KindPlayer {
			continue
		}
		if id == name || strings.HasPrefix(strings.ToLower(c.Name), lower) {
			return c
		}
	}
	return nil
}

// playersIn returns the live player combatants occupying roomID.
func (h *CombatHandler) playersIn(roomID string) []*combat.Combatant {
	var out []*combat.Combatant
	for _, id := range h.rooms.Occupants(roomID) {
		if c, ok := h.engine.Get(id); ok && c.Kind == combat.KindPlayer {
			out = append(out, c)
		}
	}
	return out
}

// zoneOf returns the zone that owns roomID, or "" when unknown.
func (h *CombatHandler) zoneOf(roomID string) string {
	room, ok := h.rooms.GetRoom(roomID)
	if !ok {
		return ""
	}
	return room.ZoneID
}

func attackEvent(roomID string, actor, def *combat.Combatant, out *combat.AttackOutcome) *CombatEvent {
	res := out.Attack
	weapon := "bare hands"
	if res.Weapon != nil {
		weapon = res.Weapon.Name
	}
	var b strings.Builder
	if res.Hit {
		fmt.Fprintf(&b, "%s strikes at %s with %s and connects!", actor.Name, def.Name, weapon)
	} else {
		fmt.Fprintf(&b, "%s strikes at %s with %s and misses.", actor.Name, def.Name, weapon)
	}
	fmt.Fprintf(&b, "\n  AS: %+d vs DS: %+d with AvD: %+d + d100 roll: %+d = %+d",
		res.AS, res.DS, res.AvD, res.Roll, res.EndRoll)
	if res.Hit {
		fmt.Fprintf(&b, "\n  ... and hits for %d points of damage!", out.Application.Damage)
	}
	health, _ := healthOf(def)
	return &CombatEvent{
		Type:         EventAttack,
		RoomID:       roomID,
		Attacker:     actor.Name,
		Target:       def.Name,
		AS:           res.AS,
		DS:           res.DS,
		AvD:          res.AvD,
		Roll:         res.Roll,
		EndRoll:      res.EndRoll,
		Damage:       out.Application.Damage,
		TargetHealth: health,
		Narrative:    b.String(),
	}
}

func deathNarrative(name, cause string) string {
	switch cause {
	case combat.DeathByBleeding:
		return fmt.Sprintf("%s collapses, having bled to death.", name)
	case combat.DeathByCritical:
		return fmt.Sprintf("%s falls, slain outright.", name)
	default:
		return fmt.Sprintf("%s collapses and dies.", name)
	}
}

func roomOf(c *combat.Combatant) string {
	c.Lock()
	defer c.Unlock()
	return c.RoomID
}

func healthOf(c *combat.Combatant) (cur, maxHealth int) {
	c.Lock()
	defer c.Unlock()
	return c.Health, c.MaxHealth
}

func combatantInfo(c *combat.Combatant) scripting.CombatantInfo {
	c.Lock()
	defer c.Unlock()
	return scripting.CombatantInfo{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind.String(),
		RoomID:    c.RoomID,
		Health:    c.Health,
		MaxHealth: c.MaxHealth,
	}
}
