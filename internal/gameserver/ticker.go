package gameserver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/game/combat"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
)

// TickSummary counts what one game tick did.
type TickSummary struct {
	Stood   int
	Bled    int
	Deaths  int
	Attacks int
	Spawned int
	Decayed int
}

// Ticker runs the fixed-rate game tick. Each tick, in order: roundtime,
// standing up and bleeding for every live combatant, NPC attacks, due respawns, and decay of
// old remains.
//
// Invariant: ticks never overlap; a slow tick delays the next one.
type Ticker struct {
	handler    *CombatHandler
	interval   time.Duration
	remainsTTL time.Duration
	logger     *zap.Logger
}

// NewTicker returns a Ticker driving h every interval. Remains older than
// remainsTTL are removed; a zero remainsTTL keeps them forever.
//
// Precondition: h and logger must be non-nil; interval must be > 0.
func NewTicker(h *CombatHandler, interval, remainsTTL time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		panic("gameserver.NewTicker: interval must be > 0")
	}
	return &Ticker{
		handler:    h,
		interval:   interval,
		remainsTTL: remainsTTL,
		logger:     logger,
	}
}

// Run ticks until ctx is cancelled.
//
// Postcondition: Returns ctx.Err().
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sum := t.Tick(now)
			if sum != (TickSummary{}) {
				t.logger.Debug("tick",
					zap.Int("stood", sum.Stood),
					zap.Int("bled", sum.Bled),
					zap.Int("deaths", sum.Deaths),
					zap.Int("attacks", sum.Attacks),
					zap.Int("spawned", sum.Spawned),
					zap.Int("decayed", sum.Decayed),
				)
			}
		}
	}
}

// Tick performs one game tick at now.
func (t *Ticker) Tick(now time.Time) TickSummary {
	h := t.handler
	var sum TickSummary

	for _, c := range h.engine.All() {
		rep := h.engine.Tick(c)
		if rep.StoodUp {
			sum.Stood++
			roomID := roomOf(c)
			h.persist(c)
			h.broadcastFn(roomID, []*CombatEvent{{
				Type:      EventStand,
				RoomID:    roomID,
				Target:    c.Name,
				Narrative: fmt.Sprintf("%s scrambles back to their feet.", c.Name),
			}})
		}
		if rep.Bleed.Total == 0 && !rep.Died {
			continue
		}
		sum.Bled++
		roomID := roomOf(c)
		events := []*CombatEvent{bleedEvent(roomID, c, rep)}
		if rep.Died {
			sum.Deaths++
			events = append(events, h.handleDeath(c, nil, combat.DeathByBleeding, now)...)
		}
		h.persist(c)
		h.broadcastFn(roomID, events)
	}

	for _, inst := range h.npcMgr.All() {
		if inst.IsDead() || h.engine.Blocked(inst.Combatant) {
			continue
		}
		target := t.npcTarget(inst)
		if target == nil {
			continue
		}
		inst.PrepareAttack(h.roller)
		if _, err := h.attack(inst.Combatant, target, now); err != nil {
			t.logger.Debug("npc attack rejected",
				zap.String("npc", inst.ID),
				zap.String("target", target.ID),
				zap.Error(err),
			)
			continue
		}
		sum.Attacks++
	}

	if h.respawnMgr != nil {
		for _, inst := range h.respawnMgr.Tick(now, h.npcMgr) {
			h.AddNPC(inst)
			roomID := inst.RoomID()
			h.broadcastFn(roomID, []*CombatEvent{{
				Type:      EventSpawn,
				RoomID:    roomID,
				Attacker:  inst.Name,
				Narrative: fmt.Sprintf("%s arrives.", inst.Name),
			}})
			sum.Spawned++
		}
	}

	if t.remainsTTL > 0 {
		sum.Decayed = h.rooms.Decay(now.Add(-t.remainsTTL))
	}
	return sum
}

// npcTarget picks who inst attacks this tick: its first living opponent in
// the same room when engaged, otherwise a fresh target when aggressive.
func (t *Ticker) npcTarget(inst *npc.Instance) *combat.Combatant {
	h := t.handler
	roomID := inst.RoomID()
	if h.engine.InCombat(inst.ID) {
		for _, id := range h.engine.Opponents(inst.ID) {
			c, ok := h.engine.Get(id)
			if !ok {
				continue
			}
			c.Lock()
			ok = !c.Dead && c.RoomID == roomID
			c.Unlock()
			if ok {
				return c
			}
		}
		return nil
	}
	return npc.SelectTarget(inst, h.playersIn(roomID), h.engine)
}

func bleedEvent(roomID string, c *combat.Combatant, rep combat.TickReport) *CombatEvent {
	locs := make([]critical.BodyPart, 0, len(rep.Bleed.Locations))
	for loc, amount := range rep.Bleed.Locations {
		if amount > 0 {
			locs = append(locs, loc)
		}
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i] < locs[j] })
	names := make([]string, len(locs))
	for i, loc := range locs {
		names[i] = loc.Display()
	}
	health, _ := healthOf(c)
	msg := fmt.Sprintf("%s bleeds.", c.Name)
	if len(names) > 0 {
		msg = fmt.Sprintf("Blood seeps from %s's %s.", c.Name, joinList(names))
	}
	return &CombatEvent{
		Type:         EventBleed,
		RoomID:       roomID,
		Target:       c.Name,
		Damage:       rep.Bleed.Total,
		TargetHealth: health,
		Narrative:    msg,
	}
}

// joinList joins items as "a", "a and b" or "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := items[0]
	for _, s := range items[1 : len(items)-1] {
		out += ", " + s
	}
	return out + " and " + items[len(items)-1]
}
