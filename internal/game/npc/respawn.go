package npc

import (
	"sync"
	"time"
)

// RoomSpawn is the spawn configuration for one NPC template in one room.
//
// Invariant: Max >= 1; RespawnDelay == 0 defers to the template's delay.
type RoomSpawn struct {
	TemplateID string
	// Max is the population cap: respawn is suppressed when live count >= Max.
	Max          int
	RespawnDelay time.Duration
}

type respawnEntry struct {
	templateID string
	roomID     string
	readyAt    time.Time
}

// RespawnManager schedules NPC respawns and keeps rooms populated.
//
// Concurrency: Schedule may be called from any goroutine. Tick and
// PopulateRoom must not run concurrently with each other; the zone ticker
// calls Tick and startup calls PopulateRoom.
type RespawnManager struct {
	mu        sync.Mutex
	spawns    map[string][]RoomSpawn // roomID → configs
	templates map[string]*Template   // templateID → Template
	pending   []respawnEntry
}

// NewRespawnManager creates a RespawnManager from room spawn configs and templates.
//
// Precondition: spawns and templates may be nil (manager becomes a no-op).
// Postcondition: Returns a non-nil RespawnManager.
func NewRespawnManager(spawns map[string][]RoomSpawn, templates map[string]*Template) *RespawnManager {
	if spawns == nil {
		spawns = make(map[string][]RoomSpawn)
	}
	if templates == nil {
		templates = make(map[string]*Template)
	}
	return &RespawnManager{spawns: spawns, templates: templates}
}

// Rooms returns every room that has spawn configuration.
func (r *RespawnManager) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.spawns))
	for id := range r.spawns {
		out = append(out, id)
	}
	return out
}

// PopulateRoom spawns instances until each template configured for roomID
// has Max live instances.
//
// Precondition: mgr must not be nil.
// Postcondition: Returns the instances created.
func (r *RespawnManager) PopulateRoom(roomID string, mgr *Manager) []*Instance {
	r.mu.Lock()
	configs := append([]RoomSpawn(nil), r.spawns[roomID]...)
	r.mu.Unlock()

	var spawned []*Instance
	for _, cfg := range configs {
		tmpl, ok := r.templates[cfg.TemplateID]
		if !ok {
			continue
		}
		for i := countLiving(roomID, cfg.TemplateID, mgr); i < cfg.Max; i++ {
			inst, err := mgr.Spawn(tmpl, roomID)
			if err != nil {
				continue
			}
			spawned = append(spawned, inst)
		}
	}
	return spawned
}

// Schedule enqueues a respawn for templateID in roomID at now+delay.
// No-op when delay <= 0.
func (r *RespawnManager) Schedule(templateID, roomID string, now time.Time, delay time.Duration) {
	if delay <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, respawnEntry{
		templateID: templateID,
		roomID:     roomID,
		readyAt:    now.Add(delay),
	})
}

// Pending returns the number of queued respawns.
func (r *RespawnManager) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Tick spawns every queued respawn whose time has come, subject to the
// room's population cap.
//
// Precondition: mgr must not be nil.
// Postcondition: Entries with readyAt <= now are consumed; returns the instances created.
func (r *RespawnManager) Tick(now time.Time, mgr *Manager) []*Instance {
	r.mu.Lock()
	var ready, future []respawnEntry
	for _, e := range r.pending {
		if !e.readyAt.After(now) {
			ready = append(ready, e)
		} else {
			future = append(future, e)
		}
	}
	r.pending = future
	r.mu.Unlock()

	var spawned []*Instance
	for _, e := range ready {
		tmpl, ok := r.templates[e.templateID]
		if !ok {
			continue
		}
		cfg, ok := r.configFor(e.roomID, e.templateID)
		if !ok || countLiving(e.roomID, e.templateID, mgr) >= cfg.Max {
			continue
		}
		inst, err := mgr.Spawn(tmpl, e.roomID)
		if err != nil {
			continue
		}
		spawned = append(spawned, inst)
	}
	return spawned
}

// ResolvedDelay returns the room's RespawnDelay for templateID if non-zero,
// otherwise the template's own delay. Unknown templates return 0.
func (r *RespawnManager) ResolvedDelay(templateID, roomID string) time.Duration {
	if cfg, ok := r.configFor(roomID, templateID); ok && cfg.RespawnDelay > 0 {
		return cfg.RespawnDelay
	}
	tmpl, ok := r.templates[templateID]
	if !ok {
		return 0
	}
	return tmpl.Respawn()
}

func (r *RespawnManager) configFor(roomID, templateID string) (RoomSpawn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range r.spawns[roomID] {
		if cfg.TemplateID == templateID {
			return cfg, true
		}
	}
	return RoomSpawn{}, false
}

// countLiving counts living instances of templateID in roomID. Corpses
// awaiting removal do not count against the cap.
func countLiving(roomID, templateID string, mgr *Manager) int {
	count := 0
	for _, inst := range mgr.InstancesInRoom(roomID) {
		if inst.TemplateID == templateID && !inst.IsDead() {
			count++
		}
	}
	return count
}
