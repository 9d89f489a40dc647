package npc

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
)

// Manager tracks all live NPC instances by ID and by room.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance       // instanceID → Instance
	roomSets  map[string]map[string]bool // roomID → set of instanceIDs
	counter   atomic.Uint64
	registry  *armory.Registry
}

// NewManager creates an empty NPC Manager that resolves weapon and armor IDs
// through reg.
//
// Precondition: reg must be non-nil.
func NewManager(reg *armory.Registry) *Manager {
	return &Manager{
		instances: make(map[string]*Instance),
		roomSets:  make(map[string]map[string]bool),
		registry:  reg,
	}
}

// Spawn creates a new Instance from tmpl and places it in roomID.
//
// Precondition: tmpl must be non-nil; roomID must be non-empty.
// Postcondition: Returns a new Instance with a unique ID registered in roomID.
func (m *Manager) Spawn(tmpl *Template, roomID string) (*Instance, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: tmpl must not be nil")
	}
	if roomID == "" {
		return nil, fmt.Errorf("npc.Manager.Spawn: roomID must not be empty")
	}

	n := m.counter.Add(1)
	id := fmt.Sprintf("%s-%s-%d", tmpl.ID, roomID, n)
	inst := NewInstance(id, tmpl, roomID, m.registry)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[id] = inst
	if m.roomSets[roomID] == nil {
		m.roomSets[roomID] = make(map[string]bool)
	}
	m.roomSets[roomID][id] = true

	return inst, nil
}

// Remove deletes an instance by ID.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}

	roomID := inst.RoomID()
	if rs, ok := m.roomSets[roomID]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(m.roomSets, roomID)
		}
	}
	delete(m.instances, id)
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// InstancesInRoom returns a snapshot of all live instances in roomID,
// ordered by ID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) InstancesInRoom(roomID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.roomSets[roomID]
	if !ok {
		return []*Instance{}
	}

	out := make([]*Instance, 0, len(ids))
	for id := range ids {
		if inst, ok := m.instances[id]; ok {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every live instance ordered by ID.
func (m *Manager) All() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindInRoom returns the living instance in roomID, lowest ID first, whose
// Name has target as a case-insensitive prefix. Returns nil if no match is found.
//
// Precondition: roomID and target must be non-empty for meaningful results.
func (m *Manager) FindInRoom(roomID, target string) *Instance {
	lower := strings.ToLower(target)
	for _, inst := range m.InstancesInRoom(roomID) {
		if inst.IsDead() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(inst.Name), lower) {
			return inst
		}
	}
	return nil
}
