package world

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager provides thread-safe access to the loaded world: the static rooms
// of every zone, which combatants occupy each room, and the remains lying in
// each room.
type Manager struct {
	mu        sync.RWMutex
	zones     map[string]*Zone
	rooms     map[string]*Room
	startRoom string

	occupants map[string]map[string]bool // roomID → set of combatant IDs
	locations map[string]string          // combatant ID → roomID
	remains   map[string][]*Remains      // roomID → remains, oldest first
}

// NewManager creates a Manager from the given zones.
//
// Precondition: the first zone's start room is the global start room.
// Postcondition: Returns a Manager with all rooms indexed by ID, or an error on duplicate IDs.
func NewManager(zones []*Zone) (*Manager, error) {
	m := &Manager{
		zones:     make(map[string]*Zone, len(zones)),
		rooms:     make(map[string]*Room),
		occupants: make(map[string]map[string]bool),
		locations: make(map[string]string),
		remains:   make(map[string][]*Remains),
	}

	for _, z := range zones {
		if _, exists := m.zones[z.ID]; exists {
			return nil, fmt.Errorf("duplicate zone ID: %q", z.ID)
		}
		m.zones[z.ID] = z
		for id, room := range z.Rooms {
			if existing, exists := m.rooms[id]; exists {
				return nil, fmt.Errorf("duplicate room ID %q: in zone %q and %q", id, existing.ZoneID, z.ID)
			}
			m.rooms[id] = room
		}
	}

	if len(zones) > 0 {
		m.startRoom = zones[0].StartRoom
	}
	return m, nil
}

// GetRoom returns the room with the given ID.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// StartRoom returns the global start room, or nil if the world is empty.
func (m *Manager) StartRoom() *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.startRoom == "" {
		return nil
	}
	return m.rooms[m.startRoom]
}

// RoomCount returns the total number of rooms across all zones.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// ZoneCount returns the number of loaded zones.
func (m *Manager) ZoneCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.zones)
}

// AllZones returns all loaded zones ordered by ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Manager) AllZones() []*Zone {
	m.mu.RLock()
	defer m.mu.RUnlock()
	zones := make([]*Zone, 0, len(m.zones))
	for _, z := range m.zones {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })
	return zones
}

// Enter places combatant id in roomID, leaving whatever room it was in.
//
// Precondition: roomID must name a loaded room.
// Postcondition: Location(id) == roomID.
func (m *Manager) Enter(id, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return fmt.Errorf("room %q not found", roomID)
	}
	m.leaveLocked(id)
	if m.occupants[roomID] == nil {
		m.occupants[roomID] = make(map[string]bool)
	}
	m.occupants[roomID][id] = true
	m.locations[id] = roomID
	return nil
}

// Leave removes combatant id from the world. Unknown IDs are ignored.
func (m *Manager) Leave(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(id)
}

func (m *Manager) leaveLocked(id string) {
	roomID, ok := m.locations[id]
	if !ok {
		return
	}
	delete(m.locations, id)
	if set := m.occupants[roomID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(m.occupants, roomID)
		}
	}
}

// Location returns the room combatant id occupies.
func (m *Manager) Location(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomID, ok := m.locations[id]
	return roomID, ok
}

// Occupants returns the IDs of every combatant in roomID, sorted.
//
// Postcondition: Returns a non-nil slice.
func (m *Manager) Occupants(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.occupants[roomID]))
	for id := range m.occupants[roomID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SpawnRemains leaves a lootable remains record for a dead combatant in roomID.
//
// Precondition: roomID must name a loaded room.
// Postcondition: The remains carry a fresh uuid and appear in Remains(roomID).
func (m *Manager) SpawnRemains(roomID, victimID, victimName string, items []RemainsItem, currency int, at time.Time) (*Remains, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return nil, fmt.Errorf("room %q not found", roomID)
	}
	r := &Remains{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		VictimID:  victimID,
		Name:      fmt.Sprintf("the remains of %s", victimName),
		Items:     append([]RemainsItem(nil), items...),
		Currency:  currency,
		CreatedAt: at,
	}
	m.remains[roomID] = append(m.remains[roomID], r)
	return r, nil
}

// Remains returns the remains lying in roomID, oldest first.
func (m *Manager) Remains(roomID string) []*Remains {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Remains(nil), m.remains[roomID]...)
}

// Decay removes every remains record created at or before cutoff and
// returns how many were removed.
func (m *Manager) Decay(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for roomID, list := range m.remains {
		kept := list[:0]
		for _, r := range list {
			if r.CreatedAt.After(cutoff) {
				kept = append(kept, r)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(m.remains, roomID)
		} else {
			m.remains[roomID] = kept
		}
	}
	return removed
}
