// Package world holds the static arena map (zones and rooms with their NPC
// spawns) and the live room state combat needs: who stands where and the
// remains left behind by the dead.
package world

import (
	"fmt"
	"time"
)

// RoomSpawnConfig defines how many instances of an NPC template should exist
// in a room and how long to wait before respawning a dead one.
type RoomSpawnConfig struct {
	// Template is the NPC template ID to spawn.
	Template string
	// Count is the maximum number of live instances of this template in the room.
	Count int
	// RespawnAfter overrides the template's respawn delay. Zero means use the
	// template's default.
	RespawnAfter time.Duration
}

// Room is a location where combatants meet.
type Room struct {
	ID          string
	ZoneID      string
	Title       string
	Description string
	Spawns      []RoomSpawnConfig
}

// Zone groups related rooms.
type Zone struct {
	ID          string
	Name        string
	Description string
	// StartRoom is where new players are placed.
	StartRoom string
	Rooms     map[string]*Room
	// ScriptDir holds the zone's Lua hooks. Empty means no scripts.
	ScriptDir string
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.StartRoom == "" {
		return fmt.Errorf("zone %q: start_room must not be empty", z.ID)
	}
	if len(z.Rooms) == 0 {
		return fmt.Errorf("zone %q: must contain at least one room", z.ID)
	}
	if _, ok := z.Rooms[z.StartRoom]; !ok {
		return fmt.Errorf("zone %q: start_room %q not found in rooms", z.ID, z.StartRoom)
	}
	for id, room := range z.Rooms {
		if room.ID != id {
			return fmt.Errorf("zone %q: room key %q does not match room ID %q", z.ID, id, room.ID)
		}
		if room.Title == "" {
			return fmt.Errorf("zone %q: room %q: title must not be empty", z.ID, id)
		}
		for i, sp := range room.Spawns {
			if sp.Template == "" {
				return fmt.Errorf("zone %q: room %q: spawn[%d] has empty template", z.ID, id, i)
			}
			if sp.Count < 1 {
				return fmt.Errorf("zone %q: room %q: spawn[%d] count must be >= 1", z.ID, id, i)
			}
		}
	}
	return nil
}
