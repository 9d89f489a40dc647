package world

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validZoneYAML = `
zone:
  id: arena
  name: "The Pit"
  description: "A sunken fighting pit."
  start_room: pit_floor
  script_dir: scripts/arena
  rooms:
    - id: pit_floor
      title: "Pit Floor"
      description: |
        Packed sand, dark in places.
        The crowd jeers from above.
      spawns:
        - template: wolf
          count: 2
          respawn_after: 3m
        - template: guard
          count: 1
    - id: holding_cell
      title: "Holding Cell"
      description: "Iron bars and straw."
`

func TestLoadZoneFromBytes_Valid(t *testing.T) {
	zone, err := LoadZoneFromBytes([]byte(validZoneYAML))
	require.NoError(t, err)

	assert.Equal(t, "arena", zone.ID)
	assert.Equal(t, "pit_floor", zone.StartRoom)
	assert.Equal(t, "scripts/arena", zone.ScriptDir)
	require.Len(t, zone.Rooms, 2)

	room := zone.Rooms["pit_floor"]
	require.NotNil(t, room)
	assert.Equal(t, "arena", room.ZoneID)
	assert.Equal(t, "Packed sand, dark in places.\nThe crowd jeers from above.", room.Description)
	require.Len(t, room.Spawns, 2)
	assert.Equal(t, RoomSpawnConfig{Template: "wolf", Count: 2, RespawnAfter: 3 * time.Minute}, room.Spawns[0])
	assert.Zero(t, room.Spawns[1].RespawnAfter)
}

func TestLoadZoneFromBytes_BadRespawnAfter(t *testing.T) {
	data := `
zone:
  id: z
  name: Z
  start_room: a
  rooms:
    - id: a
      title: A
      spawns:
        - template: wolf
          count: 1
          respawn_after: soon
`
	_, err := LoadZoneFromBytes([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "respawn_after")
}

func TestLoadZoneFromBytes_InvalidZones(t *testing.T) {
	cases := map[string]string{
		"missing start room": "zone:\n  id: z\n  name: Z\n  start_room: nope\n  rooms:\n    - id: a\n      title: A\n",
		"no rooms":           "zone:\n  id: z\n  name: Z\n  start_room: a\n",
		"zero spawn count":   "zone:\n  id: z\n  name: Z\n  start_room: a\n  rooms:\n    - id: a\n      title: A\n      spawns:\n        - template: wolf\n",
		"not yaml":           ":::",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadZoneFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadZonesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arena.yaml"), []byte(validZoneYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# ignored"), 0644))

	zones, err := LoadZonesFromDir(dir)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "arena", zones[0].ID)
}

func TestLoadZonesFromDir_Empty(t *testing.T) {
	_, err := LoadZonesFromDir(t.TempDir())
	assert.Error(t, err)
}
