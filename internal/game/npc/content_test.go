package npc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/combatcore/internal/game/armory"
	"github.com/cory-johannsen/combatcore/internal/game/critical"
	"github.com/cory-johannsen/combatcore/internal/game/npc"
	"github.com/cory-johannsen/combatcore/internal/game/stats"
	"github.com/cory-johannsen/combatcore/internal/game/world"
)

const contentDir = "../../../content"

func loadContentArmory(t *testing.T) *armory.Registry {
	t.Helper()
	reg, err := armory.LoadRegistry(armory.Dirs{
		Weapons: filepath.Join(contentDir, "weapons"),
		Armor:   filepath.Join(contentDir, "armor"),
		Shields: filepath.Join(contentDir, "shields"),
	}, zaptest.NewLogger(t))
	require.NoError(t, err, "content armory should load without error")
	return reg
}

// TestContent_ReferenceDataLoads verifies every shipped reference file parses and validates.
func TestContent_ReferenceDataLoads(t *testing.T) {
	loadContentArmory(t)

	races, err := stats.LoadRaceTable(filepath.Join(contentDir, "races.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, races.Modifier("dwarf", stats.Strength))

	table, err := critical.LoadTable(filepath.Join(contentDir, "criticals"))
	require.NoError(t, err)
	assert.Positive(t, table.Len())
	e, ok := table.Lookup(armory.Slash, critical.RightEye, 4)
	require.True(t, ok, "sided rows expand to both eyes")
	assert.Equal(t, "{target}'s right eye is slashed!", e.Message)

	th, err := critical.LoadThresholds(filepath.Join(contentDir, "fatal_thresholds.yaml"))
	require.NoError(t, err)
	rank, ok := th.Threshold(armory.Slash, critical.LeftEye)
	require.True(t, ok)
	assert.Equal(t, 8, rank)
}

// TestContent_NPCEquipmentResolves verifies every NPC weapon and armor ID names
// a registered armory base rather than falling back.
func TestContent_NPCEquipmentResolves(t *testing.T) {
	reg := loadContentArmory(t)
	templates, err := npc.LoadTemplates(filepath.Join(contentDir, "npcs"))
	require.NoError(t, err)
	require.NotEmpty(t, templates)

	for _, tmpl := range templates {
		if tmpl.Weapon != "" {
			assert.Equal(t, tmpl.Weapon, reg.Weapon(tmpl.Weapon).ID, "npc %q weapon", tmpl.ID)
		}
		if tmpl.Armor != "" {
			assert.Equal(t, tmpl.Armor, reg.Armor(tmpl.Armor).ID, "npc %q armor", tmpl.ID)
		}
	}
}

// TestContent_ZoneSpawnsResolve verifies every room spawn names a known NPC
// template and every zone script directory exists.
func TestContent_ZoneSpawnsResolve(t *testing.T) {
	templates, err := npc.LoadTemplates(filepath.Join(contentDir, "npcs"))
	require.NoError(t, err)
	known := make(map[string]bool, len(templates))
	for _, tmpl := range templates {
		known[tmpl.ID] = true
	}

	zonesDir := filepath.Join(contentDir, "zones")
	zones, err := world.LoadZonesFromDir(zonesDir)
	require.NoError(t, err)
	_, err = world.NewManager(zones)
	require.NoError(t, err)

	for _, z := range zones {
		for _, room := range z.Rooms {
			for _, sp := range room.Spawns {
				assert.True(t, known[sp.Template], "zone %q room %q spawns unknown template %q", z.ID, room.ID, sp.Template)
				assert.Positive(t, sp.Count)
			}
		}
		if z.ScriptDir != "" {
			info, err := os.Stat(filepath.Join(zonesDir, z.ScriptDir))
			require.NoError(t, err, "zone %q script_dir", z.ID)
			assert.True(t, info.IsDir())
		}
	}
}
