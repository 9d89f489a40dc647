package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

type yamlZone struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	StartRoom   string     `yaml:"start_room"`
	ScriptDir   string     `yaml:"script_dir"`
	Rooms       []yamlRoom `yaml:"rooms"`
}

type yamlRoom struct {
	ID          string      `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Spawns      []yamlSpawn `yaml:"spawns"`
}

type yamlSpawn struct {
	Template     string `yaml:"template"`
	Count        int    `yaml:"count"`
	RespawnAfter string `yaml:"respawn_after"`
}

// LoadZoneFromFile reads and validates a single zone YAML file.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	return LoadZoneFromBytes(data)
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes.
//
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	var file yamlZoneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone, err := convertYAMLZone(file.Zone)
	if err != nil {
		return nil, err
	}
	if err := zone.Validate(); err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}
	return zone, nil
}

// LoadZonesFromDir loads all YAML files in a directory as zones.
//
// Postcondition: Returns all validated zones or the first error encountered;
// a directory without zone files is an error.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zone directory %s: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		zone, err := LoadZoneFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", name, err)
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", dir)
	}
	return zones, nil
}

func convertYAMLZone(yz yamlZone) (*Zone, error) {
	zone := &Zone{
		ID:          yz.ID,
		Name:        yz.Name,
		Description: yz.Description,
		StartRoom:   yz.StartRoom,
		ScriptDir:   yz.ScriptDir,
		Rooms:       make(map[string]*Room, len(yz.Rooms)),
	}

	for _, yr := range yz.Rooms {
		room := &Room{
			ID:          yr.ID,
			ZoneID:      yz.ID,
			Title:       yr.Title,
			Description: strings.TrimSpace(yr.Description),
		}
		for _, ys := range yr.Spawns {
			var after time.Duration
			if ys.RespawnAfter != "" {
				d, err := time.ParseDuration(ys.RespawnAfter)
				if err != nil {
					return nil, fmt.Errorf("zone %q: room %q: spawn %q: respawn_after: %w", yz.ID, yr.ID, ys.Template, err)
				}
				after = d
			}
			room.Spawns = append(room.Spawns, RoomSpawnConfig{
				Template:     ys.Template,
				Count:        ys.Count,
				RespawnAfter: after,
			})
		}
		zone.Rooms[room.ID] = room
	}
	return zone, nil
}
