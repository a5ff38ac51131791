package presence

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlMapFile is the YAML structure for local map fixtures used in dev mode,
// where the server runs without a realm database.
type yamlMapFile struct {
	Rooms []map[string]any `yaml:"rooms"`
	Spawn SpawnPoint       `yaml:"spawnpoint"`
}

// LoadMapFile reads and validates a YAML map fixture.
//
// Precondition: path must point to a YAML file with a rooms list and a
// spawnpoint.
// Postcondition: Returns a validated MapData or a non-nil error.
func LoadMapFile(path string) (MapData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MapData{}, fmt.Errorf("reading map file %s: %w", path, err)
	}
	m, err := LoadMapBytes(data)
	if err != nil {
		return MapData{}, fmt.Errorf("map file %s: %w", path, err)
	}
	return m, nil
}

// LoadMapBytes parses and validates a map fixture from YAML bytes.
func LoadMapBytes(data []byte) (MapData, error) {
	var file yamlMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return MapData{}, fmt.Errorf("parsing map YAML: %w", err)
	}

	m := MapData{
		Rooms: make([]json.RawMessage, 0, len(file.Rooms)),
		Spawn: file.Spawn,
	}
	for i, room := range file.Rooms {
		b, err := json.Marshal(room)
		if err != nil {
			return MapData{}, fmt.Errorf("encoding room %d: %w", i, err)
		}
		m.Rooms = append(m.Rooms, b)
	}

	if err := m.Validate(); err != nil {
		return MapData{}, err
	}
	return m, nil
}
