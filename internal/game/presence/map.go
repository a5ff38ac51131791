// Package presence provides the in-memory realm session engine: per-realm
// player registries, room occupancy and spatial indexing, and the proximity
// grouping that drives spatial audio/video clustering.
package presence

import (
	"encoding/json"
	"fmt"
)

// SpawnPoint is the room and tile where new players appear.
type SpawnPoint struct {
	RoomIndex int `json:"roomIndex" yaml:"roomIndex"`
	X         int `json:"x" yaml:"x"`
	Y         int `json:"y" yaml:"y"`
}

// MapData describes a realm's map: its rooms and the spawn point. Room
// contents (tiles, decorations) are opaque to the server; only the room count
// and the spawn point matter for presence tracking.
type MapData struct {
	Rooms []json.RawMessage `json:"rooms"`
	Spawn SpawnPoint        `json:"spawnpoint"`
}

// RoomCount returns the number of rooms in the map.
func (m MapData) RoomCount() int {
	return len(m.Rooms)
}

// Validate checks that the map has at least one room and that the spawn point
// refers to one of them.
//
// Postcondition: Returns nil if the map is usable for a Session.
func (m MapData) Validate() error {
	if len(m.Rooms) == 0 {
		return fmt.Errorf("map has no rooms")
	}
	if m.Spawn.RoomIndex < 0 || m.Spawn.RoomIndex >= len(m.Rooms) {
		return fmt.Errorf("spawn room %d out of range (map has %d rooms)", m.Spawn.RoomIndex, len(m.Rooms))
	}
	return nil
}

// ParseMapData decodes a JSON map descriptor as stored by the realm editor.
//
// Postcondition: Returns a validated MapData or a non-nil error.
func ParseMapData(b []byte) (MapData, error) {
	var m MapData
	if err := json.Unmarshal(b, &m); err != nil {
		return MapData{}, fmt.Errorf("decoding map data: %w", err)
	}
	if err := m.Validate(); err != nil {
		return MapData{}, err
	}
	return m, nil
}
