package presence

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func TestParseMapData(t *testing.T) {
	m, err := ParseMapData([]byte(`{
		"rooms": [{"name": "lobby"}, {"name": "garden"}],
		"spawnpoint": {"roomIndex": 1, "x": 4, "y": 9}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 2, m.RoomCount())
	assert.Equal(t, SpawnPoint{RoomIndex: 1, X: 4, Y: 9}, m.Spawn)
}

func TestParseMapData_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"rooms": [`},
		{"no rooms", `{"rooms": [], "spawnpoint": {"roomIndex": 0, "x": 0, "y": 0}}`},
		{"spawn out of range", `{"rooms": [{}], "spawnpoint": {"roomIndex": 3, "x": 0, "y": 0}}`},
		{"negative spawn room", `{"rooms": [{}], "spawnpoint": {"roomIndex": -1, "x": 0, "y": 0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapData([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMapBytes(t *testing.T) {
	m, err := LoadMapBytes([]byte(`
rooms:
  - name: lobby
  - name: garden
spawnpoint:
  roomIndex: 0
  x: 12
  y: 7
`))
	require.NoError(t, err)
	assert.Equal(t, 2, m.RoomCount())
	assert.Equal(t, SpawnPoint{RoomIndex: 0, X: 12, Y: 7}, m.Spawn)
}

func TestLoadMapBytes_Invalid(t *testing.T) {
	_, err := LoadMapBytes([]byte(`rooms: []`))
	assert.Error(t, err)

	_, err = LoadMapBytes([]byte(`{not yaml`))
	assert.Error(t, err)
}

func TestLoadMapFile_Missing(t *testing.T) {
	_, err := LoadMapFile("does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadMapFile(t *testing.T) {
	path := t.TempDir() + "/map.yaml"
	data := []byte("rooms:\n  - name: lobby\nspawnpoint:\n  roomIndex: 0\n  x: 1\n  y: 2\n")
	require.NoError(t, writeFile(path, data))

	m, err := LoadMapFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RoomCount())
}
