package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrealms/server/internal/game/presence"
	"github.com/openrealms/server/internal/storage"
)

func testRealm(t *testing.T) storage.RealmInfo {
	t.Helper()
	md, err := presence.ParseMapData(json.RawMessage(`{"rooms":[{}],"spawnpoint":{"roomIndex":0,"x":1,"y":2}}`))
	require.NoError(t, err)
	return storage.RealmInfo{Map: md, OwnerID: "owner"}
}

func TestRealmStore_FetchRealm(t *testing.T) {
	s := NewRealmStore()
	s.Put("42", testRealm(t))

	info, err := s.FetchRealm(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "owner", info.OwnerID)
	assert.Equal(t, 1, info.Map.RoomCount())
}

func TestRealmStore_FetchRealmMissing(t *testing.T) {
	s := NewRealmStore()
	_, err := s.FetchRealm(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrRealmNotFound)
}

func TestProfileStore_FetchSkinDefaults(t *testing.T) {
	s := NewProfileStore()
	skin, err := s.FetchSkin(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultSkin, skin)
}

func TestProfileStore_SetSkin(t *testing.T) {
	s := NewProfileStore()
	s.SetSkin("u1", "014")
	skin, err := s.FetchSkin(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "014", skin)
}
