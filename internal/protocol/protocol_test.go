package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_JoinRealm(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"joinRealm","realmId":"42"}`))
	require.NoError(t, err)
	join, ok := msg.(JoinRealm)
	require.True(t, ok)
	assert.Equal(t, RealmID("42"), join.RealmID)
}

func TestDecode_JoinRealmNumericID(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"joinRealm","realmId":42}`))
	require.NoError(t, err)
	join := msg.(JoinRealm)
	assert.Equal(t, RealmID("42"), join.RealmID)
}

func TestDecode_MovePlayer(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"movePlayer","x":3,"y":-1}`))
	require.NoError(t, err)
	move := msg.(MovePlayer)
	assert.Equal(t, 3, move.X)
	assert.Equal(t, -1, move.Y)
}

func TestDecode_Teleport(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"teleport","roomIndex":2,"x":1,"y":9}`))
	require.NoError(t, err)
	tp := msg.(Teleport)
	assert.Equal(t, 2, tp.RoomIndex)
	assert.Equal(t, 1, tp.X)
	assert.Equal(t, 9, tp.Y)
}

func TestDecode_ChangedSkin(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"changedSkin","skin":"013"}`))
	require.NoError(t, err)
	assert.Equal(t, ChangedSkin{Skin: "013"}, msg)
}

func TestDecode_SendMessage(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"sendMessage","message":"hi all"}`))
	require.NoError(t, err)
	assert.Equal(t, SendMessage{Message: "hi all"}, msg)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"launchMissiles"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestDecode_NonIntegerCoordinates(t *testing.T) {
	_, err := Decode([]byte(`{"type":"movePlayer","x":1.5,"y":2}`))
	assert.Error(t, err)
}

func TestValidateChat(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		accepts bool
	}{
		{"plain", "hello", "hello", true},
		{"trimmed", "  hi  ", "hi", true},
		{"empty", "", "", false},
		{"whitespace only", "   \t\n", "", false},
		{"exactly max", strings.Repeat("a", MaxChatLen), strings.Repeat("a", MaxChatLen), true},
		{"one over max", strings.Repeat("a", MaxChatLen+1), "", false},
		{"max after trim", "  " + strings.Repeat("a", MaxChatLen) + "  ", strings.Repeat("a", MaxChatLen), true},
		{"multibyte counts runes", strings.Repeat("é", MaxChatLen), strings.Repeat("é", MaxChatLen), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateChat(tt.in)
			assert.Equal(t, tt.accepts, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProximityUpdate_NullOnWire(t *testing.T) {
	b, err := Marshal(NewProximityUpdate(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"proximityUpdate","proximityId":null}`, string(b))

	id := "group-1"
	b, err = Marshal(NewProximityUpdate(&id))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"proximityUpdate","proximityId":"group-1"}`, string(b))
}

func TestOutboundEventTags(t *testing.T) {
	tests := []struct {
		event any
		typ   string
	}{
		{NewFailedToJoinRoom("full"), TypeFailedToJoinRoom},
		{NewPlayerLeftRoom("u1"), TypePlayerLeftRoom},
		{NewPlayerMoved("u1", 1, 2), TypePlayerMoved},
		{NewPlayerTeleported("u1", 1, 2), TypePlayerTeleported},
		{NewPlayerChangedSkin("u1", "007"), TypePlayerChangedSkin},
		{NewReceiveMessage("u1", "Alice", "hi"), TypeReceiveMessage},
		{NewError("bad"), TypeError},
	}
	for _, tt := range tests {
		b, err := Marshal(tt.event)
		require.NoError(t, err)
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(b, &env))
		assert.Equal(t, tt.typ, env.Type)
	}
}
