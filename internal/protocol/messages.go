package protocol

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/openrealms/server/internal/game/presence"
)

// RealmID accepts both string and numeric JSON encodings; older clients send
// the numeric database id.
type RealmID string

func (r *RealmID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*r = RealmID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = RealmID(n.String())
	return nil
}

// JoinRealm asks to enter a realm.
type JoinRealm struct {
	RealmID RealmID `json:"realmId"`
}

// MovePlayer reports a new position within the current room.
type MovePlayer struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Teleport jumps to a (possibly different) room at the given tile.
type Teleport struct {
	RoomIndex int `json:"roomIndex"`
	X         int `json:"x"`
	Y         int `json:"y"`
}

// ChangedSkin switches the sender's avatar skin.
type ChangedSkin struct {
	Skin string `json:"skin"`
}

// SendMessage is a room-wide chat message.
type SendMessage struct {
	Message string `json:"message"`
}

func (JoinRealm) inbound()   {}
func (MovePlayer) inbound()  {}
func (Teleport) inbound()    {}
func (ChangedSkin) inbound() {}
func (SendMessage) inbound() {}

// MaxChatLen is the longest accepted chat message, in characters.
const MaxChatLen = 300

// ValidateChat trims the message and reports whether it is acceptable:
// non-empty and at most MaxChatLen characters after trimming. Rejected
// messages are dropped silently, with no event back to the sender.
func ValidateChat(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxChatLen {
		return "", false
	}
	return trimmed, true
}

// FailedToJoinRoom tells the sender why a join was refused.
type FailedToJoinRoom struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewFailedToJoinRoom(reason string) FailedToJoinRoom {
	return FailedToJoinRoom{Type: TypeFailedToJoinRoom, Reason: reason}
}

// JoinedRealm confirms a join with the sender's own record and a snapshot of
// the spawn room's occupants (the sender included).
type JoinedRealm struct {
	Type    string            `json:"type"`
	Player  presence.Player   `json:"player"`
	Players []presence.Player `json:"players"`
}

func NewJoinedRealm(player presence.Player, players []presence.Player) JoinedRealm {
	return JoinedRealm{Type: TypeJoinedRealm, Player: player, Players: players}
}

// PlayerJoinedRoom announces a new occupant to the rest of the room.
type PlayerJoinedRoom struct {
	Type   string          `json:"type"`
	Player presence.Player `json:"player"`
}

func NewPlayerJoinedRoom(player presence.Player) PlayerJoinedRoom {
	return PlayerJoinedRoom{Type: TypePlayerJoinedRoom, Player: player}
}

// PlayerLeftRoom announces a departure to the rest of the room.
type PlayerLeftRoom struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
}

func NewPlayerLeftRoom(uid string) PlayerLeftRoom {
	return PlayerLeftRoom{Type: TypePlayerLeftRoom, UID: uid}
}

// PlayerMoved carries a peer's new coordinates.
type PlayerMoved struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func NewPlayerMoved(uid string, x, y int) PlayerMoved {
	return PlayerMoved{Type: TypePlayerMoved, UID: uid, X: x, Y: y}
}

// PlayerTeleported is PlayerMoved with a distinct tag, so clients skip the
// walk animation. Same payload, no server-side behavioral difference.
type PlayerTeleported struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func NewPlayerTeleported(uid string, x, y int) PlayerTeleported {
	return PlayerTeleported{Type: TypePlayerTeleported, UID: uid, X: x, Y: y}
}

// PlayerChangedSkin announces a peer's new skin.
type PlayerChangedSkin struct {
	Type string `json:"type"`
	UID  string `json:"uid"`
	Skin string `json:"skin"`
}

func NewPlayerChangedSkin(uid, skin string) PlayerChangedSkin {
	return PlayerChangedSkin{Type: TypePlayerChangedSkin, UID: uid, Skin: skin}
}

// ReceiveMessage delivers a chat line to the whole room, sender included.
type ReceiveMessage struct {
	Type     string `json:"type"`
	UID      string `json:"uid"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

func NewReceiveMessage(uid, username, message string) ReceiveMessage {
	return ReceiveMessage{Type: TypeReceiveMessage, UID: uid, Username: username, Message: message}
}

// ProximityUpdate tells one player their current audio/video group; nil means
// they are out of range of everyone.
type ProximityUpdate struct {
	Type        string  `json:"type"`
	ProximityID *string `json:"proximityId"`
}

func NewProximityUpdate(proximityID *string) ProximityUpdate {
	return ProximityUpdate{Type: TypeProximityUpdate, ProximityID: proximityID}
}

// ErrorEvent reports a protocol-level problem back to the sender. The
// connection stays open.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
