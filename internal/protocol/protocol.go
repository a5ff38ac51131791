// Package protocol defines the JSON wire protocol between clients and the
// realm server: the closed set of inbound client events, the outbound server
// events, and the decode dispatch that routes between them.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound message types (client -> server).
const (
	TypeJoinRealm   = "joinRealm"
	TypeMovePlayer  = "movePlayer"
	TypeTeleport    = "teleport"
	TypeChangedSkin = "changedSkin"
	TypeSendMessage = "sendMessage"
)

// Outbound message types (server -> client).
const (
	TypeFailedToJoinRoom  = "failedToJoinRoom"
	TypeJoinedRealm       = "joinedRealm"
	TypePlayerJoinedRoom  = "playerJoinedRoom"
	TypePlayerLeftRoom    = "playerLeftRoom"
	TypePlayerMoved       = "playerMoved"
	TypePlayerTeleported  = "playerTeleported"
	TypePlayerChangedSkin = "playerChangedSkin"
	TypeReceiveMessage    = "receiveMessage"
	TypeProximityUpdate   = "proximityUpdate"
	TypeError             = "error"
)

// ErrUnknownType reports an inbound message whose type is not part of the
// protocol. The connection handler answers with an error event and keeps
// the connection open.
var ErrUnknownType = errors.New("unknown message type")

// Inbound is implemented by every decoded client message.
type Inbound interface {
	inbound()
}

// Decode routes a raw client message to its typed form. Unknown types yield
// ErrUnknownType; field-level decode failures yield a wrapped error.
func Decode(b []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decoding message envelope: %w", err)
	}

	switch env.Type {
	case TypeJoinRealm:
		return decodeAs[JoinRealm](b, env.Type)
	case TypeMovePlayer:
		return decodeAs[MovePlayer](b, env.Type)
	case TypeTeleport:
		return decodeAs[Teleport](b, env.Type)
	case TypeChangedSkin:
		return decodeAs[ChangedSkin](b, env.Type)
	case TypeSendMessage:
		return decodeAs[SendMessage](b, env.Type)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeAs[T Inbound](b []byte, typ string) (Inbound, error) {
	var m T
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", typ, err)
	}
	return m, nil
}

// Marshal encodes an outbound event for the wire.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return b, nil
}
