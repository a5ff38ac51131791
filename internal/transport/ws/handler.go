package ws

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/openrealms/server/internal/game/presence"
	"github.com/openrealms/server/internal/protocol"
	"github.com/openrealms/server/internal/storage"
)

// State is the per-connection protocol state.
type State int

const (
	// StateConnecting covers the pre-upgrade window. Authentication runs
	// before any Handler exists, so handlers themselves start in StateIdle.
	StateConnecting State = iota
	// StateIdle is an authenticated connection that has not joined a realm.
	StateIdle
	// StateInRealm is a connection whose user occupies a realm Session.
	StateInRealm
	// StateClosed is terminal; no further events are processed.
	StateClosed
)

// Broadcaster is the fan-out contract the handler emits through. Hub is
// the production implementation.
type Broadcaster interface {
	JoinGroup(group, connID string)
	LeaveGroup(group, connID string)
	SendToConnection(connID string, payload []byte)
	SendToGroup(group string, payload []byte, except string)
}

// Join rejection reasons shown to the client verbatim.
const (
	ReasonRealmNotFound = "Space not found."
	ReasonRealmFull     = "Space is full. It's 30 players max."
)

// Handler drives the protocol state machine for a single connection.
// Messages for one connection arrive sequentially from its read loop, so
// Handler methods are never called concurrently for the same connection.
type Handler struct {
	connID   string
	identity Identity
	state    State

	manager  *presence.Manager
	realms   storage.RealmStore
	profiles storage.ProfileStore
	hub      Broadcaster
	logger   *zap.Logger

	// roomGroup is the hub group for the player's current room; it moves
	// with the player on cross-room teleports.
	roomGroup string
}

// NewHandler creates a Handler for an authenticated connection.
//
// Precondition: identity must have been resolved by an Authenticator.
// Postcondition: Returns a Handler in StateIdle, ready for HandleMessage.
func NewHandler(connID string, identity Identity, manager *presence.Manager,
	realms storage.RealmStore, profiles storage.ProfileStore,
	hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		connID:   connID,
		identity: identity,
		state:    StateIdle,
		manager:  manager,
		realms:   realms,
		profiles: profiles,
		hub:      hub,
		logger: logger.With(
			zap.String("conn_id", connID),
			zap.String("user_id", identity.UserID),
		),
	}
}

// State returns the current protocol state.
func (h *Handler) State() State {
	return h.state
}

// HandleMessage decodes one inbound frame and applies it. Any decode or
// operation error is reported back to this connection as an error event;
// it never tears the connection down.
func (h *Handler) HandleMessage(ctx context.Context, raw []byte) {
	if h.state == StateClosed {
		return
	}

	msg, err := protocol.Decode(raw)
	if err != nil {
		h.logger.Debug("rejecting inbound message", zap.Error(err))
		h.sendError(err)
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRealm:
		err = h.joinRealm(ctx, m)
	case protocol.MovePlayer:
		h.movePlayer(m)
	case protocol.Teleport:
		err = h.teleport(m)
	case protocol.ChangedSkin:
		h.changedSkin(m)
	case protocol.SendMessage:
		h.sendMessage(m)
	}
	if err != nil {
		h.sendError(err)
	}
}

// HandleDisconnect tears down the connection's presence. Safe to call for
// a connection that never joined a realm, and safe to call twice.
//
// Postcondition: state is StateClosed and the user is logged out of the
// Session Manager (when this connection was still the user's current one).
func (h *Handler) HandleDisconnect() {
	if h.state == StateClosed {
		return
	}
	if h.roomGroup != "" {
		h.hub.LeaveGroup(h.roomGroup, h.connID)
	}

	// Notify room peers only if this connection still owns the player
	// record; a replaced connection from a reconnect must not announce a
	// departure that did not happen.
	if sess, ok := h.manager.SessionForUser(h.identity.UserID); ok {
		if player, ok := sess.Player(h.identity.UserID); ok && player.Conn == h.connID {
			h.notifyRoomExcept(sess, player.Room, protocol.NewPlayerLeftRoom(h.identity.UserID))
		}
	}

	h.manager.LogoutConn(h.connID)
	h.state = StateClosed
	h.logger.Debug("disconnected")
}

func (h *Handler) joinRealm(ctx context.Context, msg protocol.JoinRealm) error {
	realmID := string(msg.RealmID)

	info, err := h.realms.FetchRealm(ctx, realmID)
	if err != nil {
		if errors.Is(err, storage.ErrRealmNotFound) {
			h.send(protocol.NewFailedToJoinRoom(ReasonRealmNotFound))
			return nil
		}
		return fmt.Errorf("fetch realm: %w", err)
	}

	// Capacity is checked before any teardown so a rejected join leaves
	// the caller exactly where they were. A player re-joining the realm
	// they already occupy counts toward the cap.
	if sess, ok := h.manager.Session(realmID); ok && sess.PlayerCount() >= presence.MaxPlayers {
		h.send(protocol.NewFailedToJoinRoom(ReasonRealmFull))
		return nil
	}

	skin, err := h.profiles.FetchSkin(ctx, h.identity.UserID)
	if err != nil {
		return fmt.Errorf("fetch skin: %w", err)
	}

	// Moving between realms is leave-then-join: the old room's peers see
	// a departure before the new realm sees an arrival.
	if h.state == StateInRealm {
		h.leaveCurrentRealm()
	}

	h.manager.CreateSession(realmID, info.Map)
	player, err := h.manager.RegisterPlayer(h.connID, realmID, h.identity.UserID, h.identity.Username, skin)
	if err != nil {
		return fmt.Errorf("register player: %w", err)
	}

	h.roomGroup = roomGroupKey(realmID, player.Room)
	h.hub.JoinGroup(h.roomGroup, h.connID)
	h.state = StateInRealm

	sess, _ := h.manager.Session(realmID)
	occupants := sess.PlayersInRoom(player.Room)
	h.send(protocol.NewJoinedRealm(player, occupants))
	h.notifyRoomPlayersExcept(occupants, protocol.NewPlayerJoinedRoom(player))

	// Visit history is best-effort; a storage hiccup must not undo the join.
	if rec, ok := h.profiles.(storage.VisitRecorder); ok {
		if err := rec.AddVisitedRealm(ctx, h.identity.UserID, realmID); err != nil {
			h.logger.Warn("recording realm visit", zap.Error(err))
		}
	}

	h.logger.Info("joined realm",
		zap.String("realm_id", realmID),
		zap.Int("room", player.Room),
		zap.Int("occupants", len(occupants)),
	)
	return nil
}

func (h *Handler) movePlayer(msg protocol.MovePlayer) {
	sess, player, ok := h.currentPlayer()
	if !ok {
		return
	}

	changed := sess.MovePlayer(h.identity.UserID, msg.X, msg.Y)

	h.notifyRoomExcept(sess, player.Room, protocol.NewPlayerMoved(h.identity.UserID, msg.X, msg.Y))
	h.notifyProximity(sess, changed)
}

func (h *Handler) teleport(msg protocol.Teleport) error {
	sess, player, ok := h.currentPlayer()
	if !ok {
		return nil
	}

	// The target room is checked before any broadcast: peers must never
	// hear a departure for a teleport that is then rejected.
	if msg.RoomIndex < 0 || msg.RoomIndex >= sess.RoomCount() {
		return fmt.Errorf("room %d out of range (map has %d rooms)", msg.RoomIndex, sess.RoomCount())
	}

	if player.Room == msg.RoomIndex {
		// Same-room teleport is a position change announced with its own
		// event type so clients skip walk animation.
		changed := sess.MovePlayer(h.identity.UserID, msg.X, msg.Y)
		h.notifyRoomExcept(sess, msg.RoomIndex, protocol.NewPlayerTeleported(h.identity.UserID, msg.X, msg.Y))
		h.notifyProximity(sess, changed)
		return nil
	}

	h.notifyRoomExcept(sess, player.Room, protocol.NewPlayerLeftRoom(h.identity.UserID))

	changed, err := sess.ChangeRoom(h.identity.UserID, msg.RoomIndex, msg.X, msg.Y)
	if err != nil {
		return err
	}

	h.hub.LeaveGroup(h.roomGroup, h.connID)
	h.roomGroup = roomGroupKey(sess.RealmID(), msg.RoomIndex)
	h.hub.JoinGroup(h.roomGroup, h.connID)

	if moved, ok := sess.Player(h.identity.UserID); ok {
		h.notifyRoomExcept(sess, msg.RoomIndex, protocol.NewPlayerJoinedRoom(moved))
	}
	h.notifyProximity(sess, changed)
	return nil
}

func (h *Handler) changedSkin(msg protocol.ChangedSkin) {
	sess, player, ok := h.currentPlayer()
	if !ok {
		return
	}
	if !sess.SetSkin(h.identity.UserID, msg.Skin) {
		return
	}
	h.notifyRoomExcept(sess, player.Room, protocol.NewPlayerChangedSkin(h.identity.UserID, msg.Skin))
}

func (h *Handler) sendMessage(msg protocol.SendMessage) {
	text, ok := protocol.ValidateChat(msg.Message)
	if !ok {
		return
	}
	_, player, ok := h.currentPlayer()
	if !ok {
		return
	}

	// Chat is the one event the sender receives too, so it goes through
	// the room group with nobody excluded.
	payload, err := protocol.Marshal(protocol.NewReceiveMessage(h.identity.UserID, player.Username, text))
	if err != nil {
		h.logger.Error("marshal chat event", zap.Error(err))
		return
	}
	h.hub.SendToGroup(h.roomGroup, payload, "")
}

// leaveCurrentRealm removes the player from their current realm and
// announces the departure, as the first half of a realm-to-realm move.
func (h *Handler) leaveCurrentRealm() {
	if sess, ok := h.manager.SessionForUser(h.identity.UserID); ok {
		if player, ok := sess.Player(h.identity.UserID); ok {
			h.notifyRoomExcept(sess, player.Room, protocol.NewPlayerLeftRoom(h.identity.UserID))
		}
	}
	h.manager.LogoutUser(h.identity.UserID)
	if h.roomGroup != "" {
		h.hub.LeaveGroup(h.roomGroup, h.connID)
		h.roomGroup = ""
	}
	h.state = StateIdle
}

// currentPlayer resolves the caller's session and player record. Events
// from connections with no presence are ignored, not errors.
func (h *Handler) currentPlayer() (*presence.Session, presence.Player, bool) {
	if h.state != StateInRealm {
		return nil, presence.Player{}, false
	}
	sess, ok := h.manager.SessionForUser(h.identity.UserID)
	if !ok {
		return nil, presence.Player{}, false
	}
	player, ok := sess.Player(h.identity.UserID)
	if !ok {
		return nil, presence.Player{}, false
	}
	return sess, player, true
}

// notifyRoomExcept delivers an event to every occupant of the room except
// this handler's own user.
func (h *Handler) notifyRoomExcept(sess *presence.Session, room int, event any) {
	h.notifyRoomPlayersExcept(sess.PlayersInRoom(room), event)
}

func (h *Handler) notifyRoomPlayersExcept(occupants []presence.Player, event any) {
	payload, err := protocol.Marshal(event)
	if err != nil {
		h.logger.Error("marshal room event", zap.Error(err))
		return
	}
	for _, p := range occupants {
		if p.UID == h.identity.UserID {
			continue
		}
		h.hub.SendToConnection(p.Conn, payload)
	}
}

// notifyProximity pushes each changed player their own new group id.
// Only players whose group actually changed hear about it.
func (h *Handler) notifyProximity(sess *presence.Session, changed []string) {
	for _, uid := range changed {
		player, ok := sess.Player(uid)
		if !ok {
			continue
		}
		payload, err := protocol.Marshal(protocol.NewProximityUpdate(player.ProximityID))
		if err != nil {
			h.logger.Error("marshal proximity event", zap.Error(err))
			continue
		}
		h.hub.SendToConnection(player.Conn, payload)
	}
}

func (h *Handler) send(event any) {
	payload, err := protocol.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}
	h.hub.SendToConnection(h.connID, payload)
}

func (h *Handler) sendError(err error) {
	h.logger.Warn("request failed", zap.Error(err))
	h.send(protocol.NewError(err.Error()))
}

func roomGroupKey(realmID string, room int) string {
	return fmt.Sprintf("realm_%s_room_%d", realmID, room)
}
