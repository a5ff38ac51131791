package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openrealms/server/internal/game/presence"
	"github.com/openrealms/server/internal/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the app origin; the reverse proxy in
	// front of this server enforces origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Endpoint is the HTTP entry point for game websocket connections. It
// authenticates, upgrades, and runs one read loop per connection.
type Endpoint struct {
	auth     Authenticator
	manager  *presence.Manager
	realms   storage.RealmStore
	profiles storage.ProfileStore
	hub      *Hub
	logger   *zap.Logger
}

// NewEndpoint wires an Endpoint from its collaborators.
func NewEndpoint(auth Authenticator, manager *presence.Manager,
	realms storage.RealmStore, profiles storage.ProfileStore,
	hub *Hub, logger *zap.Logger) *Endpoint {
	return &Endpoint{
		auth:     auth,
		manager:  manager,
		realms:   realms,
		profiles: profiles,
		hub:      hub,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler. Unauthenticated requests are
// rejected before the upgrade, so the client sees a plain 401 and never
// a websocket close frame.
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := e.auth.Authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own error response.
		e.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	client := NewClient(connID, conn, e.logger)
	e.hub.Add(connID, client)
	go client.WritePump()

	handler := NewHandler(connID, identity, e.manager, e.realms, e.profiles, e.hub, e.logger)
	e.logger.Info("connection established",
		zap.String("conn_id", connID),
		zap.String("user_id", identity.UserID),
	)

	go e.readLoop(conn, client, handler)
}

// readLoop pumps inbound frames into the handler until the connection
// drops, then tears down presence state before releasing the connection.
func (e *Endpoint) readLoop(conn *websocket.Conn, client *Client, handler *Handler) {
	defer func() {
		handler.HandleDisconnect()
		e.hub.Remove(client.ID())
		client.Close()
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	ctx := context.Background()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		handler.HandleMessage(ctx, payload)
	}
}
