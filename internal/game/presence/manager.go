package presence

import (
	"fmt"
	"sync"
)

// Manager is the process-wide registry of realm Sessions, with reverse
// lookups from user to realm and from connection to user so that disconnect
// teardown never scans all sessions. All methods are safe for concurrent use.
//
// Sessions are never reclaimed once created; see DESIGN.md.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	userRealm map[string]string // userID → realmID
	connUser  map[string]string // connection id → userID
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		userRealm: make(map[string]string),
		connUser:  make(map[string]string),
	}
}

// CreateSession allocates a Session for the realm if one does not already
// exist. Calling it again for the same realm is a no-op.
func (m *Manager) CreateSession(realmID string, mapData MapData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[realmID]; !ok {
		m.sessions[realmID] = NewSession(realmID, mapData)
	}
}

// Session returns the Session for the realm. Absence is a normal result.
func (m *Manager) Session(realmID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[realmID]
	return s, ok
}

// SessionForUser returns the Session the user currently occupies.
func (m *Manager) SessionForUser(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	realmID, ok := m.userRealm[userID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[realmID]
	return s, ok
}

// RegisterPlayer adds the player to the realm's Session (replacing any prior
// record for the same user) and records the reverse lookups.
//
// Precondition: CreateSession must already have run for realmID.
// Postcondition: Returns a snapshot of the registered Player.
func (m *Manager) RegisterPlayer(connID, realmID, userID, username, skin string) (Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[realmID]
	if !ok {
		return Player{}, fmt.Errorf("no session for realm %q", realmID)
	}

	// On reconnect, forget the replaced record's connection so a late
	// disconnect of the old socket cannot log out the fresh player.
	if prev, ok := sess.Player(userID); ok && prev.Conn != connID {
		delete(m.connUser, prev.Conn)
	}

	player := sess.AddPlayer(connID, userID, username, skin)
	m.userRealm[userID] = realmID
	m.connUser[connID] = userID
	return player, nil
}

// LogoutUser removes the user's player record and both reverse lookups.
// Idempotent: reports whether a logged-in user was actually present.
func (m *Manager) LogoutUser(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutLocked(userID)
}

// LogoutConn resolves the connection's user and logs them out. Used on
// abrupt disconnect, where the connection does not know its session state.
func (m *Manager) LogoutConn(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.connUser[connID]
	if !ok {
		return false
	}
	return m.logoutLocked(userID)
}

func (m *Manager) logoutLocked(userID string) bool {
	realmID, ok := m.userRealm[userID]
	if !ok {
		return false
	}
	if sess := m.sessions[realmID]; sess != nil {
		if player, ok := sess.Player(userID); ok {
			delete(m.connUser, player.Conn)
			sess.RemovePlayer(userID)
		}
	}
	delete(m.userRealm, userID)
	return true
}

// SessionCount returns the number of sessions ever created (sessions persist
// for the life of the process).
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
