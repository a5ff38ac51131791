package ws

import "sync"

// Sender is the delivery half of a connection as the Hub sees it.
// Delivery is best-effort: implementations must not block or fail the
// caller when the peer is slow or already gone.
type Sender interface {
	Enqueue(payload []byte)
}

// Hub is the broadcast fan-out registry. It maps connection ids to
// senders and tracks named groups of connections. All methods are safe
// for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Sender
	groups map[string]map[string]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]Sender),
		groups: make(map[string]map[string]struct{}),
	}
}

// Add registers a connection. Re-adding an id replaces the previous
// sender.
func (h *Hub) Add(connID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = s
}

// Remove unregisters a connection and drops it from every group.
// Removing an unknown id is a no-op.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	for key, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, key)
		}
	}
}

// JoinGroup adds a connection to a named group, creating the group on
// first use.
func (h *Hub) JoinGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[connID] = struct{}{}
}

// LeaveGroup removes a connection from a group. Empty groups are
// reclaimed. Unknown group or member is a no-op.
func (h *Hub) LeaveGroup(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// SendToConnection delivers a payload to one connection. Unknown ids
// are silently ignored.
func (h *Hub) SendToConnection(connID string, payload []byte) {
	h.mu.RLock()
	s, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		s.Enqueue(payload)
	}
}

// SendToGroup delivers a payload to every member of a group, skipping
// the connection named by except (pass "" to include everyone). Failure
// to reach one member never affects the rest.
func (h *Hub) SendToGroup(group string, payload []byte, except string) {
	h.mu.RLock()
	members := h.groups[group]
	targets := make([]Sender, 0, len(members))
	for connID := range members {
		if connID == except {
			continue
		}
		if s, ok := h.conns[connID]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()
	for _, s := range targets {
		s.Enqueue(payload)
	}
}
