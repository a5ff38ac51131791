package presence

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const (
	// MaxPlayers is the per-realm occupancy cap. Joins beyond it are
	// rejected; existing players are never evicted to make room.
	MaxPlayers = 30

	// ProximityRange is the Chebyshev radius within which two players in the
	// same room share a proximity group (a 7x7 tile block).
	ProximityRange = 3
)

// Session is the live state of one realm: its players, per-room membership
// sets, and per-room spatial indices. All methods are safe for concurrent
// use; each mutating call updates player record, membership, spatial index,
// and proximity groups as one atomic step.
//
// Sessions are created on first join and live for the rest of the process.
type Session struct {
	mu      sync.Mutex
	realmID string
	mapData MapData

	players   map[string]*playerRecord
	roomSets  []map[string]struct{}
	roomIndex []spatialIndex
}

// NewSession creates an empty Session for the given realm and map.
//
// Precondition: mapData must validate (at least one room, spawn in range).
func NewSession(realmID string, mapData MapData) *Session {
	s := &Session{
		realmID:   realmID,
		mapData:   mapData,
		players:   make(map[string]*playerRecord),
		roomSets:  make([]map[string]struct{}, mapData.RoomCount()),
		roomIndex: make([]spatialIndex, mapData.RoomCount()),
	}
	for i := range s.roomSets {
		s.roomSets[i] = make(map[string]struct{})
		s.roomIndex[i] = newSpatialIndex()
	}
	return s
}

// RealmID returns the realm this session belongs to.
func (s *Session) RealmID() string {
	return s.realmID
}

// Spawn returns the map's spawn point.
func (s *Session) Spawn() SpawnPoint {
	return s.mapData.Spawn
}

// RoomCount returns the number of rooms in this session's map.
func (s *Session) RoomCount() int {
	return s.mapData.RoomCount()
}

// AddPlayer registers a player at the spawn point. If a player with the same
// uid is already present (a reconnect), the prior record is fully removed
// first: one Player per uid, never two.
//
// Postcondition: Returns a snapshot of the created Player.
func (s *Session) AddPlayer(connID, uid, username, skin string) Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(uid)

	spawn := s.mapData.Spawn
	rec := &playerRecord{
		uid:      uid,
		username: username,
		skin:     skin,
		x:        spawn.X,
		y:        spawn.Y,
		room:     spawn.RoomIndex,
		connID:   connID,
	}
	s.players[uid] = rec
	s.roomSets[spawn.RoomIndex][uid] = struct{}{}
	s.roomIndex[spawn.RoomIndex].add(spawn.X, spawn.Y, uid)

	return rec.snapshot()
}

// RemovePlayer removes a player from room membership, the spatial index, and
// the registry. No-op if absent.
func (s *Session) RemovePlayer(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(uid)
}

func (s *Session) removeLocked(uid string) {
	rec, ok := s.players[uid]
	if !ok {
		return
	}
	delete(s.roomSets[rec.room], uid)
	s.roomIndex[rec.room].remove(rec.x, rec.y, uid)
	delete(s.players, uid)
}

// Player returns a snapshot of the given player.
func (s *Session) Player(uid string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.players[uid]
	if !ok {
		return Player{}, false
	}
	return rec.snapshot(), true
}

// PlayersInRoom returns snapshots of every occupant of the room, in no
// particular order. Out-of-range indices yield an empty slice.
func (s *Session) PlayersInRoom(room int) []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room < 0 || room >= len(s.roomSets) {
		return nil
	}
	out := make([]Player, 0, len(s.roomSets[room]))
	for uid := range s.roomSets[room] {
		out = append(out, s.players[uid].snapshot())
	}
	return out
}

// PlayerCount returns the number of players in the session.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// SetSkin updates a player's skin. Reports whether the player was present.
func (s *Session) SetSkin(uid, skin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.players[uid]
	if !ok {
		return false
	}
	rec.skin = skin
	return true
}

// MovePlayer moves a player within their current room, migrating the spatial
// index entry and recomputing proximity groups in the same critical section.
//
// Postcondition: Returns the uids whose proximity group changed as a result
// of this call (possibly including uid itself); empty if the player is absent.
func (s *Session) MovePlayer(uid string, x, y int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.players[uid]
	if !ok {
		return nil
	}
	return s.moveLocked(rec, x, y)
}

func (s *Session) moveLocked(rec *playerRecord, x, y int) []string {
	idx := s.roomIndex[rec.room]
	idx.remove(rec.x, rec.y, rec.uid)
	rec.x, rec.y = x, y
	idx.add(x, y, rec.uid)
	return s.recomputeProximityLocked(rec)
}

// ChangeRoom moves a player to another room at the given coordinates. A room
// change always also counts as a position change, so the proximity recompute
// runs exactly as for MovePlayer. No-op (nil, nil) if the player is absent.
//
// Postcondition: Returns the uids whose proximity group changed, or an error
// if room is out of range for this realm's map.
func (s *Session) ChangeRoom(uid string, room, x, y int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.players[uid]
	if !ok {
		return nil, nil
	}
	if room < 0 || room >= len(s.roomSets) {
		return nil, fmt.Errorf("room %d out of range (map has %d rooms)", room, len(s.roomSets))
	}

	delete(s.roomSets[rec.room], uid)
	s.roomIndex[rec.room].remove(rec.x, rec.y, uid)

	rec.room = room
	s.roomSets[room][uid] = struct{}{}
	s.roomIndex[room].add(rec.x, rec.y, uid)

	return s.moveLocked(rec, x, y), nil
}

// recomputeProximityLocked rescans the 7x7 block around rec's position and
// reassigns proximity groups. The merge is asymmetric: when rec meets a
// player in a different group, rec adopts that group and rec's former
// groupmates are left untouched; likewise, finding nobody in range clears
// rec's group unconditionally. Groupmates left behind may hold a stale id.
// This mirrors the shipped grouping behavior; see DESIGN.md before changing
// it.
func (s *Session) recomputeProximityLocked(rec *playerRecord) []string {
	idx := s.roomIndex[rec.room]
	original := rec.proximityID
	changed := make(map[string]struct{})
	neighborFound := false

	for dx := -ProximityRange; dx <= ProximityRange; dx++ {
		for dy := -ProximityRange; dy <= ProximityRange; dy++ {
			for uid := range idx.at(rec.x+dx, rec.y+dy) {
				if uid == rec.uid {
					continue
				}
				neighborFound = true
				other := s.players[uid]

				switch {
				case other.proximityID == "":
					if rec.proximityID == "" {
						rec.proximityID = uuid.NewString()
						if rec.proximityID != original {
							changed[rec.uid] = struct{}{}
						}
					}
					other.proximityID = rec.proximityID
					changed[uid] = struct{}{}
				case rec.proximityID != other.proximityID:
					rec.proximityID = other.proximityID
					if rec.proximityID != original {
						changed[rec.uid] = struct{}{}
					}
				}
			}
		}
	}

	if !neighborFound {
		rec.proximityID = ""
		if original != "" {
			changed[rec.uid] = struct{}{}
		}
	}

	out := make([]string, 0, len(changed))
	for uid := range changed {
		out = append(out, uid)
	}
	return out
}
