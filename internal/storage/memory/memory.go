// Package memory provides in-memory RealmStore and ProfileStore
// implementations for dev mode and tests, where no database is available.
package memory

import (
	"context"
	"sync"

	"github.com/openrealms/server/internal/storage"
)

// RealmStore holds realms in a map. Safe for concurrent use.
type RealmStore struct {
	mu     sync.RWMutex
	realms map[string]storage.RealmInfo
}

// NewRealmStore creates an empty RealmStore.
func NewRealmStore() *RealmStore {
	return &RealmStore{realms: make(map[string]storage.RealmInfo)}
}

// Put registers or replaces a realm.
func (s *RealmStore) Put(realmID string, info storage.RealmInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.realms[realmID] = info
}

// FetchRealm implements storage.RealmStore.
func (s *RealmStore) FetchRealm(_ context.Context, realmID string) (storage.RealmInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.realms[realmID]
	if !ok {
		return storage.RealmInfo{}, storage.ErrRealmNotFound
	}
	return info, nil
}

// ProfileStore holds skins in a map. Safe for concurrent use.
type ProfileStore struct {
	mu    sync.RWMutex
	skins map[string]string
}

// NewProfileStore creates an empty ProfileStore.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{skins: make(map[string]string)}
}

// SetSkin stores the user's avatar skin.
func (s *ProfileStore) SetSkin(userID, skin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skins[userID] = skin
}

// FetchSkin implements storage.ProfileStore. Unknown users get
// storage.DefaultSkin.
func (s *ProfileStore) FetchSkin(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	skin, ok := s.skins[userID]
	if !ok {
		return storage.DefaultSkin, nil
	}
	return skin, nil
}
