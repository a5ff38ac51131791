// Package storage defines the persistence interfaces the realm server calls
// and their sentinel errors. Implementations live in the postgres and memory
// subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/openrealms/server/internal/game/presence"
)

// DefaultSkin is the avatar skin used when a user has no stored profile.
const DefaultSkin = "009"

// ErrRealmNotFound is returned when a realm lookup yields no results.
var ErrRealmNotFound = errors.New("realm not found")

// RealmInfo is what the connection handler needs to admit a player.
type RealmInfo struct {
	// Map is the realm's parsed map descriptor.
	Map presence.MapData
	// OwnerID is the account that created the realm.
	OwnerID string
	// Restricted marks realms only the owner may join.
	Restricted bool
}

// RealmStore resolves realm ids to their map and ownership data.
type RealmStore interface {
	// FetchRealm returns the realm's info or ErrRealmNotFound.
	FetchRealm(ctx context.Context, realmID string) (RealmInfo, error)
}

// VisitRecorder is optionally implemented by profile stores that keep a
// history of realms each user has joined.
type VisitRecorder interface {
	// AddVisitedRealm records the realm in the user's visit history, once.
	AddVisitedRealm(ctx context.Context, userID, realmID string) error
}

// ProfileStore resolves user profiles.
type ProfileStore interface {
	// FetchSkin returns the user's avatar skin, or DefaultSkin when the user
	// has no profile.
	FetchSkin(ctx context.Context, userID string) (string, error)
}
