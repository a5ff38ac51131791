package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrealms/server/internal/game/presence"
	"github.com/openrealms/server/internal/storage"
)

// Realm is a stored realm row.
type Realm struct {
	ID        int64
	OwnerID   string
	Name      string
	ShareID   uuid.UUID
	MapData   json.RawMessage
	OnlyOwner bool
	CreatedAt time.Time
}

// RealmRepository provides realm persistence operations.
type RealmRepository struct {
	db *pgxpool.Pool
}

// NewRealmRepository creates a RealmRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRealmRepository(db *pgxpool.Pool) *RealmRepository {
	return &RealmRepository{db: db}
}

// Create inserts a new realm with a fresh share id.
//
// Precondition: ownerID and name must be non-empty; mapData must be valid
// JSON accepted by presence.ParseMapData.
// Postcondition: Returns the created Realm with ID, ShareID, and CreatedAt set.
func (r *RealmRepository) Create(ctx context.Context, ownerID, name string, mapData json.RawMessage) (Realm, error) {
	if _, err := presence.ParseMapData(mapData); err != nil {
		return Realm{}, fmt.Errorf("rejecting map data: %w", err)
	}

	realm := Realm{OwnerID: ownerID, Name: name, MapData: mapData}
	err := r.db.QueryRow(ctx,
		`INSERT INTO realms (owner_id, name, share_id, map_data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, share_id, only_owner, created_at`,
		ownerID, name, uuid.New(), mapData,
	).Scan(&realm.ID, &realm.ShareID, &realm.OnlyOwner, &realm.CreatedAt)
	if err != nil {
		return Realm{}, fmt.Errorf("inserting realm: %w", err)
	}
	return realm, nil
}

// Get retrieves a realm by its numeric id (as the string clients send).
//
// Postcondition: Returns the Realm or storage.ErrRealmNotFound.
func (r *RealmRepository) Get(ctx context.Context, realmID string) (Realm, error) {
	id, err := strconv.ParseInt(realmID, 10, 64)
	if err != nil {
		return Realm{}, storage.ErrRealmNotFound
	}

	var realm Realm
	err = r.db.QueryRow(ctx,
		`SELECT id, owner_id, name, share_id, map_data, only_owner, created_at
		 FROM realms WHERE id = $1`,
		id,
	).Scan(&realm.ID, &realm.OwnerID, &realm.Name, &realm.ShareID, &realm.MapData, &realm.OnlyOwner, &realm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Realm{}, storage.ErrRealmNotFound
		}
		return Realm{}, fmt.Errorf("querying realm: %w", err)
	}
	return realm, nil
}

// GetByShareID retrieves a realm by its share link id.
//
// Postcondition: Returns the Realm or storage.ErrRealmNotFound.
func (r *RealmRepository) GetByShareID(ctx context.Context, shareID uuid.UUID) (Realm, error) {
	var realm Realm
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, name, share_id, map_data, only_owner, created_at
		 FROM realms WHERE share_id = $1`,
		shareID,
	).Scan(&realm.ID, &realm.OwnerID, &realm.Name, &realm.ShareID, &realm.MapData, &realm.OnlyOwner, &realm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Realm{}, storage.ErrRealmNotFound
		}
		return Realm{}, fmt.Errorf("querying realm by share id: %w", err)
	}
	return realm, nil
}

// ListByOwner returns all realms created by the given owner, newest first.
func (r *RealmRepository) ListByOwner(ctx context.Context, ownerID string) ([]Realm, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, name, share_id, map_data, only_owner, created_at
		 FROM realms WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing realms: %w", err)
	}
	defer rows.Close()

	var realms []Realm
	for rows.Next() {
		var realm Realm
		if err := rows.Scan(&realm.ID, &realm.OwnerID, &realm.Name, &realm.ShareID, &realm.MapData, &realm.OnlyOwner, &realm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning realm: %w", err)
		}
		realms = append(realms, realm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating realms: %w", err)
	}
	return realms, nil
}

// SetOnlyOwner toggles the owner-only join restriction.
//
// Postcondition: Returns storage.ErrRealmNotFound if no row matched.
func (r *RealmRepository) SetOnlyOwner(ctx context.Context, realmID string, onlyOwner bool) error {
	id, err := strconv.ParseInt(realmID, 10, 64)
	if err != nil {
		return storage.ErrRealmNotFound
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE realms SET only_owner = $1 WHERE id = $2`,
		onlyOwner, id,
	)
	if err != nil {
		return fmt.Errorf("updating realm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrRealmNotFound
	}
	return nil
}

// FetchRealm implements storage.RealmStore: it resolves the realm and parses
// its map descriptor.
func (r *RealmRepository) FetchRealm(ctx context.Context, realmID string) (storage.RealmInfo, error) {
	realm, err := r.Get(ctx, realmID)
	if err != nil {
		return storage.RealmInfo{}, err
	}
	mapData, err := presence.ParseMapData(realm.MapData)
	if err != nil {
		return storage.RealmInfo{}, fmt.Errorf("realm %s: %w", realmID, err)
	}
	return storage.RealmInfo{
		Map:        mapData,
		OwnerID:    realm.OwnerID,
		Restricted: realm.OnlyOwner,
	}, nil
}
