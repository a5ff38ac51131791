package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrealms/server/internal/storage"
)

// ProfileRepository provides user profile persistence operations.
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a ProfileRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FetchSkin implements storage.ProfileStore. Users without a profile row get
// storage.DefaultSkin.
func (r *ProfileRepository) FetchSkin(ctx context.Context, userID string) (string, error) {
	var skin string
	err := r.db.QueryRow(ctx,
		`SELECT skin FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&skin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.DefaultSkin, nil
		}
		return "", fmt.Errorf("querying profile: %w", err)
	}
	return skin, nil
}

// SetSkin stores the user's avatar skin, creating the profile row if needed.
func (r *ProfileRepository) SetSkin(ctx context.Context, userID, skin string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, skin) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET skin = EXCLUDED.skin`,
		userID, skin,
	)
	if err != nil {
		return fmt.Errorf("upserting profile skin: %w", err)
	}
	return nil
}

// AddVisitedRealm records a realm in the user's visit history, once.
func (r *ProfileRepository) AddVisitedRealm(ctx context.Context, userID, realmID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (user_id, visited_realms)
		 VALUES ($1, to_jsonb(ARRAY[$2::text]))
		 ON CONFLICT (user_id) DO UPDATE SET visited_realms =
		   CASE WHEN profiles.visited_realms ? $2 THEN profiles.visited_realms
		        ELSE profiles.visited_realms || to_jsonb($2::text)
		   END`,
		userID, realmID,
	)
	if err != nil {
		return fmt.Errorf("recording visited realm: %w", err)
	}
	return nil
}

// VisitedRealms returns the realms the user has visited, oldest first.
func (r *ProfileRepository) VisitedRealms(ctx context.Context, userID string) ([]string, error) {
	var visited []string
	err := r.db.QueryRow(ctx,
		`SELECT visited_realms FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&visited)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying visited realms: %w", err)
	}
	return visited, nil
}
