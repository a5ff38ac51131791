package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrealms/server/internal/storage"
	"github.com/openrealms/server/internal/storage/postgres"
	"github.com/openrealms/server/internal/testutil"
)

func TestProfileRepository_FetchSkinDefaults(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))

	skin, err := repo.FetchSkin(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultSkin, skin)
}

func TestProfileRepository_SetAndFetchSkin(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SetSkin(ctx, "u1", "014"))
	skin, err := repo.FetchSkin(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "014", skin)

	// Upsert replaces.
	require.NoError(t, repo.SetSkin(ctx, "u1", "021"))
	skin, err = repo.FetchSkin(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "021", skin)
}

func TestProfileRepository_VisitedRealms(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	ctx := context.Background()

	visited, err := repo.VisitedRealms(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, visited)

	require.NoError(t, repo.AddVisitedRealm(ctx, "u1", "7"))
	require.NoError(t, repo.AddVisitedRealm(ctx, "u1", "9"))
	// Revisits are recorded once.
	require.NoError(t, repo.AddVisitedRealm(ctx, "u1", "7"))

	visited, err = repo.VisitedRealms(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "9"}, visited)
}

func TestProfileRepository_VisitedRealmsKeepsSkin(t *testing.T) {
	repo := postgres.NewProfileRepository(testutil.NewPool(t))
	ctx := context.Background()

	require.NoError(t, repo.SetSkin(ctx, "u1", "030"))
	require.NoError(t, repo.AddVisitedRealm(ctx, "u1", "3"))

	skin, err := repo.FetchSkin(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "030", skin)
}
