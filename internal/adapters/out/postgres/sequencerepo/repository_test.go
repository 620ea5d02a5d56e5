package sequencerepo_test

import (
	"context"
	"testing"

	"dispatch/internal/adapters/out/postgres/sequencerepo"
	"dispatch/internal/adapters/out/postgres/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormRunNameSequenceRepository_NextCountsPerWindow(t *testing.T) {
	db := testdb.SQLite(t)
	repo := sequencerepo.NewGormRunNameSequenceRepository(db)
	ctx := context.Background()

	for want := range 3 {
		got, err := repo.Next(ctx, "2026-10-18-AM")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.Next(ctx, "2026-10-18-PM")
	require.NoError(t, err)
	assert.Equal(t, 0, got, "a new window starts from zero")
}

func TestGormRunNameSequenceRepository_RollbackReleasesNumber(t *testing.T) {
	db := testdb.SQLite(t)
	ctx := context.Background()

	tx := db.Begin()
	got, err := sequencerepo.NewGormRunNameSequenceRepository(tx).Next(ctx, "2026-10-18-AM")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
	require.NoError(t, tx.Rollback().Error)

	got, err = sequencerepo.NewGormRunNameSequenceRepository(db).Next(ctx, "2026-10-18-AM")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
