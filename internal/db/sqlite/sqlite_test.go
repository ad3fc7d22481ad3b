package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/herd-bot/internal/common"
	"serotonyl.ru/herd-bot/internal/features/herd"
)

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "herd.db"))
	require.NoError(t, err)
	defer db.Close()

	store := herd.NewSQLiteStore(db)
	save := herd.NewSave("local", 0, herd.Season{ID: "spring"}, false)

	require.NoError(t, store.Save(ctx, save))

	save.Day = 2
	require.NoError(t, store.Save(ctx, save))

	got, err := store.Get(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Day)
	assert.Len(t, got.Herd, 5)
	assert.Equal(t, save.Herd[0].ID, got.Herd[0].ID)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrSaveNotFound)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
