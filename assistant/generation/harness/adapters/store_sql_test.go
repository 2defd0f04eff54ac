package adapters

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestSQLStore(t *testing.T, db *sql.DB, key string) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(context.Background(), db, goose.DialectSQLite3, key, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestSQLStore_LoadMissing(t *testing.T) {
	store := newTestSQLStore(t, openTestDB(t), "default")

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSQLStore_SaveOverwritesAndLoads(t *testing.T) {
	store := newTestSQLStore(t, openTestDB(t), "default")
	ctx := context.Background()

	conv := sampleConversation()
	require.NoError(t, store.Save(ctx, conv))
	conv.Append(conversation.RoleUser, "more")
	require.NoError(t, store.Save(ctx, conv))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, conv, loaded)
}

func TestSQLStore_SessionsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	work := newTestSQLStore(t, db, "work")
	home := newTestSQLStore(t, db, "home")
	ctx := context.Background()

	require.NoError(t, work.Save(ctx, sampleConversation()))

	_, err := home.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSQLStore_Clear(t *testing.T) {
	store := newTestSQLStore(t, openTestDB(t), "default")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleConversation()))
	fresh := conversation.New("fresh")
	require.NoError(t, store.Clear(ctx, fresh))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, fresh, loaded)

	n, err := store.Backups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// clearing an empty session writes no backup
	other := newTestSQLStore(t, store.db, "other")
	require.NoError(t, other.Clear(ctx, conversation.New("p")))
	n, err = other.Backups(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, goose.DialectSQLite3))
	require.NoError(t, Migrate(context.Background(), db, goose.DialectSQLite3))
}
