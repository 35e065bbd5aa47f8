package repository

import (
	"context"
	"net"
	"net/url"
	"os"
	"testing"
	"time"

	"notes-server/internal/config"
	"notes-server/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealdb "github.com/surrealdb/surrealdb.go"
)

const surrealTestDatabase = "notes_test"

// surrealTestConfig returns the connection settings for a live SurrealDB
// server, skipping the test when SURREALDB_URL is unset or the server does
// not answer.
func surrealTestConfig(t *testing.T) config.SurrealDBConfig {
	t.Helper()

	rawURL := os.Getenv("SURREALDB_URL")
	if rawURL == "" {
		t.Skip("SURREALDB_URL not set")
	}

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	conn, err := net.DialTimeout("tcp", u.Host, time.Second)
	if err != nil {
		t.Skipf("surrealdb not reachable at %s: %v", u.Host, err)
	}
	conn.Close()

	cfg := config.SurrealDBConfig{
		URL:       rawURL,
		Namespace: "notes",
		Database:  surrealTestDatabase,
		User:      "root",
		Password:  "root",
	}
	if user := os.Getenv("SURREALDB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("SURREALDB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	return cfg
}

// resetSurrealTables drops the tables the repositories write to.
func resetSurrealTables(t *testing.T, cfg config.SurrealDBConfig) {
	t.Helper()
	ctx := context.Background()

	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	require.NoError(t, err)
	defer db.Close(ctx)

	_, err = db.SignIn(ctx, surrealdb.Auth{Username: cfg.User, Password: cfg.Password})
	require.NoError(t, err)
	require.NoError(t, db.Use(ctx, cfg.Namespace, cfg.Database))

	for _, table := range []string{"user", "note"} {
		_, err := surrealdb.Query[[]any](ctx, db, "REMOVE TABLE IF EXISTS "+table, nil)
		require.NoError(t, err)
	}
}

func newSurrealStore(t *testing.T) *Store {
	t.Helper()
	cfg := surrealTestConfig(t)
	resetSurrealTables(t, cfg)

	store, err := Open(context.Background(), config.StoreConfig{
		Driver:         config.DriverSurrealDB,
		ConnectTimeout: 5 * time.Second,
		SurrealDB:      cfg,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	require.NoError(t, store.Ping(context.Background()))
	return store
}

func TestSurrealUserRepository(t *testing.T) {
	store := newSurrealStore(t)
	ctx := context.Background()

	user := &domain.User{
		ID:        "u1",
		FullName:  "Alice",
		Email:     "alice@example.com",
		Password:  "hash",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Users.Create(ctx, user))

	err := store.Users.Create(ctx, &domain.User{ID: "u2", FullName: "Mallory", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := store.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
	assert.Equal(t, "hash", found.Password)
	assert.True(t, found.CreatedAt.Equal(user.CreatedAt))

	byID, err := store.Users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = store.Users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Users.EmailExists(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSurrealNoteRepository(t *testing.T) {
	store := newSurrealStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, n := range []*domain.Note{
		{ID: "n1", UserID: "alice", Title: "groceries", Content: "milk", CreatedAt: created},
		{ID: "n2", UserID: "alice", Title: "todo", Content: "ship", Tags: []string{"work"}, CreatedAt: created},
		{ID: "n3", UserID: "bob", Title: "secret", Content: "bob only", CreatedAt: created},
	} {
		require.NoError(t, store.Notes.Create(ctx, n))
	}

	t.Run("find is owner scoped", func(t *testing.T) {
		note, err := store.Notes.FindByID(ctx, "alice", "n2")
		require.NoError(t, err)
		assert.Equal(t, []string{"work"}, note.Tags)

		_, err = store.Notes.FindByID(ctx, "alice", "n3")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		notes, err := store.Notes.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		for _, n := range notes {
			assert.Equal(t, "alice", n.UserID)
			assert.NotNil(t, n.Tags)
		}

		empty, err := store.Notes.List(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("update", func(t *testing.T) {
		err := store.Notes.Update(ctx, &domain.Note{ID: "n1", UserID: "alice", Title: "groceries", Content: "eggs", IsPinned: true})
		require.NoError(t, err)

		note, err := store.Notes.FindByID(ctx, "alice", "n1")
		require.NoError(t, err)
		assert.Equal(t, "eggs", note.Content)
		assert.True(t, note.IsPinned)
		assert.True(t, note.CreatedAt.Equal(created))

		err = store.Notes.Update(ctx, &domain.Note{ID: "n3", UserID: "alice", Title: "mine now"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, store.Notes.Delete(ctx, "alice", "n3"), ErrNotFound)
		require.NoError(t, store.Notes.Delete(ctx, "alice", "n1"))
		assert.ErrorIs(t, store.Notes.Delete(ctx, "alice", "n1"), ErrNotFound)

		_, err := store.Notes.FindByID(ctx, "bob", "n3")
		assert.NoError(t, err)
	})
}
