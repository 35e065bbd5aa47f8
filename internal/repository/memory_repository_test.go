package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"notes-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(id, email string) *domain.User {
	return &domain.User{
		ID:        id,
		FullName:  "User " + id,
		Email:     email,
		Password:  "hash",
		CreatedAt: time.Now(),
	}
}

func newNote(id, owner string) *domain.Note {
	return &domain.Note{
		ID:        id,
		UserID:    owner,
		Title:     "title " + id,
		Content:   "content " + id,
		CreatedAt: time.Now(),
	}
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Users.Create(ctx, newUser("u1", "a@example.com")))

	got, err := store.Users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = store.Users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = store.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	exists, err := store.Users.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Users.EmailExists(ctx, "b@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Users.Create(ctx, newUser("u2", "a@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemoryUserRepositoryConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Users.Create(ctx, newUser(fmt.Sprintf("u%d", i), "same@example.com")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestMemoryNoteRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Notes.Create(ctx, newNote("n1", "alice")))
	require.NoError(t, store.Notes.Create(ctx, newNote("n2", "bob")))
	require.NoError(t, store.Notes.Create(ctx, newNote("n3", "alice")))

	notes, err := store.Notes.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, "n3", notes[1].ID)
	assert.Equal(t, []string{}, notes[0].Tags)

	_, err = store.Notes.FindByID(ctx, "alice", "n2")
	assert.ErrorIs(t, err, ErrNotFound)

	foreign := newNote("n2", "alice")
	assert.ErrorIs(t, store.Notes.Update(ctx, foreign), ErrNotFound)
	assert.ErrorIs(t, store.Notes.Delete(ctx, "alice", "n2"), ErrNotFound)

	empty, err := store.Notes.List(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryNoteRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := newNote("n1", "alice")
	require.NoError(t, store.Notes.Create(ctx, original))

	changed := newNote("n1", "alice")
	changed.Title = "renamed"
	changed.IsPinned = true
	changed.CreatedAt = original.CreatedAt.Add(time.Hour)
	require.NoError(t, store.Notes.Update(ctx, changed))

	got, err := store.Notes.FindByID(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.IsPinned)
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt))

	got.Title = "mutated copy"
	again, err := store.Notes.FindByID(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", again.Title)

	require.NoError(t, store.Notes.Delete(ctx, "alice", "n1"))
	_, err = store.Notes.FindByID(ctx, "alice", "n1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Notes.Delete(ctx, "alice", "n1"), ErrNotFound)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, "memory", store.Driver())
	assert.NoError(t, store.Ping(context.Background()))
	assert.NoError(t, store.Close(context.Background()))
}
