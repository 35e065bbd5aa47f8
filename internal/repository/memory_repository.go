package repository

import (
	"context"
	"sync"

	"notes-server/internal/domain"
)

// memoryDB backs both in-memory repositories. It keeps notes in insertion
// order and hands out copies so callers never alias stored records.
type memoryDB struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	emails    map[string]string
	notes     map[string]*domain.Note
	noteOrder []string
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:  make(map[string]*domain.User),
		emails: make(map[string]string),
		notes:  make(map[string]*domain.Note),
	}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyNote(n *domain.Note) *domain.Note {
	c := *n
	if n.Tags != nil {
		c.Tags = append([]string{}, n.Tags...)
	}
	c.EnsureTags()
	return &c
}

type memoryUserRepository struct {
	db *memoryDB
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.emails[user.Email]; taken {
		return ErrDuplicateEmail
	}
	r.db.users[user.ID] = copyUser(user)
	r.db.emails[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(r.db.users[id]), nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *memoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, r, email)
}

type memoryNoteRepository struct {
	db *memoryDB
}

func (r *memoryNoteRepository) Create(_ context.Context, note *domain.Note) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.notes[note.ID] = copyNote(note)
	r.db.noteOrder = append(r.db.noteOrder, note.ID)
	return nil
}

func (r *memoryNoteRepository) owned(userID, noteID string) (*domain.Note, bool) {
	n, ok := r.db.notes[noteID]
	if !ok || n.UserID != userID {
		return nil, false
	}
	return n, true
}

func (r *memoryNoteRepository) FindByID(_ context.Context, userID, noteID string) (*domain.Note, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	n, ok := r.owned(userID, noteID)
	if !ok {
		return nil, ErrNotFound
	}
	return copyNote(n), nil
}

func (r *memoryNoteRepository) List(_ context.Context, userID string) ([]*domain.Note, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	notes := []*domain.Note{}
	for _, id := range r.db.noteOrder {
		if n := r.db.notes[id]; n.UserID == userID {
			notes = append(notes, copyNote(n))
		}
	}
	return notes, nil
}

func (r *memoryNoteRepository) Update(_ context.Context, note *domain.Note) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.owned(note.UserID, note.ID)
	if !ok {
		return ErrNotFound
	}
	updated := copyNote(note)
	updated.CreatedAt = existing.CreatedAt
	r.db.notes[note.ID] = updated
	return nil
}

func (r *memoryNoteRepository) Delete(_ context.Context, userID, noteID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.owned(userID, noteID); !ok {
		return ErrNotFound
	}
	delete(r.db.notes, noteID)
	for i, id := range r.db.noteOrder {
		if id == noteID {
			r.db.noteOrder = append(r.db.noteOrder[:i], r.db.noteOrder[i+1:]...)
			break
		}
	}
	return nil
}
