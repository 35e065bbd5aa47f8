package repository

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// NoteRepository is the note store. Every lookup, update and delete is
// filtered by owner; a note owned by someone else is reported as ErrNotFound.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, userID, noteID string) (*domain.Note, error)
	List(ctx context.Context, userID string) ([]*domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, userID, noteID string) error
}

const (
	couchPageSize      = 200
	couchUpdateRetries = 3
)

type couchNote struct {
	Rev       string    `json:"_rev,omitempty"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_on"`
}

func newCouchNote(note *domain.Note) couchNote {
	return couchNote{
		Type:      "note",
		ID:        note.ID,
		UserID:    note.UserID,
		Title:     note.Title,
		Content:   note.Content,
		Tags:      note.Tags,
		IsPinned:  note.IsPinned,
		CreatedAt: note.CreatedAt,
	}
}

func (d couchNote) toDomain() *domain.Note {
	note := &domain.Note{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Content:   d.Content,
		Tags:      d.Tags,
		IsPinned:  d.IsPinned,
		CreatedAt: d.CreatedAt,
	}
	note.EnsureTags()
	return note
}

type noteRepository struct {
	client *kivik.Client
	dbName string
}

func NewNoteRepository(client *kivik.Client, dbName string) NoteRepository {
	return &noteRepository{
		client: client,
		dbName: dbName,
	}
}

func noteDocID(id string) string {
	return fmt.Sprintf("note:%s", id)
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)

	_, err := db.Put(ctx, noteDocID(note.ID), newCouchNote(note))
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *noteRepository) get(ctx context.Context, userID, noteID string) (*couchNote, error) {
	db := r.client.DB(r.dbName)

	var doc couchNote
	if err := db.Get(ctx, noteDocID(noteID)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}

	if doc.Type != "note" || doc.UserID != userID {
		return nil, ErrNotFound
	}

	return &doc, nil
}

func (r *noteRepository) FindByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	doc, err := r.get(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *noteRepository) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	db := r.client.DB(r.dbName)

	notes := []*domain.Note{}
	bookmark := ""
	for {
		query := map[string]interface{}{
			"selector": map[string]interface{}{
				"type":    "note",
				"user_id": userID,
			},
			"limit": couchPageSize,
		}
		if bookmark != "" {
			query["bookmark"] = bookmark
		}

		rows := db.Find(ctx, query)
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to list notes: %w", err)
		}

		page := 0
		for rows.Next() {
			var doc couchNote
			if err := rows.ScanDoc(&doc); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan note: %w", err)
			}
			notes = append(notes, doc.toDomain())
			page++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to list notes: %w", err)
		}

		meta, err := rows.Metadata()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read list metadata: %w", err)
		}

		if page < couchPageSize || meta.Bookmark == "" || meta.Bookmark == bookmark {
			break
		}
		bookmark = meta.Bookmark
	}

	return notes, nil
}

// Update overwrites the stored note. CouchDB rejects writes against a stale
// revision, so a conflicting concurrent write is retried against the latest
// revision, which makes the last writer win.
func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	db := r.client.DB(r.dbName)

	var lastErr error
	for attempt := 0; attempt < couchUpdateRetries; attempt++ {
		existing, err := r.get(ctx, note.UserID, note.ID)
		if err != nil {
			return err
		}

		doc := newCouchNote(note)
		doc.Rev = existing.Rev
		doc.CreatedAt = existing.CreatedAt

		_, err = db.Put(ctx, noteDocID(note.ID), doc)
		if err == nil {
			return nil
		}
		if kivik.HTTPStatus(err) != http.StatusConflict {
			return fmt.Errorf("failed to update note: %w", err)
		}
		lastErr = err
	}

	return fmt.Errorf("failed to update note: %w", lastErr)
}

func (r *noteRepository) Delete(ctx context.Context, userID, noteID string) error {
	db := r.client.DB(r.dbName)

	existing, err := r.get(ctx, userID, noteID)
	if err != nil {
		return err
	}

	if _, err := db.Delete(ctx, noteDocID(noteID), existing.Rev); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	return nil
}
