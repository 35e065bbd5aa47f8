package repository

import (
	"context"
	"fmt"
	"strings"

	"notes-server/internal/domain"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

const surrealSchema = `
DEFINE INDEX IF NOT EXISTS user_email ON TABLE user COLUMNS email UNIQUE;
DEFINE INDEX IF NOT EXISTS note_owner ON TABLE note COLUMNS user_id;
`

type surrealUser struct {
	ID        *models.RecordID      `json:"id,omitempty"`
	FullName  string                `json:"fullname"`
	Email     string                `json:"email"`
	Password  string                `json:"password"`
	CreatedAt models.CustomDateTime `json:"created_on"`
}

func (u surrealUser) toDomain() *domain.User {
	return &domain.User{
		ID:        recordKey(u.ID),
		FullName:  u.FullName,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt.Time,
	}
}

type surrealNote struct {
	ID        *models.RecordID      `json:"id,omitempty"`
	UserID    string                `json:"user_id"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Tags      []string              `json:"tags"`
	IsPinned  bool                  `json:"is_pinned"`
	CreatedAt models.CustomDateTime `json:"created_on"`
}

func (n surrealNote) toDomain() *domain.Note {
	note := &domain.Note{
		ID:        recordKey(n.ID),
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		IsPinned:  n.IsPinned,
		CreatedAt: n.CreatedAt.Time,
	}
	note.EnsureTags()
	return note
}

func recordKey(id *models.RecordID) string {
	if id == nil {
		return ""
	}
	return fmt.Sprint(id.ID)
}

// firstResult returns the rows of the first statement of a query.
func firstResult[T any](res *[]surrealdb.QueryResult[[]T]) []T {
	if res == nil || len(*res) == 0 {
		return nil
	}
	return (*res)[0].Result
}

func isSurrealUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already contains")
}

type surrealUserRepository struct {
	db *surrealdb.DB
}

func NewSurrealUserRepository(db *surrealdb.DB) UserRepository {
	return &surrealUserRepository{db: db}
}

func (r *surrealUserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := surrealdb.Query[[]surrealUser](ctx, r.db,
		"CREATE type::thing('user', $id) CONTENT $content",
		map[string]any{
			"id": user.ID,
			"content": map[string]any{
				"fullname":   user.FullName,
				"email":      user.Email,
				"password":   user.Password,
				"created_on": models.CustomDateTime{Time: user.CreatedAt},
			},
		})
	if err != nil {
		if isSurrealUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *surrealUserRepository) selectOne(ctx context.Context, query string, vars map[string]any) (*domain.User, error) {
	res, err := surrealdb.Query[[]surrealUser](ctx, r.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	rows := firstResult(res)
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *surrealUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.selectOne(ctx, "SELECT * FROM user WHERE email = $email LIMIT 1", map[string]any{"email": email})
}

func (r *surrealUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.selectOne(ctx, "SELECT * FROM type::thing('user', $id)", map[string]any{"id": id})
}

func (r *surrealUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, r, email)
}

type surrealNoteRepository struct {
	db *surrealdb.DB
}

func NewSurrealNoteRepository(db *surrealdb.DB) NoteRepository {
	return &surrealNoteRepository{db: db}
}

func surrealNoteContent(note *domain.Note) map[string]any {
	return map[string]any{
		"user_id":    note.UserID,
		"title":      note.Title,
		"content":    note.Content,
		"tags":       note.Tags,
		"is_pinned":  note.IsPinned,
		"created_on": models.CustomDateTime{Time: note.CreatedAt},
	}
}

func (r *surrealNoteRepository) query(ctx context.Context, query string, vars map[string]any) ([]surrealNote, error) {
	res, err := surrealdb.Query[[]surrealNote](ctx, r.db, query, vars)
	if err != nil {
		return nil, err
	}
	return firstResult(res), nil
}

func (r *surrealNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	_, err := r.query(ctx, "CREATE type::thing('note', $id) CONTENT $content", map[string]any{
		"id":      note.ID,
		"content": surrealNoteContent(note),
	})
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *surrealNoteRepository) FindByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	rows, err := r.query(ctx, "SELECT * FROM type::thing('note', $id) WHERE user_id = $user_id", map[string]any{
		"id":      noteID,
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *surrealNoteRepository) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	rows, err := r.query(ctx, "SELECT * FROM note WHERE user_id = $user_id", map[string]any{
		"user_id": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]*domain.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, row.toDomain())
	}
	return notes, nil
}

func (r *surrealNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	content := surrealNoteContent(note)
	delete(content, "created_on")

	rows, err := r.query(ctx,
		"UPDATE type::thing('note', $id) MERGE $content WHERE user_id = $user_id RETURN AFTER",
		map[string]any{
			"id":      note.ID,
			"user_id": note.UserID,
			"content": content,
		})
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *surrealNoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	rows, err := r.query(ctx,
		"DELETE type::thing('note', $id) WHERE user_id = $user_id RETURN BEFORE",
		map[string]any{
			"id":      noteID,
			"user_id": userID,
		})
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func ensureSurrealSchema(ctx context.Context, db *surrealdb.DB) error {
	if _, err := surrealdb.Query[any](ctx, db, surrealSchema, nil); err != nil {
		return fmt.Errorf("failed to define surrealdb indexes: %w", err)
	}
	return nil
}
