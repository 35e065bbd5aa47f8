package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NoteNotifier receives every successful note mutation. originDeviceID is
// the device that made the change, or "" when unknown.
type NoteNotifier interface {
	NotifyNote(userID, originDeviceID string, event domain.NoteEvent, note *domain.Note)
}

type originDeviceKey struct{}

// WithOriginDevice tags ctx with the device a mutation comes from, so the
// resulting note event skips that device's own connections.
func WithOriginDevice(ctx context.Context, deviceID string) context.Context {
	if deviceID == "" {
		return ctx
	}
	return context.WithValue(ctx, originDeviceKey{}, deviceID)
}

func originDevice(ctx context.Context) string {
	deviceID, _ := ctx.Value(originDeviceKey{}).(string)
	return deviceID
}

type NoteService struct {
	repo     repository.NoteRepository
	notifier NoteNotifier
	validate *validator.Validate
}

// NewNoteService builds the service. notifier may be nil.
func NewNoteService(repo repository.NoteRepository, notifier NoteNotifier) *NoteService {
	return &NoteService{
		repo:     repo,
		notifier: notifier,
		validate: newValidator(),
	}
}

func (s *NoteService) notify(ctx context.Context, userID string, event domain.NoteEvent, note *domain.Note) {
	if s.notifier != nil {
		s.notifier.NotifyNote(userID, originDevice(ctx), event, note)
	}
}

func (s *NoteService) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	return notes, nil
}

// Search matches query case-insensitively against title and content.
func (s *NoteService) Search(ctx context.Context, userID, query string) ([]*domain.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "Search query is required"}
	}

	notes, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := []*domain.Note{}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), needle) ||
			strings.Contains(strings.ToLower(n.Content), needle) {
			matches = append(matches, n)
		}
	}

	return matches, nil
}

func (s *NoteService) Create(ctx context.Context, userID string, req *domain.CreateNoteRequest) (*domain.Note, error) {
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}

	note := &domain.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		IsPinned:  false,
		CreatedAt: time.Now().UTC(),
	}
	note.EnsureTags()

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.notify(ctx, userID, domain.NoteCreated, note)
	return note, nil
}

func (s *NoteService) find(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, userID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	return note, nil
}

func (s *NoteService) save(ctx context.Context, note *domain.Note) error {
	if err := s.repo.Update(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

// Update applies the fields present in req. isPinned alone does not count
// as a change.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req *domain.UpdateNoteRequest) (*domain.Note, error) {
	if req.Title == nil && req.Content == nil && req.Tags == nil {
		return nil, ErrNoChanges
	}
	if req.Title != nil && *req.Title == "" {
		return nil, requiredField("title")
	}
	if req.Content != nil && *req.Content == "" {
		return nil, requiredField("content")
	}

	note, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = append([]string{}, (*req.Tags)...)
	}
	if req.IsPinned != nil {
		note.IsPinned = *req.IsPinned
	}

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}

	s.notify(ctx, userID, domain.NoteUpdated, note)
	return note, nil
}

func (s *NoteService) SetPinned(ctx context.Context, userID, noteID string, req *domain.SetPinnedRequest) (*domain.Note, error) {
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}

	note, err := s.find(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	note.IsPinned = *req.IsPinned

	if err := s.save(ctx, note); err != nil {
		return nil, err
	}

	s.notify(ctx, userID, domain.NotePinned, note)
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	if err := s.repo.Delete(ctx, userID, noteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.notify(ctx, userID, domain.NoteDeleted, &domain.Note{ID: noteID, UserID: userID})
	return nil
}
