package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notes-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository is the credential store. Create must reject a second user
// with the same email itself rather than relying on callers to check first.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type couchUser struct {
	Rev       string    `json:"_rev,omitempty"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	FullName  string    `json:"fullname"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_on"`
}

// couchEmail reserves an email. CouchDB only guarantees uniqueness of _id,
// so the reservation document's id is derived from the email.
type couchEmail struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

type userRepository struct {
	client *kivik.Client
	dbName string
}

func NewUserRepository(client *kivik.Client, dbName string) UserRepository {
	return &userRepository{
		client: client,
		dbName: dbName,
	}
}

func userDocID(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func emailDocID(email string) string {
	return fmt.Sprintf("email:%s", email)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	db := r.client.DB(r.dbName)

	reservationRev, err := db.Put(ctx, emailDocID(user.Email), couchEmail{
		Type:   "email",
		UserID: user.ID,
	})
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to reserve email: %w", err)
	}

	_, err = db.Put(ctx, userDocID(user.ID), couchUser{
		Type:      "user",
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		err = fmt.Errorf("failed to create user: %w", err)
		// release the reservation so the email can be used again
		if _, relErr := db.Delete(ctx, emailDocID(user.Email), reservationRev); relErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release email %s: %w", user.Email, relErr))
		}
		return err
	}

	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	var reservation couchEmail
	if err := db.Get(ctx, emailDocID(email)).ScanDoc(&reservation); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return r.FindByID(ctx, reservation.UserID)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	db := r.client.DB(r.dbName)

	var doc couchUser
	if err := db.Get(ctx, userDocID(id)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return &domain.User{
		ID:        doc.ID,
		FullName:  doc.FullName,
		Email:     doc.Email,
		Password:  doc.Password,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, r, email)
}

func emailExists(ctx context.Context, repo UserRepository, email string) (bool, error) {
	_, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
