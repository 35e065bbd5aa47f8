package repository

import (
	"context"
	"errors"
	"fmt"

	"notes-server/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoUsersCollection = "users"
	mongoNotesCollection = "notes"
)

type mongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{
		users: db.Collection(mongoUsersCollection),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return emailExists(ctx, r, email)
}

type mongoNoteRepository struct {
	notes *mongo.Collection
}

func NewMongoNoteRepository(db *mongo.Database) NoteRepository {
	return &mongoNoteRepository{
		notes: db.Collection(mongoNotesCollection),
	}
}

func ownedBy(userID, noteID string) bson.M {
	return bson.M{"_id": noteID, "user_id": userID}
}

func (r *mongoNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	if _, err := r.notes.InsertOne(ctx, note); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *mongoNoteRepository) FindByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	var note domain.Note
	if err := r.notes.FindOne(ctx, ownedBy(userID, noteID)).Decode(&note); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	note.EnsureTags()
	return &note, nil
}

func (r *mongoNoteRepository) List(ctx context.Context, userID string) ([]*domain.Note, error) {
	cursor, err := r.notes.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := []*domain.Note{}
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode notes: %w", err)
	}
	for _, n := range notes {
		n.EnsureTags()
	}

	return notes, nil
}

func (r *mongoNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	res, err := r.notes.ReplaceOne(ctx, ownedBy(note.UserID, note.ID), note)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoNoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	res, err := r.notes.DeleteOne(ctx, ownedBy(userID, noteID))
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ensureMongoIndexes creates the unique email index that backs the
// credential store's uniqueness guarantee, and the owner index used by List.
func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(mongoUsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = db.Collection(mongoNotesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("notes_user_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create notes owner index: %w", err)
	}

	return nil
}
