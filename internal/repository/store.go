package repository

import (
	"context"
	"fmt"

	"notes-server/internal/config"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
	"github.com/rs/zerolog"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store bundles the credential and note repositories of one backend with
// the connection lifecycle they share.
type Store struct {
	Users UserRepository
	Notes NoteRepository

	driver string
	ping   func(ctx context.Context) error
	close  func(ctx context.Context) error
}

func (s *Store) Driver() string {
	return s.driver
}

func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

func NewMemoryStore() *Store {
	db := newMemoryDB()
	return &Store{
		Users:  &memoryUserRepository{db: db},
		Notes:  &memoryNoteRepository{db: db},
		driver: config.DriverMemory,
	}
}

// Open connects to the backend selected by cfg.Driver and prepares the
// indexes the repositories rely on.
func Open(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	var (
		store *Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverCouchDB:
		store, err = openCouchDB(ctx, cfg.CouchDB, logger)
	case config.DriverMongoDB:
		store, err = openMongoDB(ctx, cfg.MongoDB)
	case config.DriverSurrealDB:
		store, err = openSurrealDB(ctx, cfg.SurrealDB)
	case config.DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().Str("driver", store.driver).Msg("store ready")
	return store, nil
}

func openCouchDB(ctx context.Context, cfg config.CouchDBConfig, logger zerolog.Logger) (*Store, error) {
	client, err := kivik.New("couch", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, cfg.Name)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, cfg.Name); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		logger.Info().Str("database", cfg.Name).Msg("created couchdb database")
	}

	err = client.DB(cfg.Name).CreateIndex(ctx, "notes-by-owner", "type-user_id", map[string]interface{}{
		"fields": []string{"type", "user_id"},
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create notes index: %w", err)
	}

	return &Store{
		Users:  NewUserRepository(client, cfg.Name),
		Notes:  NewNoteRepository(client, cfg.Name),
		driver: config.DriverCouchDB,
		ping: func(ctx context.Context) error {
			ok, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("couchdb is not reachable")
			}
			return nil
		},
		close: func(context.Context) error {
			return client.Close()
		},
	}, nil
}

func openMongoDB(ctx context.Context, cfg config.MongoDBConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := ensureMongoIndexes(ctx, db); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	return &Store{
		Users:  NewMongoUserRepository(db),
		Notes:  NewMongoNoteRepository(db),
		driver: config.DriverMongoDB,
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

func openSurrealDB(ctx context.Context, cfg config.SurrealDBConfig) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	_, err = db.SignIn(ctx, surrealdb.Auth{
		Username: cfg.User,
		Password: cfg.Password,
	})
	if err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	if err := ensureSurrealSchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	return &Store{
		Users:  NewSurrealUserRepository(db),
		Notes:  NewSurrealNoteRepository(db),
		driver: config.DriverSurrealDB,
		ping: func(ctx context.Context) error {
			_, err := surrealdb.Query[any](ctx, db, "RETURN true", nil)
			return err
		},
		close: db.Close,
	}, nil
}
