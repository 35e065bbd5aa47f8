package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
	"notes-server/pkg/hash"
	"notes-server/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// racyUserRepository hides existing users from the pre-check, as a
// concurrent registration would.
type racyUserRepository struct {
	repository.UserRepository
}

func (r racyUserRepository) EmailExists(context.Context, string) (bool, error) {
	return false, nil
}

type brokenUserRepository struct {
	repository.UserRepository
}

var errStoreDown = errors.New("store unavailable")

func (brokenUserRepository) EmailExists(context.Context, string) (bool, error) {
	return false, errStoreDown
}

func (brokenUserRepository) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}

func (brokenUserRepository) FindByID(context.Context, string) (*domain.User, error) {
	return nil, errStoreDown
}

func newTestAuthService(repo repository.UserRepository) (*AuthService, *jwt.Codec) {
	codec := jwt.NewCodec(testSecret, time.Hour)
	return NewAuthService(repo, codec, hash.NewHasher(bcrypt.MinCost)), codec
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *domain.RegisterRequest
		wantErr error
		wantMsg string
	}{
		{
			name: "successful registration",
			req:  &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"},
		},
		{
			name:    "missing fullname",
			req:     &domain.RegisterRequest{Email: "a@x.com", Password: "p1"},
			wantMsg: "Fullname is required",
		},
		{
			name:    "missing email",
			req:     &domain.RegisterRequest{FullName: "A", Password: "p1"},
			wantMsg: "Email is required",
		},
		{
			name:    "blank email",
			req:     &domain.RegisterRequest{FullName: "A", Email: "   ", Password: "p1"},
			wantMsg: "Email is required",
		},
		{
			name:    "missing password",
			req:     &domain.RegisterRequest{FullName: "A", Email: "a@x.com"},
			wantMsg: "Password is required",
		},
		{
			name:    "password over bcrypt limit",
			req:     &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: strings.Repeat("é", 40)},
			wantMsg: "Password is too long",
		},
		{
			name:    "duplicate email with different case",
			req:     &domain.RegisterRequest{FullName: "B", Email: " Existing@Example.com ", Password: "p2"},
			wantErr: ErrUserExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			service, codec := newTestAuthService(store.Users)
			require.NoError(t, store.Users.Create(ctx, &domain.User{
				ID:       "existing-id",
				FullName: "Existing",
				Email:    "existing@example.com",
				Password: "hash",
			}))

			resp, err := service.Register(ctx, tt.req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			case tt.wantMsg != "":
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantMsg, verr.Message)
			default:
				require.NoError(t, err)
				require.NotNil(t, resp.User)
				assert.NotEmpty(t, resp.User.ID)
				assert.Equal(t, "a@x.com", resp.User.Email)
				assert.NotEqual(t, tt.req.Password, resp.User.Password)

				claims, err := codec.Verify(resp.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, resp.User.ID, claims.UserID)

				stored, err := store.Users.FindByEmail(ctx, "a@x.com")
				require.NoError(t, err)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(tt.req.Password)))
			}
		})
	}
}

func TestAuthService_RegisterDistinctIDs(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAuthService(repository.NewMemoryStore().Users)

	first, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)
	second, err := service.Register(ctx, &domain.RegisterRequest{FullName: "B", Email: "b@x.com", Password: "p2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.User.ID, second.User.ID)
}

func TestAuthService_RegisterStoreEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	service, _ := newTestAuthService(racyUserRepository{store.Users})

	_, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	_, err = service.Register(ctx, &domain.RegisterRequest{FullName: "A2", Email: "a@x.com", Password: "p2"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_ConcurrentDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	service, _ := newTestAuthService(store.Users)

	const attempts = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "same@x.com", Password: "p1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if errors.Is(err, ErrUserExists) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflict)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	service, codec := newTestAuthService(store.Users)

	registered, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     *domain.LoginRequest
		wantErr error
		wantMsg string
	}{
		{name: "successful login", req: &domain.LoginRequest{Email: "a@x.com", Password: "p1"}},
		{name: "email case is ignored", req: &domain.LoginRequest{Email: "A@X.com", Password: "p1"}},
		{name: "wrong password", req: &domain.LoginRequest{Email: "a@x.com", Password: "nope"}, wantErr: ErrInvalidCredentials},
		{name: "unknown email", req: &domain.LoginRequest{Email: "b@x.com", Password: "p1"}, wantErr: ErrUserNotFound},
		{name: "missing email", req: &domain.LoginRequest{Password: "p1"}, wantMsg: "Email is required"},
		{name: "missing password", req: &domain.LoginRequest{Email: "a@x.com"}, wantMsg: "Password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := service.Login(ctx, tt.req)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantMsg, verr.Message)
			default:
				require.NoError(t, err)
				assert.Equal(t, "a@x.com", resp.Email)
				claims, err := codec.Verify(resp.AccessToken)
				require.NoError(t, err)
				assert.Equal(t, registered.User.ID, claims.UserID)
			}
		})
	}
}

func TestAuthService_Profile(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	service, _ := newTestAuthService(store.Users)

	registered, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"})
	require.NoError(t, err)

	user, err := service.Profile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", user.FullName)

	_, err = service.Profile(ctx, "deleted-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestAuthService(brokenUserRepository{})

	_, err := service.Register(ctx, &domain.RegisterRequest{FullName: "A", Email: "a@x.com", Password: "p1"})
	assert.ErrorIs(t, err, errStoreDown)

	_, err = service.Login(ctx, &domain.LoginRequest{Email: "a@x.com", Password: "p1"})
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = service.Profile(ctx, "id")
	assert.ErrorIs(t, err, errStoreDown)
}
