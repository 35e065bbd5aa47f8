package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notes-server/internal/domain"
	"notes-server/internal/repository"
	"notes-server/pkg/hash"
	"notes-server/pkg/jwt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Codec
	hasher   *hash.Hasher
	validate *validator.Validate
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Codec, hasher *hash.Hasher) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		validate: newValidator(),
	}
}

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(req.Email)
	if email == "" {
		return nil, requiredField("email")
	}

	emailExists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return nil, ErrUserExists
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, &ValidationError{Field: "password", Message: "Password is too long"}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		FullName:  req.FullName,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AuthResponse{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.hasher.Compare(user.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.LoginResponse{
		Email:       user.Email,
		AccessToken: accessToken,
	}, nil
}

// Profile reads the user fresh from the store on every call.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
