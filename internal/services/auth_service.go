package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskmanager/internal/models"
	"taskmanager/internal/repositories"
	"taskmanager/internal/security"
)

// AuthService handles registration and login.
type AuthService struct {
	uow    repositories.UnitOfWorkFactory
	hasher *security.PasswordHasher
	tokens *security.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(uow repositories.UnitOfWorkFactory, hasher *security.PasswordHasher, tokens *security.TokenManager) *AuthService {
	return &AuthService{
		uow:    uow,
		hasher: hasher,
		tokens: tokens,
	}
}

// Register creates a new user and issues a token for it. A registration with
// an email that is already taken fails with ErrEmailTaken and creates nothing.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Users().GetByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedOn:    time.Now().UTC(),
	}

	if err := uow.Users().Create(user); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(); err != nil {
		return nil, err
	}

	log.Printf("User registered with email %s", user.Email)

	return s.respondWithToken(user)
}

// Login verifies the credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = normalizeEmail(email)

	uow, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.Users().GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	log.Printf("User logged in with email %s", user.Email)

	return s.respondWithToken(user)
}

func (s *AuthService) respondWithToken(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
