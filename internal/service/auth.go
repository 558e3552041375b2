package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/auth/keycloak"
	"github.com/niolikon/taskboard/internal/model"
	"github.com/niolikon/taskboard/internal/repository"
)

// Auth service errors.
var (
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")
	ErrUsernameTaken      = apperr.Conflict("Username already taken")
	ErrRefreshUnsupported = apperr.BadRequest("Token refresh is not supported")
	ErrRegistrationClosed = apperr.BadRequest("Registration is managed by the identity provider")
	ErrMissingRefresh     = apperr.BadRequest("Missing refresh token")
)

// UserStore persists owners with credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// SystemAuthService registers owners and issues self-signed tokens.
type SystemAuthService struct {
	users  UserStore
	tokens *auth.TokenFactory
	hasher auth.Argon2Params
}

// NewSystemAuthService creates a SystemAuthService.
func NewSystemAuthService(users UserStore, tokens *auth.TokenFactory) *SystemAuthService {
	return &SystemAuthService{users: users, tokens: tokens, hasher: auth.DefaultArgon2Params}
}

// WithHasher overrides the password hashing parameters.
func (s *SystemAuthService) WithHasher(params auth.Argon2Params) *SystemAuthService {
	s.hasher = params
	return s
}

// Register creates an owner with a hashed password.
func (s *SystemAuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and issues a token for the owner.
func (s *SystemAuthService) Login(ctx context.Context, username, password string) (*auth.Token, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.tokens.CreateTokenForOwner(user)
}

// Refresh is not available for self-signed tokens.
func (s *SystemAuthService) Refresh(context.Context, string) (*auth.Token, error) {
	return nil, ErrRefreshUnsupported
}

// Logout is a no-op; self-signed tokens expire on their own.
func (s *SystemAuthService) Logout(context.Context, string) error {
	return nil
}

// KeycloakAuthService delegates credentials to a Keycloak realm.
type KeycloakAuthService struct {
	client *keycloak.Client
}

// NewKeycloakAuthService creates a KeycloakAuthService.
func NewKeycloakAuthService(client *keycloak.Client) *KeycloakAuthService {
	return &KeycloakAuthService{client: client}
}

// Register is handled by the realm.
func (s *KeycloakAuthService) Register(context.Context, string, string) (*model.User, error) {
	return nil, ErrRegistrationClosed
}

// Login performs a password grant.
func (s *KeycloakAuthService) Login(ctx context.Context, username, password string) (*auth.Token, error) {
	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return fromKeycloak(resp), nil
}

// Refresh performs a refresh token grant.
func (s *KeycloakAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.Token, error) {
	resp, err := s.client.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return fromKeycloak(resp), nil
}

// Logout ends the realm session.
func (s *KeycloakAuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingRefresh
	}
	return s.client.Logout(ctx, refreshToken)
}

func fromKeycloak(resp *keycloak.TokenResponse) *auth.Token {
	return &auth.Token{
		AccessToken:      resp.AccessToken,
		ExpiresIn:        resp.ExpiresIn,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresIn: resp.RefreshExpiresIn,
		TokenType:        resp.TokenType,
	}
}
