package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tjtransit/rutas/internal/core/domain"
	"github.com/tjtransit/rutas/internal/core/ports"
	"github.com/tjtransit/rutas/internal/core/session"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is the authoritative verdict; on it the session has
	// already been torn down.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionUnknown means the token is not ours (or was logged out).
	ErrSessionUnknown = errors.New("unknown session")
)

// AuthService owns the session lifecycle: ANONYMOUS to AUTHENTICATED on
// login/registration/federated sign-in, back on logout, detected expiry or
// an upstream 401. Token and user are persisted as one atomic record.
type AuthService struct {
	users    ports.UserRepository
	store    ports.SessionStore
	identity ports.IdentityProvider
	secret   []byte
	tokenTTL time.Duration

	// Now is the clock used for expiry decisions; replaceable in tests.
	Now func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users ports.UserRepository, store ports.SessionStore, identity ports.IdentityProvider, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		store:    store,
		identity: identity,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		Now:      time.Now,
	}
}

// Register creates an account and opens a session.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*session.AuthResponse, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: s.Now(),
	}
	if err := s.users.Create(ctx, user, string(hash)); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, user)
}

// Login verifies credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.AuthResponse, error) {
	user, hash, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// FederatedLogin exchanges an identity-provider credential for a session.
// The provider's response may be flat or data-wrapped; both are accepted.
func (s *AuthService) FederatedLogin(ctx context.Context, credential, mode string) (*session.AuthResponse, error) {
	if s.identity == nil {
		return nil, fmt.Errorf("federated sign-in not configured")
	}

	body, err := s.identity.ExchangeCredential(ctx, credential, mode)
	if err != nil {
		return nil, fmt.Errorf("exchange credential: %w", err)
	}

	resp, err := session.DecodeAuthResponse(body)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, resp.Token, resp.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return resp, nil
}

func (s *AuthService) openSession(ctx context.Context, user *domain.User) (*session.AuthResponse, error) {
	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	// Token and user go in as a single record: a reader never observes one
	// without the other.
	if err := s.store.Put(ctx, token, user); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	return &session.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, error) {
	now := s.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify is the authoritative session check. Unlike IsSessionValid it may
// transition state: a token found expired here is torn down before the
// error is returned.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrSessionUnknown
	}

	if session.IsTokenExpired(token, s.Now()) {
		_ = s.store.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	user, err := s.store.Get(ctx, token)
	if err != nil || user == nil {
		return nil, ErrSessionUnknown
	}
	return user, nil
}

// Logout tears the session down. Idempotent: logging out twice, or with a
// token that never existed, is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// IsSessionValid answers from local evidence only and never mutates
// anything — safe on every request, any number of times.
func (s *AuthService) IsSessionValid(token string) bool {
	return session.IsValid(token, s.Now())
}
