package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskdesk.org/internal/ids"
)

// Service is the authenticator: it registers identities against the
// credential store and exchanges credentials for signed tokens.
type Service struct {
	store  Store
	tokens *TokenService
	now    func() time.Time
}

// NewService constructs the authenticator.
func NewService(store Store, tokens *TokenService) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	return &Service{store: store, tokens: tokens, now: time.Now}, nil
}

// Register creates a user with the requested role. An unknown requested role
// is silently coerced to DefaultRole. The raw password is hashed before it
// reaches the store and is never retained.
func (s *Service) Register(ctx context.Context, username, password, requestedRole string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{NormalizeRole(requestedRole)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. Every failure path —
// missing fields, unknown username, wrong password — returns the identical
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, *User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			verifyDummy(password)
			return TokenPair{}, nil, ErrInvalidCredentials
		}
		return TokenPair{}, nil, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, user, nil
}

// Refresh validates a refresh token and issues a fresh pair for its subject
// with the user's current roles.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ResolveRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrUnauthenticated
	}
	user, err := s.store.FindUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrUnauthenticated
		}
		return TokenPair{}, err
	}
	return s.tokens.Issue(user)
}

// AddRole grants an additional role to a user. Adding an already-held role
// is a no-op.
func (s *Service) AddRole(ctx context.Context, userID, role string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	role = strings.TrimSpace(strings.ToLower(role))
	if !ValidRole(role) {
		return fmt.Errorf("%w: unknown role %s", ErrValidation, role)
	}
	return s.store.AddRole(ctx, userID, role)
}
