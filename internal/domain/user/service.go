package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/dafmemorial/internal/repository"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Service handles sign-in and sessions.
type Service struct {
	users      Repository
	sessions   SessionRepository
	logger     *slog.Logger
	sessionTTL time.Duration
	now        func() time.Time
}

// NewService creates a new user service.
func NewService(users Repository, sessions SessionRepository, logger *slog.Logger, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SignIn finds the user by email or creates one. A non-empty name from the
// identity replaces the stored name.
func (s *Service) SignIn(ctx context.Context, id Identity) (*User, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(id.Name)

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if name != "" && name != existing.Name {
			if err := s.users.UpdateName(ctx, existing.ID, name); err != nil {
				return nil, fmt.Errorf("updating user name: %w", err)
			}
			existing.Name = name
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if name == "" {
		name = UnknownName
	}
	u := &User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent first sign-in.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("user created", "user_id", u.ID)
	}
	return u, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetByEmail fetches a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// StartSession issues a new opaque session token for the user.
func (s *Service) StartSession(ctx context.Context, userID string) (string, *Session, error) {
	if strings.TrimSpace(userID) == "" {
		return "", nil, ErrInvalidInput
	}
	token, err := newToken()
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}
	now := s.now()
	sess := &Session{
		TokenHash: HashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}
	return token, sess, nil
}

// Resolve returns the user owning a live session token.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionInvalid
	}
	sess, err := s.sessions.Get(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, sess.TokenHash); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrSessionInvalid
	}
	u, err := s.Get(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return u, nil
}

// EndSession revokes a session token. Unknown tokens are ignored.
func (s *Service) EndSession(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, HashToken(token)); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// HashToken is the stored form of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
