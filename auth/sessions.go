package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionManager pairs the stateless token signer with the server side
// token set, so verification stays cheap while revocation stays possible.
type SessionManager struct {
	tokens  TokenStore
	service TokenService
	logger  Logger
}

// NewSessionManager creates a SessionManager backed by the given store.
func NewSessionManager(service TokenService, tokens TokenStore) *SessionManager {
	return &SessionManager{
		tokens:  tokens,
		service: service,
		logger:  defLogger{},
	}
}

func (s *SessionManager) WithLogger(logger Logger) *SessionManager {
	s.logger = logger
	return s
}

// Issue signs a new session token for the user and records it in the
// user's token set.
func (s *SessionManager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	raw, err := s.service.Sign(userID)
	if err != nil {
		return "", err
	}

	if _, err := s.tokens.Create(ctx, &AuthToken{UserID: userID, Token: raw}); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist session token")
	}

	return raw, nil
}

// Verify validates the token signature and returns the bound user id. It
// does NOT consult the token set; use IsActive for revocation checks.
func (s *SessionManager) Verify(raw string) (uuid.UUID, error) {
	claims, err := s.service.Verify(raw)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	return id, nil
}

// IsActive reports whether the token is still present in the user's set.
// A well signed token that was revoked is not active.
func (s *SessionManager) IsActive(ctx context.Context, userID uuid.UUID, raw string) (bool, error) {
	return s.tokens.Exists(ctx, userID, raw)
}

// Revoke removes exactly one token from the user's set (single device
// logout).
func (s *SessionManager) Revoke(ctx context.Context, userID uuid.UUID, raw string) error {
	if err := s.tokens.Delete(ctx, userID, raw); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke session token")
	}
	return nil
}

// RevokeAll clears the user's token set (all device logout).
func (s *SessionManager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.tokens.DeleteForUser(ctx, userID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke session tokens")
	}
	return nil
}
