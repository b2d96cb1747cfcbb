package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Auther turns credentials into sessions. Login deliberately collapses
// "no such account" and "wrong password" into the same error so the
// response never reveals whether an email is registered.
type Auther struct {
	users    UserStore
	sessions *SessionManager
	logger   Logger
}

func NewAuthenticator(users UserStore, sessions *SessionManager) *Auther {
	return &Auther{
		users:    users,
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (a *Auther) WithLogger(logger Logger) *Auther {
	a.logger = logger
	return a
}

// Login verifies the credentials, requires a confirmed account, and issues
// a new session token.
func (a *Auther) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up account")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		a.logger.Debug("login rejected for %s: password mismatch", email)
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, "", ErrNotVerified
	}

	token, err := a.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session")
	}

	return user, token, nil
}

// Logout revokes the single session the token belongs to.
func (a *Auther) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	return a.sessions.Revoke(ctx, userID, token)
}

// LogoutAll revokes every session the user holds, on this device and any
// other.
func (a *Auther) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return a.sessions.RevokeAll(ctx, userID)
}
