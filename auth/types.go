package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetBcryptCost() int
	GetPasswordMinLength() int
	GetAppName() string
	GetBaseURL() string
}

// Mailer sends outbound mail, best effort. Implementations must be safe for
// concurrent use; delivery failures are logged by callers, never surfaced.
type Mailer interface {
	Send(to, subject, body string) error
}

// UserStore is the credential store surface the workflows depend on.
type UserStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TokenStore tracks issued session tokens so they can be revoked.
type TokenStore interface {
	Create(ctx context.Context, token *AuthToken) (*AuthToken, error)
	Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error)
	Delete(ctx context.Context, userID uuid.UUID, token string) error
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

// ConfirmationStore keeps the single use email confirmation tokens.
type ConfirmationStore interface {
	Create(ctx context.Context, token *ConfirmationToken) (*ConfirmationToken, error)
	GetByToken(ctx context.Context, token string) (*ConfirmationToken, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ConfirmationToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
