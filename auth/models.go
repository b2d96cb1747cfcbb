package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role (i.e. play quizzes, manage own profile)
	RoleUser UserRole = "user"
	// RoleAdmin is an admin role (i.e. manage users and quizzes)
	RoleAdmin UserRole = "admin"
)

// User is the user model. Password carries the plaintext supplied by a
// request and is never persisted; the store hashes it into PasswordHash.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	Password      string     `bun:"-" json:"-"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsVerified    bool       `bun:"is_verified" json:"-"`
	Avatar        []byte     `bun:"avatar,nullzero" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Normalize trims free text fields and lowercases the email so the unique
// index works on a canonical form.
func (u *User) Normalize() *User {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Password = strings.TrimSpace(u.Password)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return u
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthToken is one active session. The set of rows for a user is the
// user's session token set; revocation removes rows.
type AuthToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ConfirmationToken is a single use random value proving control of the
// registered email address. Deleted once the account is confirmed.
type ConfirmationToken struct {
	bun.BaseModel `bun:"table:confirmation_tokens,alias:ctk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
