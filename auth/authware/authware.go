// Package authware provides the bearer-token middleware guarding the
// protected surfaces. Whatever the failure, the response is a uniform 401
// so callers learn nothing about accounts, tokens, or roles.
package authware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-quiz/auth"
)

// Config carries the collaborators the middleware needs per request.
type Config struct {
	Users    auth.UserStore
	Sessions *auth.SessionManager
	Logger   auth.Logger

	// RequireRole, when set, additionally requires the authenticated
	// user to hold the given role.
	RequireRole auth.UserRole
}

// New returns the middleware in its plain authenticated variant.
func New(cfg Config) fiber.Handler {
	return handler(cfg)
}

// NewAdmin returns the middleware variant that also requires the admin
// role.
func NewAdmin(cfg Config) fiber.Handler {
	cfg.RequireRole = auth.RoleAdmin
	return handler(cfg)
}

func handler(cfg Config) fiber.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return reject(c)
		}

		userID, err := cfg.Sessions.Verify(raw)
		if err != nil {
			logger.Debug("authware token rejected: %v", err)
			return reject(c)
		}

		active, err := cfg.Sessions.IsActive(c.Context(), userID, raw)
		if err != nil || !active {
			return reject(c)
		}

		user, err := cfg.Users.GetByID(c.Context(), userID)
		if err != nil {
			return reject(c)
		}

		if cfg.RequireRole != "" && user.Role != cfg.RequireRole {
			return reject(c)
		}

		auth.SetCtxSession(c, user, raw)

		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func reject(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"type":    "unauthorized",
		"message": "You don't have rights to this operation",
	})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
