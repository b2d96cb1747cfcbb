package auth

import "github.com/gofiber/fiber/v2"

const (
	// LocalsUserKey is where the middleware stores the authenticated user.
	LocalsUserKey = "auth:user"
	// LocalsTokenKey is where the middleware stores the raw bearer token.
	// Logout needs the exact token to revoke the right session row.
	LocalsTokenKey = "auth:token"
)

// SetCtxSession stores the authenticated user and its raw token on the
// request context for downstream handlers.
func SetCtxSession(c *fiber.Ctx, user *User, token string) {
	c.Locals(LocalsUserKey, user)
	c.Locals(LocalsTokenKey, token)
}

// CtxUser returns the authenticated user, or nil outside protected routes.
func CtxUser(c *fiber.Ctx) *User {
	user, _ := c.Locals(LocalsUserKey).(*User)
	return user
}

// CtxToken returns the raw bearer token the request authenticated with.
func CtxToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsTokenKey).(string)
	return token
}
