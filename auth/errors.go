package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeValidation       = "validation-error"
	TextCodeDuplicateAccount = "duplicate-account"
	TextCodeInvalidCreds     = "invalid-credentials"
	TextCodeNotVerified      = "not-verified"
	TextCodeAlreadyVerified  = "already-verified"
	TextCodeUnauthorized     = "unauthorized"
	TextCodeTokenInvalid     = "token-invalid"
	TextCodeEmptyPassword    = "empty-password"
)

// ErrDuplicateAccount is returned when a registration collides with an
// existing email. The original store error never reaches the client.
var ErrDuplicateAccount = errors.New("there is already an account associated with this email", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateAccount).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials is the generic login failure. It deliberately does
// not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("unable to login", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeBadRequest)

// ErrNotVerified is returned when credentials check out but the account has
// not confirmed its email address yet.
var ErrNotVerified = errors.New("your account has not been verified, check your mail inbox", errors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is the uniform middleware rejection, regardless of cause.
var ErrUnauthorized = errors.New("you don't have rights to this operation", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid is returned for tokens with a bad signature or payload.
var ErrTokenInvalid = errors.New("invalid session token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrConfirmationNotFound is returned when a confirmation token is unknown,
// usually because it was already consumed.
var ErrConfirmationNotFound = errors.New("we were unable to find a valid token, your token may have expired", errors.CategoryBadInput).
	WithTextCode(TextCodeNotVerified).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when confirming an account twice.
var ErrAlreadyVerified = errors.New("this user has already been verified", errors.CategoryBadInput).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword wraps a bcrypt comparison failure.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeBadRequest)

// IsUniqueViolation reports whether err comes from a unique constraint,
// so the store can translate it into ErrDuplicateAccount.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
