package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// DefaultPasswordMinLength mirrors the platform default; override via config.
const DefaultPasswordMinLength = 6

// PasswordRules holds the business invariants applied to plaintext passwords.
type PasswordRules struct {
	MinLength int
}

func (r PasswordRules) minLength() int {
	if r.MinLength <= 0 {
		return DefaultPasswordMinLength
	}
	return r.MinLength
}

// Rules returns the composable validation rules for a password field.
func (r PasswordRules) Rules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("choose a password"),
		validation.Length(r.minLength(), 0),
		validation.By(noLiteralPassword),
	}
}

// noLiteralPassword rejects passwords containing the word "password",
// case-insensitive after trimming.
func noLiteralPassword(value any) error {
	s, _ := value.(string)
	if strings.Contains(strings.ToLower(strings.TrimSpace(s)), "password") {
		return errors.New("cannot contain 'password'", errors.CategoryValidation)
	}
	return nil
}

// ValidateNewUser checks the structural fields plus the password invariants
// for a record about to be created.
func ValidateNewUser(u *User, rules PasswordRules) error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Name, validation.Required.Error("provide a name")),
		validation.Field(&u.Email, validation.Required.Error("provide a valid email"), validation.Length(0, 254), is.Email),
		validation.Field(&u.Password, rules.Rules()...),
	)
}

// ValidatePassword applies the password invariants to a standalone value,
// used when an existing account changes its password.
func ValidatePassword(password string, rules PasswordRules) error {
	return validation.Validate(password, rules.Rules()...)
}

// AsValidationError wraps a validation failure in the shared taxonomy so the
// HTTP layer can render field level detail.
func AsValidationError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryValidation, "validation failed").
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest)
}
