package auth

import (
	stderrors "errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ErrorResponse is the uniform error payload. Fields is only present for
// validation failures.
type ErrorResponse struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondError maps an error from the workflows onto the wire. Field level
// validation detail is preserved, everything else collapses to type and
// message, and unknown errors come back as an opaque 500.
func RespondError(c *fiber.Ctx, err error) error {
	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Type:    TextCodeValidation,
			Message: "validation failed",
			Fields:  flattenFieldErrors(fieldErrs),
		})
	}

	// Store errors carry the repository's own not-found category, which
	// goerrors.IsNotFound does not recognize, so check both.
	if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	var rich *goerrors.Error
	if stderrors.As(err, &rich) {
		status := rich.Code
		if status < fiber.StatusBadRequest || status > 599 {
			status = fiber.StatusInternalServerError
		}

		kind := rich.TextCode
		if kind == "" {
			kind = "error"
		}

		msg := rich.Message
		if status == fiber.StatusInternalServerError {
			msg = "internal server error"
		}

		return c.Status(status).JSON(ErrorResponse{Type: kind, Message: msg})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Type:    "error",
		Message: "internal server error",
	})
}

// RespondInvalidUpdates is the rejection for payloads touching fields the
// caller is not allowed to change.
func RespondInvalidUpdates(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Type:    TextCodeValidation,
		Message: "Invalid updates",
	})
}

func flattenFieldErrors(errs validation.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, err := range errs {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}

// AllowedUpdates reports whether every key in the payload is in the allow
// list, mirroring the update guards on the profile and admin surfaces.
func AllowedUpdates(payload map[string]any, allowed ...string) bool {
	set := make(map[string]bool, len(allowed))
	for _, field := range allowed {
		set[field] = true
	}
	for key := range payload {
		if !set[key] {
			return false
		}
	}
	return true
}

// RespondInvalidBody is the rejection for request bodies that fail to parse.
func RespondInvalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Type:    TextCodeValidation,
		Message: "could not parse request body",
	})
}
