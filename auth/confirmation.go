package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// NewConfirmationToken mints a random, single use confirmation token bound
// to the given user. The value is independent of any user data.
func NewConfirmationToken(userID uuid.UUID) (*ConfirmationToken, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	return &ConfirmationToken{
		UserID: userID,
		Token:  hex.EncodeToString(buf),
	}, nil
}

type ConfirmAccountMessage struct {
	Token      string `json:"token"`
	OnResponse func(*User)
}

func (e ConfirmAccountMessage) Type() string { return "user.confirm" }

// ConfirmAccountHandler flips the verification flag exactly once and
// consumes the token.
type ConfirmAccountHandler struct {
	users         UserStore
	confirmations ConfirmationStore
}

func NewConfirmAccountHandler(users UserStore, confirmations ConfirmationStore) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{users: users, confirmations: confirmations}
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	confirmation, err := h.confirmations.GetByToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrConfirmationNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up confirmation token")
	}

	user, err := h.users.GetByID(ctx, confirmation.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return goerrors.New("we were unable to find a user for this token", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up user for confirmation")
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	user.IsVerified = true
	if _, err := h.users.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user as verified")
	}

	if err := h.confirmations.Delete(ctx, confirmation.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume confirmation token")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

type ResendConfirmationMessage struct {
	Email string `json:"email"`
}

func (e ResendConfirmationMessage) Type() string { return "user.confirmation.resend" }

// ResendConfirmationHandler re-sends the original token; it never mints a
// new one, so an earlier email link keeps working.
type ResendConfirmationHandler struct {
	users         UserStore
	confirmations ConfirmationStore
	mail          *MailDispatcher
}

func NewResendConfirmationHandler(users UserStore, confirmations ConfirmationStore, mail *MailDispatcher) *ResendConfirmationHandler {
	return &ResendConfirmationHandler{
		users:         users,
		confirmations: confirmations,
		mail:          mail,
	}
}

func (h *ResendConfirmationHandler) Execute(ctx context.Context, event ResendConfirmationMessage) error {
	user, err := h.users.GetByEmail(ctx, event.Email)
	if err != nil {
		return err
	}

	confirmation, err := h.confirmations.GetByUserID(ctx, user.ID)
	if err != nil {
		return err
	}

	h.mail.SendConfirmation(user, confirmation.Token)

	return nil
}
