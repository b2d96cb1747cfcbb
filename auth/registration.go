package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type RegisterUserMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(*User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates the account, its confirmation token, and
// dispatches the confirmation email. The user row and the token row are two
// separate writes: a crash in between leaves an account that can only be
// confirmed through a resend, which is the accepted trade-off.
type RegisterUserHandler struct {
	users         UserStore
	confirmations ConfirmationStore
	mail          *MailDispatcher
	logger        Logger
}

func NewRegisterUserHandler(users UserStore, confirmations ConfirmationStore, mail *MailDispatcher) *RegisterUserHandler {
	return &RegisterUserHandler{
		users:         users,
		confirmations: confirmations,
		mail:          mail,
		logger:        defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = logger
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{
		Name:     event.Name,
		Email:    event.Email,
		Password: event.Password,
		Role:     RoleUser,
	}

	user, err := h.users.Create(ctx, user)
	if err != nil {
		return err
	}

	confirmation, err := NewConfirmationToken(user.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate confirmation token")
	}

	if confirmation, err = h.confirmations.Create(ctx, confirmation); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist confirmation token")
	}

	// Best effort: registration succeeds even if the mail never leaves.
	h.mail.SendConfirmation(user, confirmation.Token)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
