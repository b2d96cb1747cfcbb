package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
)

// AuthController serves the public account surface: registration, email
// confirmation, login, and logout.
type AuthController struct {
	Logger        Logger
	Users         Users
	Confirmations ConfirmationTokens
	Auther        *Auther
	Mail          *MailDispatcher
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users store in auth controller...")
	}
	if c.Confirmations == nil {
		panic("Missing ConfirmationTokens store in auth controller...")
	}
	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}
	if c.Mail == nil {
		panic("Missing MailDispatcher in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerStores(users Users, confirmations ConfirmationTokens) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = users
		c.Confirmations = confirmations
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerMail(mail *MailDispatcher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mail = mail
		return c
	}
}

// RegisterAuthRoutes mounts the public surface. ware guards the logout
// endpoints, which need an authenticated session to revoke.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, ware fiber.Handler) {
	app.Post("/users", controller.Register)
	app.Post("/users/login", controller.Login)
	app.Get("/confirmation/:token", controller.Confirm)
	app.Post("/confirmation/resend", controller.ResendConfirmation)

	app.Post("/users/logout", ware, controller.Logout)
	app.Post("/users/logoutAll", ware, controller.LogoutAll)
}

// RegisterPayload is the registration body
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload: %v", err)
		return RespondInvalidBody(c)
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, err)
	}

	var created *User
	req := RegisterUserMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Users, a.Confirmations, a.Mail).
		WithLogger(a.Logger)

	if err := registerUser.Execute(c.Context(), req); err != nil {
		a.Logger.Error("register user execute: %v", err)
		return RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// LoginPayload is the login body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return RespondInvalidBody(c)
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, err)
	}

	user, token, err := a.Auther.Login(c.Context(), payload.Email, payload.Password)
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

func (a *AuthController) Confirm(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return RespondError(c, ErrConfirmationNotFound)
	}

	confirm := NewConfirmAccountHandler(a.Users, a.Confirmations)
	if err := confirm.Execute(c.Context(), ConfirmAccountMessage{Token: token}); err != nil {
		return RespondError(c, err)
	}

	return c.SendString("Your account has been verified. You may log in")
}

// ResendPayload is the resend confirmation body
type ResendPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResendPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendConfirmation(c *fiber.Ctx) error {
	payload := new(ResendPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("resend confirmation parse payload: %v", err)
		return RespondInvalidBody(c)
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, err)
	}

	resend := NewResendConfirmationHandler(a.Users, a.Confirmations, a.Mail)
	if err := resend.Execute(c.Context(), ResendConfirmationMessage{Email: payload.Email}); err != nil {
		return RespondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "confirmation email sent"})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	user := CtxUser(c)
	token := CtxToken(c)
	if user == nil || token == "" {
		return RespondError(c, ErrUnauthorized)
	}

	if err := a.Auther.Logout(c.Context(), user.ID, token); err != nil {
		return RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (a *AuthController) LogoutAll(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}

	if err := a.Auther.LogoutAll(c.Context(), user.ID); err != nil {
		return RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
