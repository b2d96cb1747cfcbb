package auth

import (
	"encoding/json"
	stderrors "errors"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AdminController manages accounts on behalf of administrators. Every
// route is mounted behind the admin variant of the middleware.
type AdminController struct {
	Logger Logger
	Users  Users
	Mail   *MailDispatcher
}

func NewAdminController(users Users, mail *MailDispatcher, logger Logger) *AdminController {
	if logger == nil {
		logger = defLogger{}
	}
	return &AdminController{Logger: logger, Users: users, Mail: mail}
}

func RegisterAdminRoutes(app fiber.Router, controller *AdminController, adminWare fiber.Handler) {
	group := app.Group("/admin", adminWare)
	group.Post("/users", controller.CreateUser)
	group.Get("/users", controller.ListUsers)
	group.Patch("/users/:id", controller.UpdateUser)
	group.Delete("/users/:id", controller.DeleteUser)
}

// AdminCreateUserPayload is the admin user creation body
type AdminCreateUserPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate will run validation rules
func (r AdminCreateUserPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.In(string(RoleUser), string(RoleAdmin))),
	)
}

// CreateUser provisions a pre-verified account, so the user skips the
// email confirmation round trip.
func (a *AdminController) CreateUser(c *fiber.Ctx) error {
	payload := new(AdminCreateUserPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("admin create user parse payload: %v", err)
		return RespondInvalidBody(c)
	}

	if err := payload.Validate(); err != nil {
		return RespondError(c, err)
	}

	record := &User{
		Name:       payload.Name,
		Email:      payload.Email,
		Password:   payload.Password,
		Role:       UserRole(payload.Role),
		IsVerified: true,
	}

	created, err := a.Users.Create(c.Context(), record)
	if err != nil {
		a.Logger.Error("admin create user: %v", err)
		return RespondError(c, err)
	}

	a.Mail.SendAdminWelcome(created)

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a *AdminController) ListUsers(c *fiber.Ctx) error {
	filter := UserFilter{
		Role:   UserRole(c.Query("role")),
		SortBy: c.Query("sortBy"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if skip, err := strconv.Atoi(c.Query("skip")); err == nil {
		filter.Skip = skip
	}

	users, err := a.Users.List(c.Context(), filter)
	if err != nil {
		a.Logger.Error("admin list users: %v", err)
		return RespondError(c, err)
	}

	return c.JSON(users)
}

func (a *AdminController) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	payload := map[string]any{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return RespondInvalidBody(c)
	}

	if len(payload) == 0 || !AllowedUpdates(payload, "name", "password", "role", "isVerified") {
		return RespondInvalidUpdates(c)
	}

	record := &User{ID: id}
	touched := false

	if raw, ok := payload["name"]; ok {
		name, _ := raw.(string)
		if strings.TrimSpace(name) == "" {
			return RespondError(c, validation.Errors{"name": stderrors.New("provide a name")})
		}
		record.Name = name
		touched = true
	}
	if raw, ok := payload["password"]; ok {
		password, _ := raw.(string)
		if password == "" {
			return RespondError(c, validation.Errors{"password": stderrors.New("provide a password")})
		}
		record.Password = password
		touched = true
	}
	if raw, ok := payload["role"]; ok {
		role, _ := raw.(string)
		if role != string(RoleUser) && role != string(RoleAdmin) {
			return RespondInvalidUpdates(c)
		}
		record.Role = UserRole(role)
		touched = true
	}

	updated, err := a.Users.GetByID(c.Context(), id)
	if err != nil {
		return RespondError(c, err)
	}

	// A verification-only patch has nothing for the row update to set.
	if touched {
		updated, err = a.Users.Update(c.Context(), record)
		if err != nil {
			a.Logger.Error("admin update user: %v", err)
			return RespondError(c, err)
		}
	}

	if raw, ok := payload["isVerified"]; ok {
		verified, ok := raw.(bool)
		if !ok {
			return RespondInvalidUpdates(c)
		}
		if err := a.Users.SetVerified(c.Context(), id, verified); err != nil {
			a.Logger.Error("admin update user verification: %v", err)
			return RespondError(c, err)
		}
		updated.IsVerified = verified
	}

	return c.JSON(updated)
}

func (a *AdminController) DeleteUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	user, err := a.Users.GetByID(c.Context(), id)
	if err != nil {
		return RespondError(c, err)
	}

	if err := a.Users.Delete(c.Context(), id); err != nil {
		a.Logger.Error("admin delete user: %v", err)
		return RespondError(c, err)
	}

	return c.JSON(user)
}
