package auth

import (
	"encoding/json"
	stderrors "errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ProfileController serves the self-service account surface behind the
// bearer middleware.
type ProfileController struct {
	Logger Logger
	Users  Users
}

func NewProfileController(users Users, logger Logger) *ProfileController {
	if logger == nil {
		logger = defLogger{}
	}
	return &ProfileController{Logger: logger, Users: users}
}

// RegisterProfileRoutes mounts the profile surface. The avatar read is
// public so image tags can reference it without a token.
func RegisterProfileRoutes(app fiber.Router, controller *ProfileController, ware fiber.Handler) {
	app.Get("/users/me", ware, controller.Me)
	app.Patch("/users/me", ware, controller.Update)
	app.Delete("/users/me", ware, controller.Delete)

	app.Post("/users/me/avatar", ware, controller.UploadAvatar)
	app.Delete("/users/me/avatar", ware, controller.DeleteAvatar)
	app.Get("/users/:id/avatar", controller.GetAvatar)
}

func (p *ProfileController) Me(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}
	return c.JSON(user)
}

func (p *ProfileController) Update(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return RespondInvalidBody(c)
	}

	if len(payload) == 0 || !AllowedUpdates(payload, "name", "password") {
		return RespondInvalidUpdates(c)
	}

	record := &User{ID: user.ID}
	if raw, ok := payload["name"]; ok {
		name, _ := raw.(string)
		if strings.TrimSpace(name) == "" {
			return RespondError(c, validation.Errors{"name": stderrors.New("provide a name")})
		}
		record.Name = name
	}
	if raw, ok := payload["password"]; ok {
		password, _ := raw.(string)
		if password == "" {
			return RespondError(c, validation.Errors{"password": stderrors.New("provide a password")})
		}
		record.Password = password
	}

	updated, err := p.Users.Update(c.Context(), record)
	if err != nil {
		p.Logger.Error("profile update: %v", err)
		return RespondError(c, err)
	}

	return c.JSON(updated)
}

func (p *ProfileController) Delete(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}

	if err := p.Users.Delete(c.Context(), user.ID); err != nil {
		p.Logger.Error("profile delete: %v", err)
		return RespondError(c, err)
	}

	return c.JSON(user)
}

func (p *ProfileController) UploadAvatar(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}

	header, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Type:    TextCodeValidation,
			Message: "please upload an avatar",
		})
	}

	if header.Size > MaxAvatarSize {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Type:    TextCodeValidation,
			Message: "avatar must be smaller than 4MB",
		})
	}

	if !ValidAvatarFilename(header.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Type:    TextCodeValidation,
			Message: "please upload a jpg, jpeg or png image",
		})
	}

	file, err := header.Open()
	if err != nil {
		return RespondError(c, err)
	}
	defer file.Close()

	avatar, err := ProcessAvatar(file)
	if err != nil {
		return RespondError(c, err)
	}

	if err := p.Users.SetAvatar(c.Context(), user.ID, avatar); err != nil {
		p.Logger.Error("avatar upload: %v", err)
		return RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (p *ProfileController) DeleteAvatar(c *fiber.Ctx) error {
	user := CtxUser(c)
	if user == nil {
		return RespondError(c, ErrUnauthorized)
	}

	if err := p.Users.SetAvatar(c.Context(), user.ID, nil); err != nil {
		p.Logger.Error("avatar delete: %v", err)
		return RespondError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

func (p *ProfileController) GetAvatar(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	user, err := p.Users.GetByID(c.Context(), id)
	if err != nil {
		return RespondError(c, err)
	}

	if len(user.Avatar) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(user.Avatar)
}
