package quiz

import (
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-quiz/auth"
)

// MaxImportSize caps bulk import files at 1MB.
const MaxImportSize = 1 << 20

// Controller serves the quiz surface. Reads are public, writes go behind
// the admin middleware.
type Controller struct {
	Logger  auth.Logger
	Quizzes Quizzes
}

func NewController(quizzes Quizzes, logger auth.Logger) *Controller {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Controller{Logger: logger, Quizzes: quizzes}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func RegisterRoutes(app fiber.Router, controller *Controller, adminWare fiber.Handler) {
	app.Get("/quizzes", controller.List)
	app.Get("/quizzes/:id", controller.Get)

	app.Post("/quizzes", adminWare, controller.Create)
	app.Post("/quizzes/upload", adminWare, controller.Upload)
	app.Patch("/quizzes/:id", adminWare, controller.Update)
	app.Delete("/quizzes/:id", adminWare, controller.Delete)
}

func (q *Controller) Create(c *fiber.Ctx) error {
	record := new(Quiz)

	if err := c.BodyParser(record); err != nil {
		q.Logger.Error("create quiz parse payload: %v", err)
		return auth.RespondInvalidBody(c)
	}

	created, err := q.Quizzes.Create(c.Context(), record)
	if err != nil {
		return auth.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// importPayload is the bulk upload file body
type importPayload struct {
	Quizzes []*Quiz `json:"quizzes"`
}

// Upload ingests a JSON file with a batch of quizzes. The batch is all or
// nothing.
func (q *Controller) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Type:    auth.TextCodeValidation,
			Message: "please upload a file",
		})
	}

	if header.Size > MaxImportSize {
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Type:    auth.TextCodeValidation,
			Message: "import file must be smaller than 1MB",
		})
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Type:    auth.TextCodeValidation,
			Message: "please upload a json file",
		})
	}

	file, err := header.Open()
	if err != nil {
		return auth.RespondError(c, err)
	}
	defer file.Close()

	payload := importPayload{}
	if err := json.NewDecoder(file).Decode(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(auth.ErrorResponse{
			Type:    auth.TextCodeValidation,
			Message: "could not parse import file",
		})
	}

	created, err := q.Quizzes.CreateMany(c.Context(), payload.Quizzes)
	if err != nil {
		return auth.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"imported": len(created),
	})
}

func (q *Controller) List(c *fiber.Ctx) error {
	filter := Filter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		SortBy:   c.Query("sortBy"),
	}
	if difficulty, err := strconv.Atoi(c.Query("difficulty")); err == nil {
		filter.Difficulty = &difficulty
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if skip, err := strconv.Atoi(c.Query("skip")); err == nil {
		filter.Skip = skip
	}

	records, err := q.Quizzes.List(c.Context(), filter)
	if err != nil {
		q.Logger.Error("list quizzes: %v", err)
		return auth.RespondError(c, err)
	}

	return c.JSON(records)
}

func (q *Controller) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(auth.ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	record, err := q.Quizzes.GetByID(c.Context(), id)
	if err != nil {
		return auth.RespondError(c, err)
	}

	return c.JSON(record)
}

func (q *Controller) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(auth.ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	payload := map[string]any{}
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return auth.RespondInvalidBody(c)
	}

	if len(payload) == 0 || !auth.AllowedUpdates(payload, "name", "description", "category", "difficulty", "questions") {
		return auth.RespondInvalidUpdates(c)
	}

	record, err := q.Quizzes.GetByID(c.Context(), id)
	if err != nil {
		return auth.RespondError(c, err)
	}

	// Decode onto the stored record so the patch can set zero values,
	// difficulty 0 included, without wiping untouched fields.
	if err := c.BodyParser(record); err != nil {
		return auth.RespondInvalidBody(c)
	}
	record.ID = id

	updated, err := q.Quizzes.Update(c.Context(), record)
	if err != nil {
		return auth.RespondError(c, err)
	}

	return c.JSON(updated)
}

func (q *Controller) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(auth.ErrorResponse{
			Type:    "not-found",
			Message: "resource not found",
		})
	}

	record, err := q.Quizzes.GetByID(c.Context(), id)
	if err != nil {
		return auth.RespondError(c, err)
	}

	if err := q.Quizzes.Delete(c.Context(), id); err != nil {
		return auth.RespondError(c, err)
	}

	return c.JSON(record)
}
