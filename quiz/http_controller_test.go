package quiz_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-quiz/quiz"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memQuizzes is an in-memory Quizzes implementation running the same
// validation as the real store.
type memQuizzes struct {
	mu      sync.Mutex
	records map[uuid.UUID]*quiz.Quiz
}

func newMemQuizzes() *memQuizzes {
	return &memQuizzes{records: map[uuid.UUID]*quiz.Quiz{}}
}

func (m *memQuizzes) Create(ctx context.Context, record *quiz.Quiz) (*quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.Normalize()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	clone := *record
	m.records[record.ID] = &clone
	return record, nil
}

func (m *memQuizzes) CreateMany(ctx context.Context, records []*quiz.Quiz) ([]*quiz.Quiz, error) {
	if len(records) == 0 {
		return nil, goerrors.New("no quizzes to import", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	for _, record := range records {
		record.Normalize()
		if err := record.Validate(); err != nil {
			return nil, err
		}
	}
	for _, record := range records {
		if _, err := m.Create(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (m *memQuizzes) Update(ctx context.Context, record *quiz.Quiz) (*quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.ID]; !ok {
		return nil, repository.NewRecordNotFound()
	}

	record.Normalize()
	if err := record.Validate(); err != nil {
		return nil, err
	}

	clone := *record
	m.records[record.ID] = &clone
	return record, nil
}

func (m *memQuizzes) GetByID(ctx context.Context, id uuid.UUID) (*quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (m *memQuizzes) List(ctx context.Context, filter quiz.Filter) ([]*quiz.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*quiz.Quiz{}
	for _, record := range m.records {
		if filter.Name != "" && record.Name != filter.Name {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		if filter.Difficulty != nil && record.Difficulty != *filter.Difficulty {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memQuizzes) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return repository.NewRecordNotFound()
	}

	delete(m.records, id)
	return nil
}

func newQuizApp() (*fiber.App, *memQuizzes) {
	store := newMemQuizzes()
	app := fiber.New()

	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	quiz.RegisterRoutes(app, quiz.NewController(store, nil), passthrough)

	return app, store
}

func quizJSON(t *testing.T, app *fiber.App, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

func TestQuizCRUD(t *testing.T) {
	app, store := newQuizApp()

	status, raw := quizJSON(t, app, "POST", "/quizzes", fiber.Map{
		"name":       "Capitals",
		"category":   "geography",
		"difficulty": 1,
		"questions": []fiber.Map{
			{
				"query":   "Capital of France?",
				"answers": []string{"Paris", "Lyon"},
				"right":   []string{"Paris"},
			},
		},
	})
	require.Equal(t, fiber.StatusCreated, status)

	created := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	// questions stay out of responses
	assert.NotContains(t, created, "questions")

	// but they are stored
	stored, err := store.GetByID(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	require.Len(t, stored.Questions, 1)
	assert.Equal(t, "Capital of France?", stored.Questions[0].Query)

	status, raw = quizJSON(t, app, "GET", "/quizzes/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotContains(t, string(raw), "questions")

	status, _ = quizJSON(t, app, "PATCH", "/quizzes/"+id, fiber.Map{
		"difficulty": 2,
	})
	require.Equal(t, fiber.StatusOK, status)

	// difficulty can go back to easy, and untouched fields survive
	status, _ = quizJSON(t, app, "PATCH", "/quizzes/"+id, fiber.Map{
		"difficulty": 0,
	})
	require.Equal(t, fiber.StatusOK, status)

	stored, err = store.GetByID(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	assert.Equal(t, quiz.DifficultyEasy, stored.Difficulty)
	assert.Equal(t, "Capitals", stored.Name)
	require.Len(t, stored.Questions, 1)

	status, raw = quizJSON(t, app, "PATCH", "/quizzes/"+id, fiber.Map{
		"owner": "someone",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "Invalid updates")

	status, _ = quizJSON(t, app, "DELETE", "/quizzes/"+id, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = quizJSON(t, app, "GET", "/quizzes/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestQuizCreateRejectsInvalid(t *testing.T) {
	app, _ := newQuizApp()

	status, raw := quizJSON(t, app, "POST", "/quizzes", fiber.Map{
		"category": "geography",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(raw), "validation-error")
}

func TestQuizListFilters(t *testing.T) {
	app, store := newQuizApp()

	seed := []*quiz.Quiz{
		{Name: "Capitals", Category: "geography", Difficulty: 0},
		{Name: "Rivers", Category: "geography", Difficulty: 2},
		{Name: "Algebra", Category: "math", Difficulty: 1},
	}
	for _, record := range seed {
		_, err := store.Create(context.Background(), record)
		require.NoError(t, err)
	}

	status, raw := quizJSON(t, app, "GET", "/quizzes?category=geography", nil)
	require.Equal(t, fiber.StatusOK, status)

	listed := []map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Len(t, listed, 2)

	status, raw = quizJSON(t, app, "GET", "/quizzes?difficulty=1", nil)
	require.Equal(t, fiber.StatusOK, status)
	listed = nil
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Algebra", listed[0]["name"])
}

func uploadQuizFile(t *testing.T, app *fiber.App, filename string, content []byte) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/quizzes/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, raw
}

func TestQuizBulkUpload(t *testing.T) {
	app, store := newQuizApp()

	payload := []byte(`{
		"quizzes": [
			{"name": "Capitals", "category": "geography", "difficulty": 0},
			{"name": "Rivers", "category": "geography", "difficulty": 2}
		]
	}`)

	status, raw := uploadQuizFile(t, app, "import.json", payload)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Contains(t, string(raw), `"imported":2`)

	listed, err := store.List(context.Background(), quiz.Filter{})
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestQuizBulkUploadRejects(t *testing.T) {
	app, _ := newQuizApp()

	t.Run("wrong extension", func(t *testing.T) {
		status, _ := uploadQuizFile(t, app, "import.csv", []byte(`{}`))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("malformed json", func(t *testing.T) {
		status, _ := uploadQuizFile(t, app, "import.json", []byte(`{not json`))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("empty batch", func(t *testing.T) {
		status, _ := uploadQuizFile(t, app, "import.json", []byte(`{"quizzes": []}`))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}
