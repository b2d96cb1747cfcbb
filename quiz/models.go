package quiz

import (
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Difficulty buckets, easy to hard.
const (
	DifficultyEasy   = 0
	DifficultyMedium = 1
	DifficultyHard   = 2
)

// Question is one quiz entry. Right holds the subset of Answers that count
// as correct, so a question can have more than one right answer.
type Question struct {
	Query   string   `json:"query"`
	Answers []string `json:"answers"`
	Right   []string `json:"right"`
}

// Validate will run validation rules
func (q Question) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Required.Error("provide a question")),
		validation.Field(&q.Answers, validation.Required),
		validation.Field(&q.Right, validation.Required),
	)
}

// Quiz is the quiz model. Questions unmarshal from request payloads but
// never serialize into responses; they would leak the right answers to
// players (see MarshalJSON).
type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Category      string     `bun:"category,notnull" json:"category,omitempty"`
	Difficulty    int        `bun:"difficulty" json:"difficulty"`
	Questions     []Question `bun:"questions,type:jsonb" json:"questions"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// MarshalJSON drops the questions from every response while leaving the
// inbound decode path untouched.
func (q Quiz) MarshalJSON() ([]byte, error) {
	type alias Quiz
	shadow := struct {
		alias
		Questions []Question `json:"questions,omitempty"`
	}{alias: alias(q)}

	return json.Marshal(shadow)
}

// Normalize trims the free text fields.
func (q *Quiz) Normalize() *Quiz {
	q.Name = strings.TrimSpace(q.Name)
	q.Category = strings.TrimSpace(q.Category)
	q.Description = strings.TrimSpace(q.Description)
	return q
}

// Validate will run validation rules
func (q Quiz) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Name, validation.Required.Error("provide a name")),
		validation.Field(&q.Category, validation.Required.Error("provide a category")),
		validation.Field(&q.Difficulty, validation.Min(DifficultyEasy), validation.Max(DifficultyHard)),
	)
}
