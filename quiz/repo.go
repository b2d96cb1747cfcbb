package quiz

import (
	"context"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Filter narrows and pages quiz listings.
type Filter struct {
	Name       string
	Category   string
	Difficulty *int
	SortBy     string
	Limit      int
	Skip       int
}

// Quizzes is the quiz store. Create and Update validate before touching
// the database.
type Quizzes interface {
	Create(ctx context.Context, record *Quiz) (*Quiz, error)
	CreateMany(ctx context.Context, records []*Quiz) ([]*Quiz, error)
	Update(ctx context.Context, record *Quiz) (*Quiz, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Quiz, error)
	List(ctx context.Context, filter Filter) ([]*Quiz, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type quizzes struct {
	repo repository.Repository[*Quiz]
	db   *bun.DB
}

var _ Quizzes = (*quizzes)(nil)

func NewRepository(db *bun.DB) Quizzes {
	repo := repository.NewRepository[*Quiz](db, repository.ModelHandlers[*Quiz]{
		NewRecord: func() *Quiz { return &Quiz{} },
		GetID: func(q *Quiz) uuid.UUID {
			if q == nil {
				return uuid.Nil
			}
			return q.ID
		},
		SetID: func(q *Quiz, id uuid.UUID) {
			if q != nil {
				q.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &quizzes{repo: repo, db: db}
}

func (r *quizzes) Create(ctx context.Context, record *Quiz) (*Quiz, error) {
	record.Normalize()

	if err := validateQuiz(record); err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	created, err := r.repo.CreateTx(ctx, r.db, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create quiz")
	}

	return created, nil
}

// CreateMany validates every record before inserting any, so a bad entry
// in a bulk import rejects the whole batch.
func (r *quizzes) CreateMany(ctx context.Context, records []*Quiz) ([]*Quiz, error) {
	if len(records) == 0 {
		return nil, goerrors.New("no quizzes to import", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	for _, record := range records {
		record.Normalize()
		if err := validateQuiz(record); err != nil {
			return nil, err
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}

	if _, err := r.db.NewInsert().Model(&records).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not import quizzes")
	}

	return records, nil
}

// Update persists every editable column. Callers load the record and
// apply their changes first, so zero values such as difficulty 0 or a
// cleared description are written rather than skipped.
func (r *quizzes) Update(ctx context.Context, record *Quiz) (*Quiz, error) {
	if record.ID == uuid.Nil {
		return nil, repository.NewRecordNotFound()
	}

	record.Normalize()

	if err := validateQuiz(record); err != nil {
		return nil, err
	}

	res, err := r.db.NewUpdate().
		Model(record).
		Column("name", "description", "category", "difficulty", "questions").
		Where("?TableAlias.id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update quiz")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": record.ID.String()})
	}

	return record, nil
}

func (r *quizzes) GetByID(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	return r.repo.GetByID(ctx, id.String())
}

func (r *quizzes) List(ctx context.Context, filter Filter) ([]*Quiz, error) {
	records := []*Quiz{}

	q := r.db.NewSelect().Model(&records)

	if filter.Name != "" {
		q = q.Where("?TableAlias.name = ?", filter.Name)
	}
	if filter.Category != "" {
		q = q.Where("?TableAlias.category = ?", filter.Category)
	}
	if filter.Difficulty != nil {
		q = q.Where("?TableAlias.difficulty = ?", *filter.Difficulty)
	}
	if column, dir, ok := parseSort(filter.SortBy); ok {
		q = q.OrderExpr("? ?", bun.Ident(column), bun.Safe(dir))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		q = q.Offset(filter.Skip)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *quizzes) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*Quiz)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// validateQuiz runs the quiz rules plus every embedded question.
func validateQuiz(record *Quiz) error {
	if err := record.Validate(); err != nil {
		return err
	}

	for i, question := range record.Questions {
		if err := question.Validate(); err != nil {
			if fieldErrs, ok := err.(validation.Errors); ok {
				scoped := validation.Errors{}
				for field, ferr := range fieldErrs {
					scoped["questions."+strconv.Itoa(i)+"."+field] = ferr
				}
				return scoped
			}
			return err
		}
	}

	return nil
}

var quizSortColumns = map[string]string{
	"name":       "name",
	"category":   "category",
	"difficulty": "difficulty",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// parseSort turns "field:desc" into a vetted column and direction.
func parseSort(sortBy string) (string, string, bool) {
	if sortBy == "" {
		return "", "", false
	}

	parts := strings.SplitN(sortBy, ":", 2)
	column, ok := quizSortColumns[strings.TrimSpace(parts[0])]
	if !ok {
		return "", "", false
	}

	dir := "ASC"
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc") {
		dir = "DESC"
	}

	return column, dir, true
}
