package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserFilter narrows and pages admin listings.
type UserFilter struct {
	Role   UserRole
	SortBy string
	Limit  int
	Skip   int
}

// Users is the credential store. Create and Update run the full pipeline:
// normalize, validate, hash-if-changed, persist, translate constraint
// violations. Plaintext passwords never reach the database.
type Users interface {
	UserStore
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
}

type users struct {
	repo  repository.Repository[*User]
	db    *bun.DB
	rules PasswordRules
	cost  int
}

var _ Users = (*users)(nil)

type UsersOption func(*users)

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		repo: repo,
		db:   db,
		cost: DefaultBcryptCost,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

// WithPasswordRules overrides the password invariants enforced on create
// and password change.
func WithPasswordRules(rules PasswordRules) UsersOption {
	return func(u *users) {
		u.rules = rules
	}
}

// WithBcryptCost overrides the hashing cost factor.
func WithBcryptCost(cost int) UsersOption {
	return func(u *users) {
		if cost > 0 {
			u.cost = cost
		}
	}
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	record.Normalize()

	if err := ValidateNewUser(record, a.rules); err != nil {
		return nil, AsValidationError(err)
	}

	if err := a.hashIfChanged(record); err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	created, err := a.repo.CreateTx(ctx, a.db, record)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	return created, nil
}

func (a *users) Update(ctx context.Context, record *User) (*User, error) {
	if record.ID == uuid.Nil {
		return nil, repository.NewRecordNotFound()
	}

	if record.Password != "" {
		record.Password = strings.TrimSpace(record.Password)
		if err := ValidatePassword(record.Password, a.rules); err != nil {
			return nil, AsValidationError(err)
		}
		if err := a.hashIfChanged(record); err != nil {
			return nil, err
		}
	}

	updated, err := a.repo.UpdateTx(ctx, a.db, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateSkipZeroValues(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	return updated, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.repo.GetByID(ctx, id.String())
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) List(ctx context.Context, filter UserFilter) ([]*User, error) {
	records := []*User{}

	q := a.db.NewSelect().Model(&records)

	if filter.Role != "" {
		q = q.Where("?TableAlias.user_role = ?", filter.Role)
	}
	if column, dir, ok := parseSort(filter.SortBy, userSortColumns); ok {
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

func (a *users) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
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

// SetAvatar writes the avatar column directly. A nil value clears it,
// which the zero-value-skipping Update path cannot express.
func (a *users) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("avatar = ?", avatar).
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

// SetVerified writes the verification flag directly, covering the false
// transition the zero-value-skipping Update path cannot express.
func (a *users) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("is_verified = ?", verified).
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

// hashIfChanged hashes the transient plaintext into PasswordHash. Records
// that carry no plaintext keep their stored hash untouched, so unrelated
// saves never re-hash an already hashed value.
func (a *users) hashIfChanged(record *User) error {
	if record.Password == "" {
		return nil
	}

	hash, err := HashPasswordCost(record.Password, a.cost)
	if err != nil {
		return AsValidationError(err)
	}

	record.PasswordHash = hash
	record.Password = ""
	return nil
}

var userSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"role":       "user_role",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// parseSort turns "field:desc" into a vetted column and direction.
func parseSort(sortBy string, allowed map[string]string) (string, string, bool) {
	if sortBy == "" {
		return "", "", false
	}

	parts := strings.SplitN(sortBy, ":", 2)
	column, ok := allowed[strings.TrimSpace(parts[0])]
	if !ok {
		return "", "", false
	}

	dir := "ASC"
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "desc") {
		dir = "DESC"
	}

	return column, dir, true
}
