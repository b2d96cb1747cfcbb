package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthTokens is the server side session token set.
type AuthTokens interface {
	TokenStore
	CountForUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type authTokens struct {
	repo repository.Repository[*AuthToken]
	db   *bun.DB
}

var _ AuthTokens = (*authTokens)(nil)

func NewAuthTokensRepository(db *bun.DB) AuthTokens {
	repo := repository.NewRepository[*AuthToken](db, repository.ModelHandlers[*AuthToken]{
		NewRecord: func() *AuthToken { return &AuthToken{} },
		GetID: func(t *AuthToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *AuthToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &authTokens{repo: repo, db: db}
}

func (a *authTokens) Create(ctx context.Context, record *AuthToken) (*AuthToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.repo.CreateTx(ctx, a.db, record)
}

func (a *authTokens) Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	return a.db.NewSelect().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
}

func (a *authTokens) Delete(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)
	return err
}

func (a *authTokens) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := a.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)
	return err
}

func (a *authTokens) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return a.db.NewSelect().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Count(ctx)
}
