package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConfirmationTokens stores the pending email confirmations.
type ConfirmationTokens interface {
	ConfirmationStore
}

type confirmationTokens struct {
	repo repository.Repository[*ConfirmationToken]
	db   *bun.DB
}

var _ ConfirmationTokens = (*confirmationTokens)(nil)

func NewConfirmationTokensRepository(db *bun.DB) ConfirmationTokens {
	repo := repository.NewRepository[*ConfirmationToken](db, repository.ModelHandlers[*ConfirmationToken]{
		NewRecord: func() *ConfirmationToken { return &ConfirmationToken{} },
		GetID: func(t *ConfirmationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *ConfirmationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &confirmationTokens{repo: repo, db: db}
}

func (c *confirmationTokens) Create(ctx context.Context, record *ConfirmationToken) (*ConfirmationToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return c.repo.CreateTx(ctx, c.db, record)
}

func (c *confirmationTokens) GetByToken(ctx context.Context, token string) (*ConfirmationToken, error) {
	record := &ConfirmationToken{}
	err := c.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (c *confirmationTokens) GetByUserID(ctx context.Context, userID uuid.UUID) (*ConfirmationToken, error) {
	record := &ConfirmationToken{}
	err := c.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (c *confirmationTokens) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := c.db.NewDelete().
		Model((*ConfirmationToken)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	return err
}
