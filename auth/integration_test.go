package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-quiz/auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

// openStoreDB gives each test its own in-memory sqlite database with the
// auth schema in place.
func openStoreDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.AuthToken)(nil),
		(*auth.ConfirmationToken)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func TestUsersStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(bcrypt.MinCost))

	created, err := store.Create(ctx, &auth.User{
		Name:     "Pepe Rone",
		Email:    " Pepe.Rone@Example.COM ",
		Password: "super secret",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "pepe.rone@example.com", created.Email)
	require.NotEmpty(t, created.PasswordHash)
	assert.NoError(t, auth.ComparePasswordAndHash("super secret", created.PasswordHash))

	_, err = store.Create(ctx, &auth.User{
		Name:     "Pepe Clone",
		Email:    "pepe.rone@example.com",
		Password: "super secret",
	})
	assert.ErrorIs(t, err, auth.ErrDuplicateAccount)

	found, err := store.GetByEmail(ctx, "PEPE.RONE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, repository.IsRecordNotFound(err))

	_, err = store.Update(ctx, &auth.User{ID: created.ID, Name: "Renamed"})
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Name)
	assert.Equal(t, "pepe.rone@example.com", stored.Email)

	_, err = store.Update(ctx, &auth.User{ID: created.ID, Password: "new secret"})
	require.NoError(t, err)

	stored, err = store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePasswordAndHash("new secret", stored.PasswordHash))

	require.NoError(t, store.SetVerified(ctx, created.ID, true))
	stored, err = store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	require.NoError(t, store.SetVerified(ctx, created.ID, false))
	stored, err = store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)

	require.NoError(t, store.SetAvatar(ctx, created.ID, []byte{1, 2, 3}))
	stored, err = store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, stored.Avatar)

	require.NoError(t, store.SetAvatar(ctx, created.ID, nil))
	stored, err = store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Avatar)

	require.NoError(t, store.Delete(ctx, created.ID))
	assert.True(t, repository.IsRecordNotFound(store.Delete(ctx, created.ID)))

	_, err = store.GetByID(ctx, created.ID)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestUsersStoreList(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	store := auth.NewUsersRepository(db, auth.WithBcryptCost(bcrypt.MinCost))

	seed := []*auth.User{
		{Name: "The Admin", Email: "admin@example.com", Password: "super secret", Role: auth.RoleAdmin},
		{Name: "Alice", Email: "alice@example.com", Password: "super secret"},
		{Name: "Bob", Email: "bob@example.com", Password: "super secret"},
	}
	for _, record := range seed {
		_, err := store.Create(ctx, record)
		require.NoError(t, err)
	}

	admins, err := store.List(ctx, auth.UserFilter{Role: auth.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@example.com", admins[0].Email)

	sorted, err := store.List(ctx, auth.UserFilter{SortBy: "name:desc", Limit: 2})
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "The Admin", sorted[0].Name)
	assert.Equal(t, "Bob", sorted[1].Name)
}

func TestConfirmationTokensStore(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	store := auth.NewConfirmationTokensRepository(db)

	userID := uuid.New()
	confirmation, err := auth.NewConfirmationToken(userID)
	require.NoError(t, err)

	created, err := store.Create(ctx, confirmation)
	require.NoError(t, err)

	byToken, err := store.GetByToken(ctx, confirmation.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, byToken.UserID)

	byUser, err := store.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, byToken.ID, byUser.ID)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.GetByToken(ctx, confirmation.Token)
	assert.True(t, repository.IsRecordNotFound(err))

	_, err = store.GetByUserID(ctx, userID)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestAuthTokensStore(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	store := auth.NewAuthTokensRepository(db)

	userID := uuid.New()
	for _, value := range []string{"first.session.jwt", "second.session.jwt"} {
		_, err := store.Create(ctx, &auth.AuthToken{UserID: userID, Token: value})
		require.NoError(t, err)
	}

	count, err := store.CountForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	exists, err := store.Exists(ctx, userID, "first.session.jwt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, userID, "first.session.jwt"))

	exists, err = store.Exists(ctx, userID, "first.session.jwt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.DeleteForUser(ctx, userID))
	count, err = store.CountForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// TestConfirmAccountAgainstDatabase runs the confirmation flow end to end
// over sqlite, so the store's not-found translation is what the handler
// actually sees.
func TestConfirmAccountAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	users := auth.NewUsersRepository(db, auth.WithBcryptCost(bcrypt.MinCost))
	confirmations := auth.NewConfirmationTokensRepository(db)

	created, err := users.Create(ctx, &auth.User{
		Name:     "Pepe Rone",
		Email:    "pepe.rone@example.com",
		Password: "super secret",
	})
	require.NoError(t, err)

	confirmation, err := auth.NewConfirmationToken(created.ID)
	require.NoError(t, err)
	_, err = confirmations.Create(ctx, confirmation)
	require.NoError(t, err)

	handler := auth.NewConfirmAccountHandler(users, confirmations)
	require.NoError(t, handler.Execute(ctx, auth.ConfirmAccountMessage{Token: confirmation.Token}))

	stored, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// the consumed token reads as a bad request, not an internal error
	err = handler.Execute(ctx, auth.ConfirmAccountMessage{Token: confirmation.Token})
	assert.ErrorIs(t, err, auth.ErrConfirmationNotFound)
}

func TestLoginUnknownEmailAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	db := openStoreDB(t)
	users := auth.NewUsersRepository(db, auth.WithBcryptCost(bcrypt.MinCost))

	service := auth.NewTokenService([]byte("test-signing-key"), "go-quiz", nil)
	sessions := auth.NewSessionManager(service, auth.NewAuthTokensRepository(db))
	auther := auth.NewAuthenticator(users, sessions)

	_, _, err := auther.Login(ctx, "nobody@example.com", "whatever123")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
