package auth_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-quiz/auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// memUsers is an in-memory Users implementation running the same pipeline
// as the real store: normalize, validate, hash, translate duplicates.
type memUsers struct {
	mu      sync.Mutex
	records map[uuid.UUID]*auth.User
	rules   auth.PasswordRules
}

func newMemUsers() *memUsers {
	return &memUsers{records: map[uuid.UUID]*auth.User{}}
}

func (m *memUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.Normalize()

	if err := auth.ValidateNewUser(record, m.rules); err != nil {
		return nil, auth.AsValidationError(err)
	}

	for _, existing := range m.records {
		if existing.Email == record.Email {
			return nil, auth.ErrDuplicateAccount
		}
	}

	hash, err := auth.HashPasswordCost(record.Password, 4)
	if err != nil {
		return nil, err
	}
	record.PasswordHash = hash
	record.Password = ""

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	clone := *record
	m.records[record.ID] = &clone

	return record, nil
}

func (m *memUsers) Update(ctx context.Context, record *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[record.ID]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	if record.Password != "" {
		if err := auth.ValidatePassword(record.Password, m.rules); err != nil {
			return nil, auth.AsValidationError(err)
		}
		hash, err := auth.HashPasswordCost(record.Password, 4)
		if err != nil {
			return nil, err
		}
		existing.PasswordHash = hash
	}

	if record.Name != "" {
		existing.Name = record.Name
	}
	if record.Role != "" {
		existing.Role = record.Role
	}
	if record.IsVerified {
		existing.IsVerified = true
	}

	clone := *existing
	return &clone, nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *record
	return &clone, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Email == email {
			clone := *record
			return &clone, nil
		}
	}

	return nil, repository.NewRecordNotFound()
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return repository.NewRecordNotFound()
	}

	delete(m.records, id)
	return nil
}

func (m *memUsers) List(ctx context.Context, filter auth.UserFilter) ([]*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*auth.User{}
	for _, record := range m.records {
		if filter.Role != "" && record.Role != filter.Role {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}

	return out, nil
}

func (m *memUsers) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}

	record.Avatar = avatar
	return nil
}

func (m *memUsers) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return repository.NewRecordNotFound()
	}

	record.IsVerified = verified
	return nil
}

// memTokens is an in-memory AuthTokens implementation.
type memTokens struct {
	mu      sync.Mutex
	records []*auth.AuthToken
}

func newMemTokens() *memTokens {
	return &memTokens{}
}

func (m *memTokens) Create(ctx context.Context, record *auth.AuthToken) (*auth.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	clone := *record
	m.records = append(m.records, &clone)
	return record, nil
}

func (m *memTokens) Exists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.UserID == userID && record.Token == token {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTokens) Delete(ctx context.Context, userID uuid.UUID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, record := range m.records {
		if record.UserID == userID && record.Token == token {
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return nil
}

func (m *memTokens) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, record := range m.records {
		if record.UserID == userID {
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return nil
}

func (m *memTokens) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, record := range m.records {
		if record.UserID == userID {
			count++
		}
	}
	return count, nil
}

// memConfirmations is an in-memory ConfirmationTokens implementation.
type memConfirmations struct {
	mu      sync.Mutex
	records map[uuid.UUID]*auth.ConfirmationToken
}

func newMemConfirmations() *memConfirmations {
	return &memConfirmations{records: map[uuid.UUID]*auth.ConfirmationToken{}}
}

func (m *memConfirmations) Create(ctx context.Context, record *auth.ConfirmationToken) (*auth.ConfirmationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	clone := *record
	m.records[record.ID] = &clone
	return record, nil
}

func (m *memConfirmations) GetByToken(ctx context.Context, token string) (*auth.ConfirmationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.Token == token {
			clone := *record
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memConfirmations) GetByUserID(ctx context.Context, userID uuid.UUID) (*auth.ConfirmationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.UserID == userID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (m *memConfirmations) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeMailer records sends on a channel so tests can wait for the
// dispatcher's goroutine.
type fakeMailer struct {
	sent chan sentMail
	fail error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 8)}
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent <- sentMail{To: to, Subject: subject, Body: body}
	return nil
}
