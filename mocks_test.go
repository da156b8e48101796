package sessions_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	sessions "github.com/goliatone/go-sessions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockAccounts implements sessions.Accounts. Only the methods the session
// flows reach are mocked; the embedded repository interface panics when an
// unexpected method is hit, which is exactly what we want in a test.
type MockAccounts struct {
	mock.Mock
	repository.Repository[*sessions.Account]
}

func (m *MockAccounts) Register(ctx context.Context, account *sessions.Account) (*sessions.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.Account), args.Error(1)
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *sessions.Account) (*sessions.Account, error) {
	args := m.Called(ctx, tx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.Account), args.Error(1)
}

func (m *MockAccounts) FindByID(ctx context.Context, id string) (*sessions.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.Account), args.Error(1)
}

func (m *MockAccounts) FindByIdentifier(ctx context.Context, identifier string) (*sessions.Account, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.Account), args.Error(1)
}

func (m *MockAccounts) CountAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAccounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockAccounts) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccounts) DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

// MockBans implements sessions.Bans.
type MockBans struct {
	mock.Mock
	repository.Repository[*sessions.BanEntry]
}

func (m *MockBans) IsBanned(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockVerificationTokens implements sessions.VerificationTokens.
type MockVerificationTokens struct {
	mock.Mock
	repository.Repository[*sessions.VerificationToken]
}

func (m *MockVerificationTokens) CreateTx(ctx context.Context, tx bun.IDB, record *sessions.VerificationToken, criteria ...repository.InsertCriteria) (*sessions.VerificationToken, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.VerificationToken), args.Error(1)
}

func (m *MockVerificationTokens) FindByToken(ctx context.Context, token string) (*sessions.VerificationToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.VerificationToken), args.Error(1)
}

func (m *MockVerificationTokens) FindByAccount(ctx context.Context, accountID uuid.UUID) (*sessions.VerificationToken, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sessions.VerificationToken), args.Error(1)
}

func (m *MockVerificationTokens) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeRepoManager hands out the mocks and runs transactions inline with a
// zero value bun.Tx, which is enough because the mocks never touch it.
type fakeRepoManager struct {
	accounts *MockAccounts
	bans     *MockBans
	tokens   *MockVerificationTokens
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts: &MockAccounts{},
		bans:     &MockBans{},
		tokens:   &MockVerificationTokens{},
	}
}

func (f *fakeRepoManager) Validate() error { return nil }
func (f *fakeRepoManager) MustValidate()   {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

func (f *fakeRepoManager) Accounts() sessions.Accounts                     { return f.accounts }
func (f *fakeRepoManager) Bans() sessions.Bans                             { return f.bans }
func (f *fakeRepoManager) VerificationTokens() sessions.VerificationTokens { return f.tokens }

// MockCredentialStore implements sessions.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCredentialStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockMailer implements sessions.Mailer.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg sessions.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// recordingSink collects activity events for assertions.
type recordingSink struct {
	events []sessions.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event sessions.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) has(eventType sessions.ActivityEventType) bool {
	for _, e := range r.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}
