package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	sessions "github.com/goliatone/go-sessions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() sessions.Config {
	return sessions.Config{
		Auth: sessions.AuthConfig{
			AccessSecret:    "access-secret",
			RefreshSecret:   "refresh-secret",
			AccessTTL:       time.Minute * 15,
			RefreshTTL:      time.Hour * 24 * 7,
			Issuer:          "go-sessions-test",
			TokenLookup:     "cookie:access_token",
			AuthScheme:      "Bearer",
			ContextKey:      "account",
			VerificationTTL: time.Hour * 24,
		},
		Sweep: sessions.SweepConfig{
			Schedule:   "0 3 * * *",
			StaleAfter: time.Hour * 720,
		},
	}
}

type serviceFixture struct {
	svc    *sessions.Service
	repo   *fakeRepoManager
	store  *sessions.MemoryCredentialStore
	mailer *MockMailer
	sink   *recordingSink
	tokens sessions.TokenService
}

func newServiceFixture() *serviceFixture {
	cfg := testConfig()
	repo := newFakeRepoManager()
	store := sessions.NewMemoryCredentialStore()
	tokens := sessions.NewTokenService(cfg.Auth, nil)
	mailer := &MockMailer{}
	sink := &recordingSink{}

	svc := sessions.NewSessionService(repo, tokens, store, cfg).
		WithMailer(mailer).
		WithActivitySink(sink)

	return &serviceFixture{
		svc:    svc,
		repo:   repo,
		store:  store,
		mailer: mailer,
		sink:   sink,
		tokens: tokens,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func testAccount(password string) *sessions.Account {
	hash, err := sessions.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &sessions.Account{
		ID:            uuid.New(),
		Name:          "Pepe Rone",
		Username:      "peperone",
		Email:         "pepe.rone@example.com",
		PasswordHash:  hash,
		EmailVerified: true,
		CreatedAt:     timePtr(time.Now()),
	}
}

func signUpPayload() sessions.SignUpPayload {
	return sessions.SignUpPayload{
		Name:     "Pepe Rone",
		Username: "peperone",
		Email:    "pepe.rone@example.com",
		Password: "s3cret-passw0rd",
	}
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("first account is promoted to super admin", func(t *testing.T) {
		f := newServiceFixture()
		payload := signUpPayload()

		f.repo.bans.On("IsBanned", mock.Anything, payload.Email).Return(false, nil)
		f.repo.accounts.On("FindByIdentifier", mock.Anything, payload.Email).
			Return(nil, sessions.ErrAccountNotFound)
		f.repo.accounts.On("CountAll", mock.Anything).Return(0, nil)
		f.repo.accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *sessions.Account) bool {
			return a.IsAdmin && a.IsSuperAdmin && a.PasswordHash != ""
		})).Return(testAccount("s3cret-passw0rd"), nil)

		pair, err := f.svc.SignUp(ctx, payload)
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.True(t, f.sink.has(sessions.ActivityEventSignUpSuccess))
	})

	t.Run("later accounts stay regular users", func(t *testing.T) {
		f := newServiceFixture()
		payload := signUpPayload()

		f.repo.bans.On("IsBanned", mock.Anything, payload.Email).Return(false, nil)
		f.repo.accounts.On("FindByIdentifier", mock.Anything, payload.Email).
			Return(nil, sessions.ErrAccountNotFound)
		f.repo.accounts.On("CountAll", mock.Anything).Return(12, nil)
		f.repo.accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *sessions.Account) bool {
			return !a.IsAdmin && !a.IsSuperAdmin
		})).Return(testAccount("s3cret-passw0rd"), nil)

		_, err := f.svc.SignUp(ctx, payload)
		require.NoError(t, err)
	})

	t.Run("stores the refresh credential under the account id", func(t *testing.T) {
		f := newServiceFixture()
		payload := signUpPayload()
		account := testAccount("s3cret-passw0rd")

		f.repo.bans.On("IsBanned", mock.Anything, payload.Email).Return(false, nil)
		f.repo.accounts.On("FindByIdentifier", mock.Anything, payload.Email).
			Return(nil, sessions.ErrAccountNotFound)
		f.repo.accounts.On("CountAll", mock.Anything).Return(1, nil)
		f.repo.accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
			Return(account, nil)

		pair, err := f.svc.SignUp(ctx, payload)
		require.NoError(t, err)

		stored, err := f.store.Get(ctx, account.GetID())
		require.NoError(t, err)
		assert.Equal(t, pair.RefreshToken, stored)
	})

	t.Run("banned email is rejected before any account exists", func(t *testing.T) {
		f := newServiceFixture()
		payload := signUpPayload()

		f.repo.bans.On("IsBanned", mock.Anything, payload.Email).Return(true, nil)

		pair, err := f.svc.SignUp(ctx, payload)
		assert.Nil(t, pair)
		assert.ErrorIs(t, err, sessions.ErrEmailBanned)
		f.repo.accounts.AssertNotCalled(t, "RegisterTx", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, f.sink.has(sessions.ActivityEventSignUpFailure))
	})

	t.Run("existing identifier is a conflict", func(t *testing.T) {
		f := newServiceFixture()
		payload := signUpPayload()

		f.repo.bans.On("IsBanned", mock.Anything, payload.Email).Return(false, nil)
		f.repo.accounts.On("FindByIdentifier", mock.Anything, payload.Email).
			Return(testAccount("whatever-was-there"), nil)

		_, err := f.svc.SignUp(ctx, payload)
		assert.ErrorIs(t, err, sessions.ErrAccountExists)
	})

	t.Run("invalid payload is rejected up front", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.SignUp(ctx, sessions.SignUpPayload{Email: "nope"})
		assert.Error(t, err)
		f.repo.bans.AssertNotCalled(t, "IsBanned", mock.Anything, mock.Anything)
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials open a session", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(false, nil)

		pair, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: account.Email,
			Password:   "s3cret-passw0rd",
		})
		require.NoError(t, err)

		claims, err := f.tokens.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, account.GetID(), claims.UserID())
		assert.True(t, f.sink.has(sessions.ActivityEventSignInSuccess))
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(false, nil)

		_, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: account.Email,
			Password:   "not-the-password",
		})
		assert.ErrorIs(t, err, sessions.ErrInvalidCredentials)
		assert.True(t, f.sink.has(sessions.ActivityEventSignInFailure))
	})

	t.Run("unknown identifier reads as not found", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.accounts.On("FindByIdentifier", mock.Anything, "ghost@example.com").
			Return(nil, sessions.ErrAccountNotFound)

		_, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: "ghost@example.com",
			Password:   "whatever",
		})
		assert.ErrorIs(t, err, sessions.ErrAccountNotFound)
	})

	t.Run("banned account cannot sign in even with valid credentials", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(true, nil)

		_, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: account.Email,
			Password:   "s3cret-passw0rd",
		})
		assert.ErrorIs(t, err, sessions.ErrEmailBanned)
	})

	t.Run("second sign in supersedes the first session", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		payload := sessions.SignInPayload{Identifier: account.Email, Password: "s3cret-passw0rd"}

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(false, nil)

		first, err := f.svc.SignIn(ctx, payload)
		require.NoError(t, err)
		second, err := f.svc.SignIn(ctx, payload)
		require.NoError(t, err)

		stored, err := f.store.Get(ctx, account.GetID())
		require.NoError(t, err)
		assert.Equal(t, second.RefreshToken, stored)
		assert.NotEqual(t, first.RefreshToken, stored)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	openSession := func(t *testing.T, f *serviceFixture, account *sessions.Account) *sessions.TokenPair {
		t.Helper()
		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(false, nil)
		pair, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: account.Email,
			Password:   "s3cret-passw0rd",
		})
		require.NoError(t, err)
		return pair
	}

	t.Run("issues a fresh access token from the stored credential", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		pair := openSession(t, f, account)

		access, err := f.svc.Refresh(ctx, pair.AccessToken)
		require.NoError(t, err)

		claims, err := f.tokens.VerifyAccess(access)
		require.NoError(t, err)
		assert.Equal(t, account.GetID(), claims.UserID())
		assert.Equal(t, account.GetRole(), claims.Role())
		assert.True(t, f.sink.has(sessions.ActivityEventRefresh))
	})

	t.Run("undecodable token is bad input", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.Refresh(ctx, "not-a-jwt")
		require.Error(t, err)

		var richErr *errors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, errors.CategoryBadInput, richErr.Category)
	})

	t.Run("refresh after sign out reads as not found", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		pair := openSession(t, f, account)

		require.NoError(t, f.svc.SignOut(ctx, pair.AccessToken))

		_, err := f.svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, sessions.ErrRefreshNotStored)
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("signing out twice is not an error", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.bans.On("IsBanned", mock.Anything, account.Email).Return(false, nil)

		pair, err := f.svc.SignIn(ctx, sessions.SignInPayload{
			Identifier: account.Email,
			Password:   "s3cret-passw0rd",
		})
		require.NoError(t, err)

		assert.NoError(t, f.svc.SignOut(ctx, pair.AccessToken))
		assert.NoError(t, f.svc.SignOut(ctx, pair.AccessToken))
	})

	t.Run("undecodable token is rejected", func(t *testing.T) {
		f := newServiceFixture()
		assert.Error(t, f.svc.SignOut(ctx, "garbage"))
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a token and mails the reset link", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.tokens.On("FindByAccount", mock.Anything, account.ID).
			Return(nil, sessions.ErrVerificationTokenNotFound)
		f.repo.tokens.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(r *sessions.VerificationToken) bool {
			return r.AccountID == account.ID && r.Token != ""
		})).Return(&sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "minted-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now()),
		}, nil)
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg sessions.MailMessage) bool {
			return msg.To == account.Email
		})).Return(nil)

		err := f.svc.ForgotPassword(ctx, account.Email)
		require.NoError(t, err)
		assert.True(t, f.sink.has(sessions.ActivityEventResetRequested))
		f.mailer.AssertExpectations(t)
	})

	t.Run("second request while one is outstanding is a conflict", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.tokens.On("FindByAccount", mock.Anything, account.ID).
			Return(&sessions.VerificationToken{ID: uuid.New(), AccountID: account.ID}, nil)

		err := f.svc.ForgotPassword(ctx, account.Email)
		assert.ErrorIs(t, err, sessions.ErrVerificationTokenOutstanding)
		f.repo.tokens.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed delivery rolls the token back", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")
		recordID := uuid.New()

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.tokens.On("FindByAccount", mock.Anything, account.ID).
			Return(nil, sessions.ErrVerificationTokenNotFound)
		f.repo.tokens.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(&sessions.VerificationToken{
				ID:        recordID,
				Token:     "minted-token",
				AccountID: account.ID,
				CreatedAt: timePtr(time.Now()),
			}, nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).
			Return(errors.New("smtp unreachable", errors.CategoryOperation))
		f.repo.tokens.On("DeleteByID", mock.Anything, recordID).Return(nil)

		err := f.svc.ForgotPassword(ctx, account.Email)
		assert.Error(t, err)
		f.repo.tokens.AssertCalled(t, "DeleteByID", mock.Anything, recordID)
	})

	t.Run("unknown email reads as not found", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.accounts.On("FindByIdentifier", mock.Anything, "ghost@example.com").
			Return(nil, sessions.ErrAccountNotFound)

		err := f.svc.ForgotPassword(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, sessions.ErrAccountNotFound)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes the token and installs the new password", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "minted-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now().Add(-time.Hour)),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)
		f.repo.accounts.On("ResetPassword", mock.Anything, account.ID, mock.MatchedBy(func(hash string) bool {
			return sessions.ComparePasswordAndHash("new-passw0rd", hash) == nil
		})).Return(nil)
		f.repo.tokens.On("DeleteByID", mock.Anything, record.ID).Return(nil)

		err := f.svc.ResetPassword(ctx, "new-passw0rd", account.GetID(), record.Token)
		require.NoError(t, err)
		assert.True(t, f.sink.has(sessions.ActivityEventResetCompleted))
	})

	t.Run("revokes any open session", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "minted-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now().Add(-time.Hour)),
		}

		require.NoError(t, f.store.Set(ctx, account.GetID(), "stored-refresh", time.Hour))

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)
		f.repo.accounts.On("ResetPassword", mock.Anything, account.ID, mock.Anything).Return(nil)
		f.repo.tokens.On("DeleteByID", mock.Anything, record.ID).Return(nil)

		require.NoError(t, f.svc.ResetPassword(ctx, "new-passw0rd", account.GetID(), record.Token))

		_, err := f.store.Get(ctx, account.GetID())
		assert.ErrorIs(t, err, sessions.ErrRefreshNotStored)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("old-passw0rd")
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "stale-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now().Add(-time.Hour * 25)),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)

		err := f.svc.ResetPassword(ctx, "new-passw0rd", account.GetID(), record.Token)
		assert.ErrorIs(t, err, sessions.ErrVerificationTokenExpired)
		f.repo.accounts.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("token bound to another account reads as not found", func(t *testing.T) {
		f := newServiceFixture()
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "minted-token",
			AccountID: uuid.New(),
			CreatedAt: timePtr(time.Now()),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)

		err := f.svc.ResetPassword(ctx, "new-passw0rd", uuid.NewString(), record.Token)
		assert.ErrorIs(t, err, sessions.ErrVerificationTokenNotFound)
	})

	t.Run("unknown token reads as not found", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.tokens.On("FindByToken", mock.Anything, "ghost-token").
			Return(nil, sessions.ErrVerificationTokenNotFound)

		err := f.svc.ResetPassword(ctx, "new-passw0rd", uuid.NewString(), "ghost-token")
		assert.ErrorIs(t, err, sessions.ErrVerificationTokenNotFound)
	})
}

func TestSendVerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a token and mails the verification link", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		account.EmailVerified = false

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)
		f.repo.tokens.On("FindByAccount", mock.Anything, account.ID).
			Return(nil, sessions.ErrVerificationTokenNotFound)
		f.repo.tokens.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
			Return(&sessions.VerificationToken{
				ID:        uuid.New(),
				Token:     "minted-token",
				AccountID: account.ID,
				CreatedAt: timePtr(time.Now()),
			}, nil)
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		err := f.svc.SendVerifyEmail(ctx, account.Email)
		require.NoError(t, err)
		assert.True(t, f.sink.has(sessions.ActivityEventVerificationRequest))
	})

	t.Run("already verified email is a conflict before the outstanding check", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")

		f.repo.accounts.On("FindByIdentifier", mock.Anything, account.Email).Return(account, nil)

		err := f.svc.SendVerifyEmail(ctx, account.Email)
		assert.ErrorIs(t, err, sessions.ErrEmailAlreadyVerified)
		f.repo.tokens.AssertNotCalled(t, "FindByAccount", mock.Anything, mock.Anything)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("flips the account to verified standing", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		account.EmailVerified = false
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "minted-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now()),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)
		f.repo.accounts.On("FindByID", mock.Anything, account.GetID()).Return(account, nil)
		f.repo.accounts.On("MarkEmailVerified", mock.Anything, account.ID).Return(nil)
		f.repo.tokens.On("DeleteByID", mock.Anything, record.ID).Return(nil)

		err := f.svc.VerifyEmail(ctx, account.GetID(), record.Token)
		require.NoError(t, err)
		assert.True(t, f.sink.has(sessions.ActivityEventVerificationComplete))
	})

	t.Run("already verified account consumes the stray token", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "stray-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now()),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)
		f.repo.accounts.On("FindByID", mock.Anything, account.GetID()).Return(account, nil)
		f.repo.tokens.On("DeleteByID", mock.Anything, record.ID).Return(nil)

		err := f.svc.VerifyEmail(ctx, account.GetID(), record.Token)
		assert.ErrorIs(t, err, sessions.ErrEmailAlreadyVerified)
		f.repo.tokens.AssertCalled(t, "DeleteByID", mock.Anything, record.ID)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		f := newServiceFixture()
		account := testAccount("s3cret-passw0rd")
		record := &sessions.VerificationToken{
			ID:        uuid.New(),
			Token:     "stale-token",
			AccountID: account.ID,
			CreatedAt: timePtr(time.Now().Add(-time.Hour * 25)),
		}

		f.repo.tokens.On("FindByToken", mock.Anything, record.Token).Return(record, nil)

		err := f.svc.VerifyEmail(ctx, account.GetID(), record.Token)
		assert.ErrorIs(t, err, sessions.ErrVerificationTokenExpired)
	})
}

func TestPurgeStaleAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes unverified accounts past the staleness window", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.accounts.On("DeleteStaleUnverified", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
			expected := time.Now().Add(-testConfig().Sweep.StaleAfter)
			return cutoff.Sub(expected).Abs() < time.Minute
		})).Return(int64(4), nil)

		removed, err := f.svc.PurgeStaleAccounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), removed)
		assert.True(t, f.sink.has(sessions.ActivityEventStaleSweep))
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		f := newServiceFixture()

		f.repo.accounts.On("DeleteStaleUnverified", mock.Anything, mock.Anything).
			Return(int64(0), errors.New("db unavailable", errors.CategoryInternal))

		_, err := f.svc.PurgeStaleAccounts(ctx)
		assert.Error(t, err)
	})
}
