package sessions

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service orchestrates the session lifecycle: sign up, sign in, refresh,
// sign out, password reset, and email verification. It owns the single
// use verification tokens and the refresh credential kept in the store.
//
// One refresh credential exists per account at any time. Signing in again
// overwrites it, which ends the previous session the next time it tries
// to refresh.
type Service struct {
	repo         RepositoryManager
	tokens       TokenService
	store        CredentialStore
	mailer       Mailer
	config       Config
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time
}

var _ SessionManager = (*Service)(nil)

// NewSessionService wires the session flows over the given repositories,
// token service, and credential store.
func NewSessionService(repo RepositoryManager, tokens TokenService, store CredentialStore, config Config) *Service {
	return &Service{
		repo:         repo,
		tokens:       tokens,
		store:        store,
		config:       config,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	s.logger = logger
	return s
}

// WithMailer configures outbound notifications. Without a mailer the
// forgot-password and send-verify-email flows fail with a notification
// error rather than silently minting unreachable tokens.
func (s *Service) WithMailer(mailer Mailer) *Service {
	s.mailer = mailer
	return s
}

// WithActivitySink configures an ActivitySink for emitting session events.
func (s *Service) WithActivitySink(sink ActivitySink) *Service {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock overrides the time source, mostly useful in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// SignUp registers a new account and opens its first session. The very
// first account in an empty directory is promoted to super admin.
func (s *Service) SignUp(ctx context.Context, payload SignUpPayload) (*TokenPair, error) {
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid sign up payload")
	}

	if err := s.ensureNotBanned(ctx, payload.Email); err != nil {
		s.emitEvent(ctx, ActivityEventSignUpFailure, "", map[string]any{
			"email": payload.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	// Fast path; the unique constraints on username and email remain the
	// authority under concurrent sign ups.
	if _, err := s.repo.Accounts().FindByIdentifier(ctx, payload.Email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for existing account")
	}

	account := &Account{
		Name:     payload.Name,
		Username: payload.Username,
		Email:    payload.Email,
		Avatar:   payload.Avatar,
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(payload.Password)
		if err != nil {
			return err
		}
		account.PasswordHash = hash

		total, err := s.repo.Accounts().CountAll(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to count accounts")
		}

		if total == 0 {
			account.IsAdmin = true
			account.IsSuperAdmin = true
		}

		if account, err = s.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create account").
				WithTextCode(TextCodeAccountExists)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("sign up failed: %v", err)
		s.emitEvent(ctx, ActivityEventSignUpFailure, "", map[string]any{
			"email": payload.Email,
			"error": err.Error(),
		})
		return nil, richError(err, "sign up failed")
	}

	pair, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventSignUpSuccess, account.GetID(), map[string]any{
		"email": account.Email,
	})
	return pair, nil
}

// SignIn verifies the identifier/password pair and opens a session,
// superseding any session the account already had.
func (s *Service) SignIn(ctx context.Context, payload SignInPayload) (*TokenPair, error) {
	if err := payload.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid sign in payload")
	}

	account, err := s.repo.Accounts().FindByIdentifier(ctx, payload.Identifier)
	if err != nil {
		s.emitEvent(ctx, ActivityEventSignInFailure, "", map[string]any{
			"identifier": payload.Identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := s.ensureNotBanned(ctx, account.Email); err != nil {
		s.emitEvent(ctx, ActivityEventSignInFailure, account.GetID(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	if err := ComparePasswordAndHash(payload.Password, account.PasswordHash); err != nil {
		s.logger.Warn("sign in rejected for %s: bad credentials", payload.Identifier)
		s.emitEvent(ctx, ActivityEventSignInFailure, account.GetID(), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	pair, err := s.openSession(ctx, account)
	if err != nil {
		return nil, err
	}

	s.emitEvent(ctx, ActivityEventSignInSuccess, account.GetID(), nil)
	return pair, nil
}

// Refresh exchanges an expired access token for a fresh one. The
// presented token is decoded without signature verification only to
// recover the account id; the stored refresh credential is what gets
// verified, and its claims are what the new access token is minted from.
func (s *Service) Refresh(ctx context.Context, presentedToken string) (string, error) {
	claims, err := s.tokens.Decode(presentedToken)
	if err != nil {
		return "", err
	}

	stored, err := s.store.Get(ctx, claims.UserID())
	if err != nil {
		s.logger.Info("refresh rejected for %s: no stored credential", claims.UserID())
		return "", err
	}

	refreshClaims, err := s.tokens.VerifyRefresh(stored)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.IssueAccess(refreshClaims.UserID(), AccountRole(refreshClaims.Role()))
	if err != nil {
		return "", err
	}

	s.emitEvent(ctx, ActivityEventRefresh, refreshClaims.UserID(), nil)
	return access, nil
}

// SignOut removes the refresh credential for the account behind the
// presented token. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, presentedToken string) error {
	claims, err := s.tokens.Decode(presentedToken)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, claims.UserID()); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove refresh credential")
	}

	s.emitEvent(ctx, ActivityEventSignOut, claims.UserID(), nil)
	return nil
}

// ForgotPassword mints a single use reset token for the account behind
// the email and mails out the reset link. At most one token may be
// outstanding per account; a second request before the first is consumed
// or expired is a conflict.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.repo.Accounts().FindByIdentifier(ctx, email)
	if err != nil {
		return err
	}

	record, err := s.issueVerificationToken(ctx, account)
	if err != nil {
		return err
	}

	msg := resetPasswordMessage(s.config.Mail, account, record.Token)
	if err := s.deliverOrRollback(ctx, record, msg); err != nil {
		return err
	}

	s.emitEvent(ctx, ActivityEventResetRequested, account.GetID(), nil)
	return nil
}

// ResetPassword consumes a reset token and installs the new password.
// A successful reset also marks the email verified, since the token
// traveled through the mailbox, and revokes any open session.
func (s *Service) ResetPassword(ctx context.Context, newPassword, accountID, token string) error {
	record, err := s.consumableToken(ctx, accountID, token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.Accounts().ResetPassword(ctx, record.AccountID, hash); err != nil {
		return err
	}

	if err := s.repo.VerificationTokens().DeleteByID(ctx, record.ID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to consume reset token")
	}

	// A password change ends whatever session was open.
	if err := s.store.Delete(ctx, accountID); err != nil {
		s.logger.Warn("failed to revoke session after password reset for %s: %v", accountID, err)
	}

	s.emitEvent(ctx, ActivityEventResetCompleted, accountID, nil)
	return nil
}

// SendVerifyEmail mints a single use verification token for an account
// that has not confirmed its email yet, and mails out the link.
func (s *Service) SendVerifyEmail(ctx context.Context, email string) error {
	account, err := s.repo.Accounts().FindByIdentifier(ctx, email)
	if err != nil {
		return err
	}

	if account.IsEmailVerified() {
		return ErrEmailAlreadyVerified
	}

	record, err := s.issueVerificationToken(ctx, account)
	if err != nil {
		return err
	}

	msg := verifyEmailMessage(s.config.Mail, account, record.Token)
	if err := s.deliverOrRollback(ctx, record, msg); err != nil {
		return err
	}

	s.emitEvent(ctx, ActivityEventVerificationRequest, account.GetID(), nil)
	return nil
}

// VerifyEmail consumes a verification token and flips the account to
// verified standing.
func (s *Service) VerifyEmail(ctx context.Context, accountID, token string) error {
	record, err := s.consumableToken(ctx, accountID, token)
	if err != nil {
		return err
	}

	account, err := s.repo.Accounts().FindByID(ctx, accountID)
	if err != nil {
		return err
	}

	if account.IsEmailVerified() {
		// Consume the stray token so it cannot linger.
		if derr := s.repo.VerificationTokens().DeleteByID(ctx, record.ID); derr != nil {
			s.logger.Warn("failed to drop stray verification token: %v", derr)
		}
		return ErrEmailAlreadyVerified
	}

	if err := s.repo.Accounts().MarkEmailVerified(ctx, account.ID); err != nil {
		return err
	}

	if err := s.repo.VerificationTokens().DeleteByID(ctx, record.ID); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to consume verification token")
	}

	s.emitEvent(ctx, ActivityEventVerificationComplete, accountID, nil)
	return nil
}

// PurgeStaleAccounts deletes unverified accounts older than the
// configured staleness window and reports how many were removed.
func (s *Service) PurgeStaleAccounts(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.Sweep.StaleAfter)

	removed, err := s.repo.Accounts().DeleteStaleUnverified(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("stale account sweep removed %d accounts", removed)
	}
	s.emitEvent(ctx, ActivityEventStaleSweep, "", map[string]any{
		"removed": removed,
		"cutoff":  cutoff,
	})
	return removed, nil
}

// openSession issues a fresh token pair and installs the refresh
// credential, overwriting whatever was stored before.
func (s *Service) openSession(ctx context.Context, account *Account) (*TokenPair, error) {
	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, account.GetID(), pair.RefreshToken, s.config.Auth.RefreshTTL); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to store refresh credential")
	}

	return pair, nil
}

func (s *Service) ensureNotBanned(ctx context.Context, email string) error {
	banned, err := s.repo.Bans().IsBanned(ctx, email)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to check ban list")
	}
	if banned {
		return ErrEmailBanned
	}
	return nil
}

// issueVerificationToken mints and persists a single use token for the
// account. The unique constraint on account_id is the authority behind
// the one-outstanding-token invariant; the lookup before create only
// produces a friendlier error on the common path.
func (s *Service) issueVerificationToken(ctx context.Context, account *Account) (*VerificationToken, error) {
	if _, err := s.repo.VerificationTokens().FindByAccount(ctx, account.ID); err == nil {
		return nil, ErrVerificationTokenOutstanding
	} else if !errors.Is(err, ErrVerificationTokenNotFound) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check for outstanding token")
	}

	record := &VerificationToken{
		Token:     uuid.NewString(),
		AccountID: account.ID,
	}

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.VerificationTokens().CreateTx(ctx, tx, record)
		if err != nil {
			return errors.Wrap(err, errors.CategoryConflict, "could not create verification token").
				WithTextCode(TextCodeTokenOutstanding)
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, richError(err, "failed to issue verification token")
	}

	return record, nil
}

// deliverOrRollback sends the notification and, when delivery fails,
// removes the freshly minted token so the account is not locked out of
// retrying.
func (s *Service) deliverOrRollback(ctx context.Context, record *VerificationToken, msg MailMessage) error {
	if s.mailer == nil {
		s.rollbackToken(ctx, record)
		return errors.New("no mailer configured for outbound notifications", errors.CategoryOperation).
			WithTextCode(TextCodeNotificationFailed)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("notification delivery failed: %v", err)
		s.rollbackToken(ctx, record)
		return err
	}
	return nil
}

func (s *Service) rollbackToken(ctx context.Context, record *VerificationToken) {
	if err := s.repo.VerificationTokens().DeleteByID(ctx, record.ID); err != nil {
		s.logger.Error("failed to roll back verification token %s: %v", record.ID, err)
	}
}

// consumableToken resolves a presented token and checks it belongs to the
// account and is still inside its validity window. A token attached to a
// different account reads as not found so the response does not reveal
// whether the token exists.
func (s *Service) consumableToken(ctx context.Context, accountID, token string) (*VerificationToken, error) {
	record, err := s.repo.VerificationTokens().FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if record.AccountID.String() != accountID {
		return nil, ErrVerificationTokenNotFound
	}

	if record.CreatedAt == nil {
		return nil, ErrVerificationTokenExpired
	}

	expired, err := IsOutsideThresholdPeriod(*record.CreatedAt, s.config.Auth.VerificationTTL.String())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to evaluate token validity window")
	}
	if expired {
		return nil, ErrVerificationTokenExpired
	}

	return record, nil
}

func (s *Service) emitEvent(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  accountID,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}
	if err := s.activitySink.Record(ctx, event); err != nil {
		s.logger.Error("failed to record activity event %s: %v", eventType, err)
	}
}

// richError surfaces an already categorized error as-is and wraps
// anything else as internal.
func richError(err error, msg string) error {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}
