package sessions

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenPair is the credential pair issued on sign up and sign in. The
// access token travels in the response body, the refresh token is expected
// to travel via secure cookie at the transport boundary.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"-"`
}

// SessionManager holds the session lifecycle operations exposed to
// surrounding controllers and handlers.
type SessionManager interface {
	SignUp(ctx context.Context, payload SignUpPayload) (*TokenPair, error)
	SignIn(ctx context.Context, payload SignInPayload) (*TokenPair, error)
	Refresh(ctx context.Context, presentedToken string) (string, error)
	SignOut(ctx context.Context, presentedToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, newPassword, accountID, token string) error
	SendVerifyEmail(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, accountID, token string) error
}

// AccountSource is the narrow read contract guards use to resolve accounts.
type AccountSource interface {
	FindByID(ctx context.Context, id string) (*Account, error)
}

// BanSource is the narrow contract for the ban list. Presence of an entry
// is authoritative and checked live on every authenticated entry.
type BanSource interface {
	IsBanned(ctx context.Context, email string) (bool, error)
}

// CredentialStore keeps the authoritative refresh credential per account
// in an external key/value cache. Implementations must provide per key
// read/write atomicity; no compare-and-swap is required since overwriting
// an older session is intended behavior.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Mailer sends notification messages. A failure is propagated to the
// calling flow, never swallowed.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailMessage is the outbound message contract.
type MailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSIONS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSIONS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSIONS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSIONS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
