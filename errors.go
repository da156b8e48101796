package sessions

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced alongside errors so callers can enumerate every
// rejection reason without string matching.
const (
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeAccountExists      = "ACCOUNT_EXISTS"
	TextCodeEmailBanned        = "EMAIL_BANNED"
	TextCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	TextCodeEmailVerified      = "EMAIL_ALREADY_VERIFIED"
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeCredentialMissing  = "CREDENTIAL_MISSING"
	TextCodeCredentialExpired  = "CREDENTIAL_EXPIRED"
	TextCodeCredentialInvalid  = "CREDENTIAL_INVALID"
	TextCodeCredentialDecode   = "CREDENTIAL_UNDECODABLE"
	TextCodeRefreshNotStored   = "REFRESH_NOT_STORED"
	TextCodeTokenNotFound      = "VERIFICATION_TOKEN_NOT_FOUND"
	TextCodeTokenOutstanding   = "VERIFICATION_TOKEN_OUTSTANDING"
	TextCodeTokenExpired       = "VERIFICATION_TOKEN_EXPIRED"
	TextCodeInsufficientRole   = "INSUFFICIENT_ROLE"
	TextCodeMissingSigningKey  = "MISSING_SIGNING_KEY"
	TextCodeNotificationFailed = "NOTIFICATION_FAILED"
)

// ErrAccountNotFound is returned when the referenced account is absent.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrAccountExists is returned when the username or email is already taken.
var ErrAccountExists = errors.New("an account with that username or email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeAccountExists)

// ErrEmailBanned rejects banned emails on sign up and on every
// authenticated entry.
var ErrEmailBanned = errors.New("this email address has been banned", errors.CategoryAuthz).
	WithTextCode(TextCodeEmailBanned)

// ErrEmailNotVerified rejects authenticated calls from accounts that have
// not confirmed their email address.
var ErrEmailNotVerified = errors.New("email address has not been verified", errors.CategoryAuthz).
	WithTextCode(TextCodeEmailNotVerified)

// ErrEmailAlreadyVerified is the conflict raised when a verification flow
// targets an account whose email is already confirmed.
var ErrEmailAlreadyVerified = errors.New("email address is already verified", errors.CategoryConflict).
	WithTextCode(TextCodeEmailVerified)

// ErrInvalidCredentials covers failed password comparison.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuthz).
	WithTextCode(TextCodeInvalidCreds)

// ErrCredentialMissing is raised when a guarded call carries no bearer
// credential at all. Distinct from expired or malformed.
var ErrCredentialMissing = errors.New("no session credential provided", errors.CategoryAuthz).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeCredentialMissing)

// ErrCredentialExpired is the verification failure for tokens past expiry.
var ErrCredentialExpired = errors.New("session credential is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeCredentialExpired)

// ErrCredentialInvalid is the verification failure for bad signatures and
// malformed tokens.
var ErrCredentialInvalid = errors.New("session credential is invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeCredentialInvalid)

// ErrCredentialUndecodable is raised when a presented token cannot even be
// decoded to claims. This is client bad input, not an auth failure.
var ErrCredentialUndecodable = errors.New("presented token cannot be decoded", errors.CategoryBadInput).
	WithTextCode(TextCodeCredentialDecode)

// ErrRefreshNotStored is returned on refresh when no credential is stored
// for the account, including after sign out.
var ErrRefreshNotStored = errors.New("no refresh credential stored for account", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeRefreshNotStored)

// ErrVerificationTokenNotFound is returned for unknown single use tokens.
var ErrVerificationTokenNotFound = errors.New("verification token not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeTokenNotFound)

// ErrVerificationTokenOutstanding is the conflict for a second request
// while a single use token is still outstanding.
var ErrVerificationTokenOutstanding = errors.New("a verification token is already outstanding for this account", errors.CategoryConflict).
	WithTextCode(TextCodeTokenOutstanding)

// ErrVerificationTokenExpired is returned when a single use token is
// presented after its validity window.
var ErrVerificationTokenExpired = errors.New("verification token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrInsufficientRole is the authorization failure from the role guard.
var ErrInsufficientRole = errors.New("account role does not permit this operation", errors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole)

// ErrMissingSigningKey is the only signing failure: misconfiguration.
var ErrMissingSigningKey = errors.New("token signing key is not configured", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeMissingSigningKey)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentialExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentialInvalid) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
