package sessions

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and validates the signed session credentials. Access
// and refresh credentials use different secrets and different TTLs; both
// are compact three part base64url strings.
type TokenService interface {
	IssuePair(account *Account) (*TokenPair, error)
	IssueAccess(accountID string, role AccountRole) (string, error)
	IssueRefresh(accountID string, role AccountRole) (string, error)
	VerifyAccess(tokenString string) (AuthClaims, error)
	VerifyRefresh(tokenString string) (AuthClaims, error)
	Decode(tokenString string) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	audience      jwt.ClaimStrings
	logger        Logger
}

// NewTokenService creates a new TokenService from the auth section of the
// configuration.
func NewTokenService(cfg AuthConfig, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		audience:      jwt.ClaimStrings(cfg.Audience),
		logger:        logger,
	}
}

// AccessTTL exposes the configured access credential lifetime.
func (ts *TokenServiceImpl) AccessTTL() time.Duration { return ts.accessTTL }

// RefreshTTL exposes the configured refresh credential lifetime. The
// credential store uses it as the entry TTL so stored copies never outlive
// the token they mirror.
func (ts *TokenServiceImpl) RefreshTTL() time.Duration { return ts.refreshTTL }

// IssuePair signs a fresh access/refresh credential pair for the account.
func (ts *TokenServiceImpl) IssuePair(account *Account) (*TokenPair, error) {
	access, err := ts.IssueAccess(account.GetID(), account.GetRole())
	if err != nil {
		return nil, err
	}

	refresh, err := ts.IssueRefresh(account.GetID(), account.GetRole())
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs a short lived access credential.
func (ts *TokenServiceImpl) IssueAccess(accountID string, role AccountRole) (string, error) {
	return ts.sign(ts.newClaims(accountID, role, ts.accessTTL), ts.accessSecret)
}

// IssueRefresh signs a long lived refresh credential.
func (ts *TokenServiceImpl) IssueRefresh(accountID string, role AccountRole) (string, error) {
	return ts.sign(ts.newClaims(accountID, role, ts.refreshTTL), ts.refreshSecret)
}

// VerifyAccess parses and validates an access credential.
func (ts *TokenServiceImpl) VerifyAccess(tokenString string) (AuthClaims, error) {
	return ts.verify(tokenString, ts.accessSecret)
}

// VerifyRefresh parses and validates a refresh credential. Signature and
// expiry checks only; the verbatim match against the stored copy belongs
// to the session service.
func (ts *TokenServiceImpl) VerifyRefresh(tokenString string) (AuthClaims, error) {
	return ts.verify(tokenString, ts.refreshSecret)
}

// Decode extracts claims without verification. It exists so callers can
// learn which account's stored credential to look up before real
// validation happens; it must never gate access by itself.
func (ts *TokenServiceImpl) Decode(tokenString string) (AuthClaims, error) {
	claims := &JWTClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, errors.Wrap(err, ErrCredentialUndecodable.Category, ErrCredentialUndecodable.Message).
			WithTextCode(ErrCredentialUndecodable.TextCode)
	}
	return claims, nil
}

func (ts *TokenServiceImpl) newClaims(accountID string, role AccountRole, ttl time.Duration) *JWTClaims {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   accountID,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:      accountID,
		UserRole: role,
	}

	return claims
}

func (ts *TokenServiceImpl) sign(claims *JWTClaims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSigningKey
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session credential")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) verify(tokenString string, secret []byte) (AuthClaims, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSigningKey
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, errors.Wrap(err, ErrCredentialInvalid.Category, ErrCredentialInvalid.Message).
			WithTextCode(ErrCredentialInvalid.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService verify could not decode or validate claims")
	return nil, ErrCredentialInvalid
}
