package sessions

import (
	"context"

	"github.com/goliatone/go-router"
)

var accountCtxKey = &contextKey{"account"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the resolved Account in the given context so
// downstream logic can read it without a second lookup.
func WithContext(r context.Context, account *Account) context.Context {
	return context.WithValue(r, accountCtxKey, account)
}

// FromContext finds the account from the context.
func FromContext(ctx context.Context) (*Account, bool) {
	raw, ok := ctx.Value(accountCtxKey).(*Account)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// AccountFromRouterContext extracts the resolved account the guard
// middleware attached under the configured context key.
func AccountFromRouterContext(ctx router.Context, key string) (*Account, bool) {
	if key == "" {
		key = "account"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	account, ok := raw.(*Account)
	return account, ok
}
