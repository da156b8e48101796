package sessions

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Guard performs the shared entry checks every authenticated surface
// runs, regardless of transport: credential verification, live account
// lookup, verified-email standing, and the ban list. Checks run against
// current state on every call, so revocations take effect on the next
// request even while previously issued tokens are still inside their
// validity window.
type Guard struct {
	tokens   TokenService
	accounts AccountSource
	bans     BanSource
	logger   Logger
}

// NewGuard builds a Guard over the token service and the live account
// and ban sources.
func NewGuard(tokens TokenService, accounts AccountSource, bans BanSource) *Guard {
	return &Guard{
		tokens:   tokens,
		accounts: accounts,
		bans:     bans,
		logger:   defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = logger
	return g
}

// Authenticate runs the full entry check against a raw access token and
// returns the live account record alongside the verified claims. Any
// failure, from a missing credential to a ban, rejects the request.
func (g *Guard) Authenticate(ctx context.Context, rawToken string) (*Account, AuthClaims, error) {
	if rawToken == "" {
		return nil, nil, ErrCredentialMissing
	}

	claims, err := g.tokens.VerifyAccess(rawToken)
	if err != nil {
		return nil, nil, err
	}

	account, err := g.accounts.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil, err
		}
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve account for credential")
	}

	if !account.IsEmailVerified() {
		return nil, nil, ErrEmailNotVerified
	}

	banned, err := g.bans.IsBanned(ctx, account.Email)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CategoryInternal, "failed to check ban list")
	}
	if banned {
		g.logger.Warn("rejected banned account %s", account.GetID())
		return nil, nil, ErrEmailBanned
	}

	return account, claims, nil
}

// Authorize checks the account's role against the required set. An empty
// set means any authenticated account passes.
func (g *Guard) Authorize(account *Account, required ...AccountRole) error {
	return Authorize(account, required...)
}
