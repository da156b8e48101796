package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-sessions/middleware/guardware"
)

// RouteGuard wires the session flows and the entry guard into HTTP
// routes. The access token travels in a secure cookie by default; the
// refresh credential never leaves the server side store.
type RouteGuard struct {
	guard            *Guard
	manager          SessionManager
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewRouteGuard(guard *Guard, manager SessionManager, cfg Config) (*RouteGuard, error) {
	cookieDuration := 24 * time.Hour
	if cfg.Auth.AccessTTL > 0 {
		cookieDuration = cfg.Auth.AccessTTL
	}

	g := &RouteGuard{
		guard:          guard,
		manager:        manager,
		cfg:            cfg,
		cookieDuration: cookieDuration,
		Logger:         defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler
	g.AuthErrorHandler = g.defaultAuthErrHandler

	return g, nil
}

func (g RouteGuard) GetCookieDuration() time.Duration {
	return g.cookieDuration
}

// ProtectedRoute returns middleware that runs the full entry check before
// the wrapped handler. The resolved account lands in router locals under
// the configured context key and in the request context.
func (g *RouteGuard) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return g.protected(errorHandler, "")
}

// RequireRole is ProtectedRoute plus a minimum role check.
func (g *RouteGuard) RequireRole(minRole AccountRole, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return g.protected(errorHandler, minRole)
}

func (g *RouteGuard) protected(errorHandler func(router.Context, error) error, minRole AccountRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return guardware.New(guardware.Config{
			ErrorHandler:  errorHandler,
			Authenticator: guardAuthenticator{guard: g.guard},
			AuthScheme:    g.cfg.Auth.AuthScheme,
			ContextKey:    g.cfg.Auth.ContextKey,
			TokenLookup:   g.cfg.Auth.TokenLookup,
			MinimumRole:   minRole,
			ContextEnricher: func(c context.Context, account guardware.Account, claims guardware.AuthClaims) context.Context {
				if acc, ok := account.(*Account); ok {
					c = WithContext(c, acc)
				}
				if ac, ok := claims.(AuthClaims); ok {
					c = WithClaimsContext(c, ac)
				}
				return c
			},
		})(hf)
	}
}

// SignUp registers the account and opens its session, leaving the access
// token in the session cookie.
func (g *RouteGuard) SignUp(ctx router.Context, payload SignUpPayload) error {
	pair, err := g.manager.SignUp(ctx.Context(), payload)
	if err != nil {
		g.Logger.Error("sign up error: %v", err)
		return err
	}

	g.setCookieToken(ctx, pair.AccessToken, g.cookieDuration)
	return nil
}

// SignIn verifies credentials and opens a session, leaving the access
// token in the session cookie.
func (g *RouteGuard) SignIn(ctx router.Context, payload SignInPayload) error {
	pair, err := g.manager.SignIn(ctx.Context(), payload)
	if err != nil {
		g.Logger.Error("sign in error: %v", err)
		return err
	}

	g.setCookieToken(ctx, pair.AccessToken, g.cookieDuration)
	return nil
}

// Refresh exchanges the cookie's access token for a fresh one. The stale
// cookie value is enough; its signature is not trusted, only the stored
// refresh credential is.
func (g *RouteGuard) Refresh(ctx router.Context) error {
	presented := g.cookieValue(ctx)
	if presented == "" {
		return ErrCredentialMissing
	}

	access, err := g.manager.Refresh(ctx.Context(), presented)
	if err != nil {
		return err
	}

	g.setCookieToken(ctx, access, g.cookieDuration)
	return nil
}

// SignOut revokes the stored refresh credential and drops the cookie.
// Calling it without a live session is not an error.
func (g *RouteGuard) SignOut(ctx router.Context) error {
	if presented := g.cookieValue(ctx); presented != "" {
		if err := g.manager.SignOut(ctx.Context(), presented); err != nil {
			g.Logger.Warn("sign out error: %v", err)
		}
	}
	g.cookieDel(ctx, g.cookieName())
	return nil
}

// MakeClientRouteAuthErrorHandler builds the error handler protected
// routes use. With optional set, failures fall through to the handler
// with no identity in context instead of rejecting the request.
func (g *RouteGuard) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrCredentialExpired
		} else if IsMalformedError(err) {
			richErr = ErrCredentialInvalid
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "invalid session credential").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			g.Logger.Info("optional auth failed, proceeding: %s", richErr.Message)
			return ctx.Next()
		}

		return g.ErrorHandler(ctx, richErr)
	}
}

func (g *RouteGuard) cookieName() string {
	// token lookup is "<source>:<name>"; the name doubles as cookie name
	lookup := g.cfg.Auth.TokenLookup
	for i := 0; i < len(lookup); i++ {
		if lookup[i] == ':' {
			return lookup[i+1:]
		}
	}
	return "access_token"
}

func (g *RouteGuard) cookieValue(ctx router.Context) string {
	return ctx.Cookies(g.cookieName())
}

func (g *RouteGuard) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     g.cookieName(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGuard) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "an unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	g.Logger.Info(
		"authentication rejected: %s text_code=%s path=%s",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	return c.Status(StatusForError(richErr)).SendString(richErr.Message)
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.Logger.Info(
		"middleware error handler: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return g.AuthErrorHandler(c, richErr)
	default:
		return c.Status(StatusForError(richErr)).SendString(richErr.Message)
	}
}

// StatusForError maps the error taxonomy to HTTP status codes.
func StatusForError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryBadInput, errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// guardAuthenticator bridges the Guard into the middleware subpackage
// without an import cycle.
type guardAuthenticator struct {
	guard *Guard
}

func (ga guardAuthenticator) Authenticate(ctx context.Context, token string) (guardware.Account, guardware.AuthClaims, error) {
	account, claims, err := ga.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	return account, claims, nil
}
