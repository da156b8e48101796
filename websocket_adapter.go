package sessions

import (
	"context"

	"github.com/goliatone/go-router"
)

// WSGuard implements go-router's WSTokenValidator interface over the
// shared entry Guard. Websocket handshakes run the same live checks as
// HTTP requests: signature, expiry, account lookup, verified standing,
// and the ban list.
type WSGuard struct {
	guard *Guard
}

// NewWSGuard creates a websocket validator using the provided Guard.
func NewWSGuard(guard *Guard) *WSGuard {
	return &WSGuard{guard: guard}
}

// Validate runs the entry check against the handshake token and returns
// websocket-compatible auth claims.
func (w *WSGuard) Validate(tokenString string) (router.WSAuthClaims, error) {
	account, claims, err := w.guard.Authenticate(context.Background(), tokenString)
	if err != nil {
		return nil, err
	}
	return &WSAuthClaimsAdapter{claims: claims, role: account.GetRole()}, nil
}

// WSAuthClaimsAdapter adapts verified claims to go-router's WSAuthClaims
// interface. Resource permissions derive from the role hierarchy: every
// account reads, admins and above write.
type WSAuthClaimsAdapter struct {
	claims AuthClaims
	role   AccountRole
}

// Subject returns the subject claim
func (w *WSAuthClaimsAdapter) Subject() string {
	return w.claims.Subject()
}

// UserID returns the account id
func (w *WSAuthClaimsAdapter) UserID() string {
	return w.claims.UserID()
}

// Role returns the account's role
func (w *WSAuthClaimsAdapter) Role() string {
	return w.role
}

// CanRead checks if the account can read a specific resource
func (w *WSAuthClaimsAdapter) CanRead(resource string) bool {
	return true
}

// CanEdit checks if the account can edit a specific resource
func (w *WSAuthClaimsAdapter) CanEdit(resource string) bool {
	return RoleIsAtLeast(w.role, RoleAdmin)
}

// CanCreate checks if the account can create a specific resource
func (w *WSAuthClaimsAdapter) CanCreate(resource string) bool {
	return RoleIsAtLeast(w.role, RoleAdmin)
}

// CanDelete checks if the account can delete a specific resource
func (w *WSAuthClaimsAdapter) CanDelete(resource string) bool {
	return RoleIsAtLeast(w.role, RoleAdmin)
}

// HasRole checks if the account holds a specific role
func (w *WSAuthClaimsAdapter) HasRole(role string) bool {
	return w.role == role
}

// IsAtLeast checks if the account's role is at least the minimum required role
func (w *WSAuthClaimsAdapter) IsAtLeast(minRole string) bool {
	return RoleIsAtLeast(w.role, minRole)
}
