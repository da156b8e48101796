package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	IsAdmin       bool       `bun:"is_admin" json:"is_admin,omitempty"`
	IsSuperAdmin  bool       `bun:"is_super_admin" json:"is_super_admin,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GetID returns the account id as string, the shape it travels in claims.
func (a *Account) GetID() string {
	return a.ID.String()
}

// GetEmail returns the account email
func (a *Account) GetEmail() string {
	return a.Email
}

// GetRole derives the account role from its standing flags.
func (a *Account) GetRole() AccountRole {
	switch {
	case a.IsSuperAdmin:
		return RoleSuperAdmin
	case a.IsAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// IsEmailVerified reports whether the account confirmed its email.
func (a *Account) IsEmailVerified() bool {
	return a.EmailVerified
}

// BanEntry denies an email address access regardless of credential
// validity. Presence of an entry is authoritative.
type BanEntry struct {
	bun.BaseModel `bun:"table:ban_entries,alias:ban"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	BannedByID    *uuid.UUID `bun:"banned_by_id" json:"banned_by_id,omitempty"`
	BannedBy      *Account   `bun:"rel:has-one,join:banned_by_id=id" json:"banned_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// VerificationToken is a single use, time boxed token used for password
// reset and email verification. It is consumed by deletion, never updated
// in place, and at most one unconsumed token exists per account.
type VerificationToken struct {
	bun.BaseModel `bun:"table:verification_tokens,alias:vtk"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,unique,type:uuid" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
