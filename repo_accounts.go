package sessions

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ResetAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"password_hash" = ?
WHERE
	"acc"."id" = ?
RETURNING *;`

// Accounts is the account directory contract. Uniqueness of username and
// email is enforced by the storage layer; the repository maps constraint
// violations to the conflict taxonomy.
type Accounts interface {
	repository.Repository[*Account]

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)

	FindByID(ctx context.Context, id string) (*Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (*Account, error)

	CountAll(ctx context.Context) (int, error)
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
	_ AccountSource                   = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)
	return a.Repository.CreateTx(ctx, tx, account)
}

// FindByID resolves an account by its id, mapping absence to the
// taxonomy so guards can surface it as NotFound.
func (a *accounts) FindByID(ctx context.Context, id string) (*Account, error) {
	record, err := a.Repository.GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return record, nil
}

// FindByIdentifier resolves an account by username or email.
func (a *accounts) FindByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	for _, opt := range resolveAccountIdentifier(identifier) {
		record := &Account{}
		err := a.db.NewSelect().
			Model(record).
			Where("?TableAlias."+opt.column+" = ?", opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, ErrAccountNotFound
}

func (a *accounts) CountAll(ctx context.Context) (int, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Count(ctx)
}

func (a *accounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, a.db, ResetAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (a *accounts) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("is_email_verified = TRUE").
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteStaleUnverified removes accounts that never confirmed their email
// within the staleness window. Expressed as delete-where-matching so
// overlapping sweep runs stay idempotent.
func (a *accounts) DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("is_email_verified = FALSE").
		Where("created_at < ?", olderThan).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveAccountIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
