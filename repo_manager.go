package sessions

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	Bans() Bans
	VerificationTokens() VerificationTokens
}

// Bans is the ban list contract.
type Bans interface {
	repository.Repository[*BanEntry]
	IsBanned(ctx context.Context, email string) (bool, error)
}

// VerificationTokens owns the single use token table. The unique
// constraint on account_id is the authority behind the
// one-outstanding-token-per-account invariant.
type VerificationTokens interface {
	repository.Repository[*VerificationToken]
	FindByToken(ctx context.Context, token string) (*VerificationToken, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID) (*VerificationToken, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type bans struct {
	repository.Repository[*BanEntry]
	db *bun.DB
}

var (
	_ Bans      = (*bans)(nil)
	_ BanSource = (*bans)(nil)
)

func NewBansRepository(db *bun.DB) Bans {
	repo := repository.NewRepository[*BanEntry](db, repository.ModelHandlers[*BanEntry]{
		NewRecord: func() *BanEntry { return &BanEntry{} },
		GetID: func(b *BanEntry) uuid.UUID {
			if b == nil {
				return uuid.Nil
			}
			return b.ID
		},
		SetID: func(b *BanEntry, id uuid.UUID) {
			if b != nil {
				b.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &bans{
		Repository: repo,
		db:         db,
	}
}

func (b *bans) IsBanned(ctx context.Context, email string) (bool, error) {
	return b.db.NewSelect().
		Model((*BanEntry)(nil)).
		Where("email = ?", email).
		Exists(ctx)
}

type verificationTokens struct {
	repository.Repository[*VerificationToken]
	db *bun.DB
}

var _ VerificationTokens = (*verificationTokens)(nil)

func NewVerificationTokensRepository(db *bun.DB) VerificationTokens {
	repo := repository.NewRepository[*VerificationToken](db, repository.ModelHandlers[*VerificationToken]{
		NewRecord: func() *VerificationToken { return &VerificationToken{} },
		GetID: func(t *VerificationToken) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *VerificationToken, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &verificationTokens{
		Repository: repo,
		db:         db,
	}
}

func (v *verificationTokens) FindByToken(ctx context.Context, token string) (*VerificationToken, error) {
	record := &VerificationToken{}
	err := v.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrVerificationTokenNotFound
		}
		return nil, err
	}

	return record, nil
}

func (v *verificationTokens) FindByAccount(ctx context.Context, accountID uuid.UUID) (*VerificationToken, error) {
	record := &VerificationToken{}
	err := v.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrVerificationTokenNotFound
		}
		return nil, err
	}

	return record, nil
}

func (v *verificationTokens) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := v.db.NewDelete().
		Model((*VerificationToken)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	bans     Bans
	tokens   VerificationTokens
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db),
		bans:     NewBansRepository(db),
		tokens:   NewVerificationTokensRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.bans == nil {
		return errors.New("repository bans should be initialized")
	}

	if m.tokens == nil {
		return errors.New("repository verificationTokens should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Bans() Bans {
	return m.bans
}

func (m mngr) VerificationTokens() VerificationTokens {
	return m.tokens
}
