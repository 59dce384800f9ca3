package core

import (
	"context"
	"time"
)

// AccountStorage defines account operations available inside a transaction
type AccountStorage interface {
	// Query methods. Both return ErrAccountNotFound on a miss.
	GetAccountByProviderID(ctx context.Context, providerID string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByID(ctx context.Context, id int64) (*Account, error)

	// CreateAccount inserts a and sets a.ID. A unique index violation on
	// provider id or email is reported as ErrAccountExists.
	CreateAccount(ctx context.Context, a *Account) error

	// TouchLogin stamps last_login_at and updated_at, and fills name and
	// avatar_url only where the stored value is empty.
	TouchLogin(ctx context.Context, id int64, name, avatarURL string, at time.Time) error

	// LinkProvider attaches providerID to the account and fills avatar_url
	// only where the stored value is empty.
	LinkProvider(ctx context.Context, id int64, providerID, avatarURL string, at time.Time) error
}

// RefreshStorage defines refresh credential operations available inside a transaction
type RefreshStorage interface {
	CreateRefreshCredential(ctx context.Context, r *RefreshCredential) error

	// GetActiveRefreshCredential returns the credential with tokenHash whose
	// expiry is strictly after now, together with its owning account.
	// Returns ErrRefreshCredentialNotFound otherwise.
	GetActiveRefreshCredential(ctx context.Context, tokenHash string, now time.Time) (*RefreshCredential, *Account, error)

	// Delete methods report the number of rows removed
	DeleteRefreshCredentialByHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteExpiredRefreshCredentials(ctx context.Context, now time.Time) (int64, error)
}

// Tx is one storage transaction. Every request uses its own.
type Tx interface {
	AccountStorage
	RefreshStorage

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens transactions against the durable store
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}
