// Package storetest holds the behavior every bantay.Store must share. Store
// adapters run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lborres/bantay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Epoch is the fixed clock the suite writes with. Millisecond precision
// survives every backend.
var Epoch = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

// Run exercises store. open must return an empty store for each call.
func Run(t *testing.T, open func(t *testing.T) bantay.Store) {
	t.Helper()

	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, open(t)) })
	t.Run("EmptyValuesAreNotUnique", func(t *testing.T) { testEmptyValuesAreNotUnique(t, open(t)) })
	t.Run("UniqueProviderID", func(t *testing.T) { testUniqueProviderID(t, open(t)) })
	t.Run("UniqueEmail", func(t *testing.T) { testUniqueEmail(t, open(t)) })
	t.Run("TouchLoginBackfillsOnly", func(t *testing.T) { testTouchLogin(t, open(t)) })
	t.Run("LinkProvider", func(t *testing.T) { testLinkProvider(t, open(t)) })
	t.Run("RefreshExpiryBoundary", func(t *testing.T) { testRefreshExpiryBoundary(t, open(t)) })
	t.Run("RefreshExpirySubMillisecond", func(t *testing.T) { testRefreshExpirySubMillisecond(t, open(t)) })
	t.Run("DeleteByHash", func(t *testing.T) { testDeleteByHash(t, open(t)) })
	t.Run("PurgeExpired", func(t *testing.T) { testPurgeExpired(t, open(t)) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, open(t)) })
}

func inTx(t *testing.T, store bantay.Store, fn func(tx bantay.Tx)) {
	t.Helper()
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit(ctx))
}

func createAccount(t *testing.T, tx bantay.Tx, acc bantay.Account) int64 {
	t.Helper()
	acc.CreatedAt, acc.UpdatedAt, acc.LastLoginAt = Epoch, Epoch, Epoch
	require.NoError(t, tx.CreateAccount(context.Background(), &acc))
	require.NotZero(t, acc.ID)
	return acc.ID
}

func testCreateAndFind(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	var id int64
	inTx(t, store, func(tx bantay.Tx) {
		id = createAccount(t, tx, bantay.Account{
			ProviderID: "g-1", Email: "a@example.com", Name: "Alice", AvatarURL: "pic", EmailVerified: true,
		})
	})

	inTx(t, store, func(tx bantay.Tx) {
		byProvider, err := tx.GetAccountByProviderID(ctx, "g-1")
		require.NoError(t, err)
		byEmail, err := tx.GetAccountByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		byID, err := tx.GetAccountByID(ctx, id)
		require.NoError(t, err)

		for _, acc := range []*bantay.Account{byProvider, byEmail, byID} {
			assert.Equal(t, id, acc.ID)
			assert.Equal(t, "Alice", acc.Name)
			assert.Equal(t, "pic", acc.AvatarURL)
			assert.True(t, acc.EmailVerified)
			assert.True(t, acc.CreatedAt.Equal(Epoch), "created_at = %v", acc.CreatedAt)
		}

		_, err = tx.GetAccountByProviderID(ctx, "missing")
		assert.ErrorIs(t, err, bantay.ErrAccountNotFound)
		_, err = tx.GetAccountByEmail(ctx, "")
		assert.ErrorIs(t, err, bantay.ErrAccountNotFound)
	})
}

func testEmptyValuesAreNotUnique(t *testing.T, store bantay.Store) {
	inTx(t, store, func(tx bantay.Tx) {
		createAccount(t, tx, bantay.Account{ProviderID: "g-1"})
		createAccount(t, tx, bantay.Account{ProviderID: "g-2"})
		createAccount(t, tx, bantay.Account{Email: "only-email@example.com"})
	})
}

func testUniqueProviderID(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	inTx(t, store, func(tx bantay.Tx) {
		createAccount(t, tx, bantay.Account{ProviderID: "g-1", Email: "a@example.com"})
	})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	acc := bantay.Account{ProviderID: "g-1", Email: "b@example.com", CreatedAt: Epoch, UpdatedAt: Epoch, LastLoginAt: Epoch}
	err = tx.CreateAccount(ctx, &acc)
	assert.ErrorIs(t, err, bantay.ErrAccountExists)
	require.NoError(t, tx.Rollback(ctx))
}

func testUniqueEmail(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	inTx(t, store, func(tx bantay.Tx) {
		createAccount(t, tx, bantay.Account{ProviderID: "g-1", Email: "a@example.com"})
	})

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	acc := bantay.Account{ProviderID: "g-2", Email: "a@example.com", CreatedAt: Epoch, UpdatedAt: Epoch, LastLoginAt: Epoch}
	err = tx.CreateAccount(ctx, &acc)
	assert.ErrorIs(t, err, bantay.ErrAccountExists)
	require.NoError(t, tx.Rollback(ctx))
}

func testTouchLogin(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	later := Epoch.Add(time.Hour)

	var kept, filled int64
	inTx(t, store, func(tx bantay.Tx) {
		kept = createAccount(t, tx, bantay.Account{ProviderID: "g-1", Name: "Stored", AvatarURL: "stored.png"})
		filled = createAccount(t, tx, bantay.Account{ProviderID: "g-2"})
	})

	inTx(t, store, func(tx bantay.Tx) {
		require.NoError(t, tx.TouchLogin(ctx, kept, "Claim", "claim.png", later))
		require.NoError(t, tx.TouchLogin(ctx, filled, "Claim", "claim.png", later))
		assert.ErrorIs(t, tx.TouchLogin(ctx, 999999, "x", "y", later), bantay.ErrAccountNotFound)
	})

	inTx(t, store, func(tx bantay.Tx) {
		acc, err := tx.GetAccountByID(ctx, kept)
		require.NoError(t, err)
		assert.Equal(t, "Stored", acc.Name)
		assert.Equal(t, "stored.png", acc.AvatarURL)
		assert.True(t, acc.LastLoginAt.Equal(later))
		assert.True(t, acc.UpdatedAt.Equal(later))

		acc, err = tx.GetAccountByID(ctx, filled)
		require.NoError(t, err)
		assert.Equal(t, "Claim", acc.Name)
		assert.Equal(t, "claim.png", acc.AvatarURL)
	})
}

func testLinkProvider(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	later := Epoch.Add(time.Minute)

	var withAvatar, withoutAvatar int64
	inTx(t, store, func(tx bantay.Tx) {
		withAvatar = createAccount(t, tx, bantay.Account{Email: "a@example.com", AvatarURL: "stored.png"})
		withoutAvatar = createAccount(t, tx, bantay.Account{Email: "b@example.com"})
	})

	inTx(t, store, func(tx bantay.Tx) {
		require.NoError(t, tx.LinkProvider(ctx, withAvatar, "g-a", "claim.png", later))
		require.NoError(t, tx.LinkProvider(ctx, withoutAvatar, "g-b", "claim.png", later))
	})

	inTx(t, store, func(tx bantay.Tx) {
		acc, err := tx.GetAccountByProviderID(ctx, "g-a")
		require.NoError(t, err)
		assert.Equal(t, withAvatar, acc.ID)
		assert.Equal(t, "stored.png", acc.AvatarURL)

		acc, err = tx.GetAccountByProviderID(ctx, "g-b")
		require.NoError(t, err)
		assert.Equal(t, withoutAvatar, acc.ID)
		assert.Equal(t, "claim.png", acc.AvatarURL)
		assert.True(t, acc.LastLoginAt.Equal(later))
	})
}

func seedCredential(t *testing.T, tx bantay.Tx, id string, accountID int64, hash string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, tx.CreateRefreshCredential(context.Background(), &bantay.RefreshCredential{
		ID: id, AccountID: accountID, TokenHash: hash, ExpiresAt: expiresAt, CreatedAt: Epoch,
	}))
}

func testRefreshExpiryBoundary(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	var accountID int64
	inTx(t, store, func(tx bantay.Tx) {
		accountID = createAccount(t, tx, bantay.Account{ProviderID: "g-1", Email: "a@example.com", Name: "Alice"})
		seedCredential(t, tx, "c1", accountID, "hash-1", Epoch.Add(time.Hour))
	})

	inTx(t, store, func(tx bantay.Tx) {
		cred, acc, err := tx.GetActiveRefreshCredential(ctx, "hash-1", Epoch.Add(time.Hour-time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, "c1", cred.ID)
		assert.Equal(t, accountID, cred.AccountID)
		assert.Equal(t, "a@example.com", acc.Email)
		assert.Equal(t, "g-1", acc.ProviderID)

		_, _, err = tx.GetActiveRefreshCredential(ctx, "hash-1", Epoch.Add(time.Hour))
		assert.ErrorIs(t, err, bantay.ErrRefreshCredentialNotFound)

		_, _, err = tx.GetActiveRefreshCredential(ctx, "unknown", Epoch)
		assert.ErrorIs(t, err, bantay.ErrRefreshCredentialNotFound)
	})
}

func testDeleteByHash(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	inTx(t, store, func(tx bantay.Tx) {
		id := createAccount(t, tx, bantay.Account{ProviderID: "g-1"})
		seedCredential(t, tx, "c1", id, "hash-1", Epoch.Add(time.Hour))
	})

	inTx(t, store, func(tx bantay.Tx) {
		n, err := tx.DeleteRefreshCredentialByHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = tx.DeleteRefreshCredentialByHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})
}

func testPurgeExpired(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	inTx(t, store, func(tx bantay.Tx) {
		id := createAccount(t, tx, bantay.Account{ProviderID: "g-1"})
		seedCredential(t, tx, "old", id, "hash-old", Epoch.Add(-time.Hour))
		seedCredential(t, tx, "now", id, "hash-now", Epoch)
		seedCredential(t, tx, "new", id, "hash-new", Epoch.Add(time.Hour))
	})

	inTx(t, store, func(tx bantay.Tx) {
		n, err := tx.DeleteExpiredRefreshCredentials(ctx, Epoch)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	inTx(t, store, func(tx bantay.Tx) {
		n, err := tx.DeleteRefreshCredentialByHash(ctx, "hash-now")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n, "credential expiring exactly now is not purged")
	})
}

func testRollback(t *testing.T, store bantay.Store) {
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	createAccount(t, tx, bantay.Account{ProviderID: "g-rollback", Email: "r@example.com"})
	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx), "second rollback is a no-op")

	inTx(t, store, func(tx bantay.Tx) {
		_, err := tx.GetAccountByProviderID(ctx, "g-rollback")
		if !errors.Is(err, bantay.ErrAccountNotFound) {
			t.Fatalf("rolled back account is visible: %v", err)
		}
	})
}

// Expiries are issued on millisecond boundaries; lookups carry full clock
// precision and must still compare exactly around the boundary.
func testRefreshExpirySubMillisecond(t *testing.T, store bantay.Store) {
	ctx := context.Background()
	expiresAt := Epoch.Add(time.Hour)
	inTx(t, store, func(tx bantay.Tx) {
		accountID := createAccount(t, tx, bantay.Account{ProviderID: "g-1", Email: "a@example.com"})
		seedCredential(t, tx, "c1", accountID, "hash-1", expiresAt)
	})

	inTx(t, store, func(tx bantay.Tx) {
		_, _, err := tx.GetActiveRefreshCredential(ctx, "hash-1", expiresAt.Add(-100*time.Microsecond))
		assert.NoError(t, err)

		_, _, err = tx.GetActiveRefreshCredential(ctx, "hash-1", expiresAt.Add(100*time.Microsecond))
		assert.ErrorIs(t, err, bantay.ErrRefreshCredentialNotFound)
	})
}
