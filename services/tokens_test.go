package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lborres/bantay/core"
)

func newTestTokenManager(now func() time.Time) *TokenManager {
	return NewTokenManager(NewCodec(testSecret, 15*time.Minute, now), 30*24*time.Hour, now)
}

// Requirement: issuing a session persists one credential that stores only the digest.
func TestTokenManager_IssueSessionTokens(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now, _ := fixedClock(testEpoch)
	store := NewFakeStore()
	accountID := store.SeedAccount(core.Account{Email: "a@example.com"})
	manager := newTestTokenManager(now)
	tx, _ := store.Begin(ctx)

	// Act
	tokens, err := manager.IssueSessionTokens(ctx, tx, accountID, "a@example.com")
	if err != nil {
		t.Fatalf("IssueSessionTokens() error = %v", err)
	}
	_ = tx.Commit(ctx)

	// Assert
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("tokens should not be empty")
	}
	if tokens.ExpiresIn != 900 {
		t.Errorf("ExpiresIn = %d, want 900", tokens.ExpiresIn)
	}
	if store.CredentialCount() != 1 {
		t.Fatalf("CredentialCount() = %d, want 1", store.CredentialCount())
	}

	digest := manager.codec.Digest(tokens.RefreshToken)
	stored, ok := store.credentials[digest]
	if !ok {
		t.Fatal("credential should be stored under the digest")
	}
	if _, plain := store.credentials[tokens.RefreshToken]; plain {
		t.Error("plaintext secret must not be stored")
	}
	if stored.AccountID != accountID {
		t.Errorf("AccountID = %d, want %d", stored.AccountID, accountID)
	}
	if !stored.ExpiresAt.Equal(testEpoch.Add(30 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now + 30d", stored.ExpiresAt)
	}
	if len(stored.ID) != 22 {
		t.Errorf("ID = %q, want 22 characters", stored.ID)
	}
}

// Requirement: the stored expiry is rounded down to the millisecond, so a
// store keeping milliseconds never expires a credential early.
func TestTokenManager_IssueSessionTokens_ExpiryPrecision(t *testing.T) {
	// Arrange
	ctx := context.Background()
	issuedAt := testEpoch.Add(1500 * time.Microsecond)
	now, advance := fixedClock(issuedAt)
	store := NewFakeStore()
	accountID := store.SeedAccount(core.Account{Email: "a@example.com"})
	manager := newTestTokenManager(now)
	tx, _ := store.Begin(ctx)

	// Act
	tokens, err := manager.IssueSessionTokens(ctx, tx, accountID, "a@example.com")
	if err != nil {
		t.Fatalf("IssueSessionTokens() error = %v", err)
	}
	_ = tx.Commit(ctx)

	// Assert
	stored := store.credentials[manager.codec.Digest(tokens.RefreshToken)]
	want := testEpoch.Add(time.Millisecond + 30*24*time.Hour)
	if !stored.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", stored.ExpiresAt, want)
	}

	advance(30*24*time.Hour - 600*time.Microsecond)
	tx, _ = store.Begin(ctx)
	if _, err := manager.Refresh(ctx, tx, tokens.RefreshToken); err != nil {
		t.Errorf("Refresh() just before expiry error = %v", err)
	}
	_ = tx.Rollback(ctx)
}

// Requirement: a refresh secret is valid while expires_at > now, and not at expires_at == now.
func TestTokenManager_Refresh_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Duration // relative to now
		wantErr error
	}{
		{name: "one second left", expires: time.Second},
		{name: "expires exactly now", expires: 0, wantErr: core.ErrInvalidRefreshToken},
		{name: "expired", expires: -time.Second, wantErr: core.ErrInvalidRefreshToken},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			now, _ := fixedClock(testEpoch)
			store := NewFakeStore()
			accountID := store.SeedAccount(core.Account{ProviderID: "g-1", Email: "a@example.com", Name: "Alice"})
			manager := newTestTokenManager(now)
			store.SeedCredential(core.RefreshCredential{
				ID:        "cred",
				AccountID: accountID,
				TokenHash: manager.codec.Digest("secret"),
				ExpiresAt: testEpoch.Add(test.expires),
			})
			tx, _ := store.Begin(ctx)

			// Act
			res, err := manager.Refresh(ctx, tx, "secret")

			// Assert
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Refresh() error = %v, want %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if res.User.ID != accountID || res.User.Email != "a@example.com" || res.User.ProviderID != "g-1" {
				t.Errorf("User = %+v, want stored account", res.User)
			}
			if res.AccessToken == "" || res.ExpiresIn != 900 {
				t.Errorf("result = %+v, want access token with 900s", res)
			}
		})
	}
}

// Requirement: refresh may be repeated within the window; the secret is not rotated.
func TestTokenManager_Refresh_Repeatable(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now, advance := fixedClock(testEpoch)
	store := NewFakeStore()
	accountID := store.SeedAccount(core.Account{Email: "a@example.com"})
	manager := newTestTokenManager(now)
	tx, _ := store.Begin(ctx)
	tokens, err := manager.IssueSessionTokens(ctx, tx, accountID, "a@example.com")
	if err != nil {
		t.Fatalf("IssueSessionTokens() error = %v", err)
	}

	// Act & Assert
	for i := 0; i < 3; i++ {
		advance(time.Hour)
		if _, err := manager.Refresh(ctx, tx, tokens.RefreshToken); err != nil {
			t.Fatalf("refresh %d: error = %v", i, err)
		}
	}
}

func TestTokenManager_Refresh_StorageFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeStore()
	store.getRefreshErr = errors.New("connection reset")
	manager := newTestTokenManager(time.Now)
	tx, _ := store.Begin(ctx)

	// Act
	_, err := manager.Refresh(ctx, tx, "secret")

	// Assert
	if !errors.Is(err, core.ErrStorage) {
		t.Errorf("Refresh() error = %v, want storage error", err)
	}
}

// Requirement: revoking is idempotent; an unknown secret is not an error.
func TestTokenManager_Revoke(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeStore()
	accountID := store.SeedAccount(core.Account{})
	manager := newTestTokenManager(time.Now)
	tx, _ := store.Begin(ctx)
	tokens, _ := manager.IssueSessionTokens(ctx, tx, accountID, "")

	// Act & Assert
	for i := 0; i < 2; i++ {
		if err := manager.Revoke(ctx, tx, tokens.RefreshToken); err != nil {
			t.Fatalf("revoke %d: error = %v", i, err)
		}
	}
	if err := manager.Revoke(ctx, tx, "never-issued"); err != nil {
		t.Errorf("Revoke(unknown) error = %v", err)
	}
	if _, err := manager.Refresh(ctx, tx, tokens.RefreshToken); !errors.Is(err, core.ErrInvalidRefreshToken) {
		t.Errorf("Refresh() after revoke error = %v, want ErrInvalidRefreshToken", err)
	}
}

// Requirement: purge removes only credentials with expires_at < now.
func TestTokenManager_PurgeExpired(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now, _ := fixedClock(testEpoch)
	store := NewFakeStore()
	accountID := store.SeedAccount(core.Account{})
	for i, offset := range []time.Duration{-time.Hour, -time.Second, 0, time.Hour} {
		store.SeedCredential(core.RefreshCredential{
			ID:        string(rune('a' + i)),
			AccountID: accountID,
			TokenHash: string(rune('a' + i)),
			ExpiresAt: testEpoch.Add(offset),
		})
	}
	manager := newTestTokenManager(now)
	tx, _ := store.Begin(ctx)

	// Act
	n, err := manager.PurgeExpired(ctx, tx)
	_ = tx.Commit(ctx)

	// Assert
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 2 {
		t.Errorf("purged = %d, want 2", n)
	}
	if store.CredentialCount() != 2 {
		t.Errorf("CredentialCount() = %d, want 2", store.CredentialCount())
	}
}
