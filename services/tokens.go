package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
)

// TokenManager owns the refresh credential lifecycle.
// Every method works inside the caller's transaction.
type TokenManager struct {
	codec      *Codec
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(codec *Codec, refreshTTL time.Duration, now func() time.Time) *TokenManager {
	if refreshTTL <= 0 {
		refreshTTL = core.DefaultRefreshTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{codec: codec, refreshTTL: refreshTTL, now: now}
}

// IssueSessionTokens mints an access credential and persists a new refresh
// credential for accountID.
func (m *TokenManager) IssueSessionTokens(ctx context.Context, tx core.RefreshStorage, accountID int64, email string) (*core.SessionTokens, error) {
	accessToken, expiresIn, err := m.codec.IssueAccessCredential(accountID, email)
	if err != nil {
		return nil, err
	}

	secret, digest, err := m.codec.IssueRefreshSecret()
	if err != nil {
		return nil, err
	}

	id, err := crypto.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential id: %w", err)
	}

	// Expiry sits on a millisecond boundary, the coarsest precision any
	// store keeps, so every store compares it against now exactly.
	now := m.now()
	credential := &core.RefreshCredential{
		ID:        id,
		AccountID: accountID,
		TokenHash: digest,
		ExpiresAt: now.Add(m.refreshTTL).Truncate(time.Millisecond),
		CreatedAt: now,
	}
	if err := tx.CreateRefreshCredential(ctx, credential); err != nil {
		return nil, core.StorageFailure("create refresh credential", err)
	}

	return &core.SessionTokens{
		AccessToken:  accessToken,
		RefreshToken: secret,
		ExpiresIn:    expiresIn,
	}, nil
}

// Refresh mints a new access credential for the account owning secret.
// The refresh secret itself stays valid until it expires or is revoked.
func (m *TokenManager) Refresh(ctx context.Context, tx core.RefreshStorage, secret string) (*core.RefreshResult, error) {
	if secret == "" {
		return nil, core.ErrRefreshTokenRequired
	}

	_, account, err := tx.GetActiveRefreshCredential(ctx, m.codec.Digest(secret), m.now())
	if err != nil {
		if errors.Is(err, core.ErrRefreshCredentialNotFound) {
			return nil, core.ErrInvalidRefreshToken
		}
		return nil, core.StorageFailure("get refresh credential", err)
	}

	accessToken, expiresIn, err := m.codec.IssueAccessCredential(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	return &core.RefreshResult{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		User:        account.View(),
	}, nil
}

// Revoke deletes the refresh credential for secret. An unknown secret is
// not an error.
func (m *TokenManager) Revoke(ctx context.Context, tx core.RefreshStorage, secret string) error {
	if secret == "" {
		return nil
	}
	if _, err := tx.DeleteRefreshCredentialByHash(ctx, m.codec.Digest(secret)); err != nil {
		return core.StorageFailure("revoke refresh credential", err)
	}
	return nil
}

// PurgeExpired deletes refresh credentials whose expiry is before now and
// returns how many were removed.
func (m *TokenManager) PurgeExpired(ctx context.Context, tx core.RefreshStorage) (int64, error) {
	n, err := tx.DeleteExpiredRefreshCredentials(ctx, m.now())
	if err != nil {
		return 0, core.StorageFailure("purge refresh credentials", err)
	}
	return n, nil
}
