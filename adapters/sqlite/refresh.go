package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lborres/bantay"
)

func (t *Tx) CreateRefreshCredential(ctx context.Context, r *bantay.RefreshCredential) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.AccountID, r.TokenHash, toMillis(r.ExpiresAt), toMillis(r.CreatedAt),
	)
	return err
}

func (t *Tx) GetActiveRefreshCredential(ctx context.Context, tokenHash string, now time.Time) (*bantay.RefreshCredential, *bantay.Account, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT rt.id, rt.user_id, rt.token_hash, rt.expires_at, rt.created_at,
		        u.id, COALESCE(u.google_id, ''), COALESCE(u.email, ''), COALESCE(u.name, ''),
		        COALESCE(u.avatar_url, ''), u.email_verified, u.created_at, u.updated_at,
		        COALESCE(u.last_login_at, u.created_at)
		 FROM refresh_tokens rt
		 JOIN users u ON u.id = rt.user_id
		 WHERE rt.token_hash = ? AND rt.expires_at > ?`,
		tokenHash, toMillis(now),
	)

	r := &bantay.RefreshCredential{}
	acc := &bantay.Account{}
	var expiresAt, createdAt, accCreatedAt, accUpdatedAt, lastLoginAt int64
	err := row.Scan(
		&r.ID, &r.AccountID, &r.TokenHash, &expiresAt, &createdAt,
		&acc.ID, &acc.ProviderID, &acc.Email, &acc.Name,
		&acc.AvatarURL, &acc.EmailVerified, &accCreatedAt, &accUpdatedAt,
		&lastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, bantay.ErrRefreshCredentialNotFound
		}
		return nil, nil, err
	}

	r.ExpiresAt = fromMillis(expiresAt)
	r.CreatedAt = fromMillis(createdAt)
	acc.CreatedAt = fromMillis(accCreatedAt)
	acc.UpdatedAt = fromMillis(accUpdatedAt)
	acc.LastLoginAt = fromMillis(lastLoginAt)
	return r, acc, nil
}

func (t *Tx) DeleteRefreshCredentialByHash(ctx context.Context, tokenHash string) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *Tx) DeleteExpiredRefreshCredentials(ctx context.Context, now time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
