package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/bantay"
)

func (t *Tx) CreateRefreshCredential(ctx context.Context, r *bantay.RefreshCredential) error {
	query := `INSERT INTO public.refresh_tokens (id, user_id, token_hash, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := t.tx.Exec(ctx, query, r.ID, r.AccountID, r.TokenHash, r.ExpiresAt, r.CreatedAt)
	return err
}

func (t *Tx) GetActiveRefreshCredential(ctx context.Context, tokenHash string, now time.Time) (*bantay.RefreshCredential, *bantay.Account, error) {
	query := `SELECT rt.id, rt.user_id, rt.token_hash, rt.expires_at, rt.created_at,
	                 u.id, COALESCE(u.google_id, ''), COALESCE(u.email, ''), COALESCE(u.name, ''),
	                 COALESCE(u.avatar_url, ''), u.email_verified, u.created_at, u.updated_at,
	                 COALESCE(u.last_login_at, u.created_at)
	          FROM public.refresh_tokens rt
	          JOIN public.users u ON u.id = rt.user_id
	          WHERE rt.token_hash = $1 AND rt.expires_at > $2`

	r := &bantay.RefreshCredential{}
	acc := &bantay.Account{}
	err := t.tx.QueryRow(ctx, query, tokenHash, now).Scan(
		&r.ID, &r.AccountID, &r.TokenHash, &r.ExpiresAt, &r.CreatedAt,
		&acc.ID, &acc.ProviderID, &acc.Email, &acc.Name,
		&acc.AvatarURL, &acc.EmailVerified, &acc.CreatedAt, &acc.UpdatedAt,
		&acc.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, bantay.ErrRefreshCredentialNotFound
		}
		return nil, nil, err
	}
	return r, acc, nil
}

func (t *Tx) DeleteRefreshCredentialByHash(ctx context.Context, tokenHash string) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM public.refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *Tx) DeleteExpiredRefreshCredentials(ctx context.Context, now time.Time) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM public.refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
