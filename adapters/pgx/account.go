package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lborres/bantay"
)

const accountColumns = `id, COALESCE(google_id, ''), COALESCE(email, ''), COALESCE(name, ''),
	COALESCE(avatar_url, ''), email_verified, created_at, updated_at, COALESCE(last_login_at, created_at)`

func scanAccount(row pgx.Row) (*bantay.Account, error) {
	acc := &bantay.Account{}
	err := row.Scan(
		&acc.ID, &acc.ProviderID, &acc.Email, &acc.Name,
		&acc.AvatarURL, &acc.EmailVerified, &acc.CreatedAt, &acc.UpdatedAt, &acc.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bantay.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (t *Tx) GetAccountByProviderID(ctx context.Context, providerID string) (*bantay.Account, error) {
	if providerID == "" {
		return nil, bantay.ErrAccountNotFound
	}
	q := `SELECT ` + accountColumns + ` FROM public.users WHERE google_id = $1`
	return scanAccount(t.tx.QueryRow(ctx, q, providerID))
}

func (t *Tx) GetAccountByEmail(ctx context.Context, email string) (*bantay.Account, error) {
	if email == "" {
		return nil, bantay.ErrAccountNotFound
	}
	q := `SELECT ` + accountColumns + ` FROM public.users WHERE email = $1`
	return scanAccount(t.tx.QueryRow(ctx, q, email))
}

func (t *Tx) GetAccountByID(ctx context.Context, id int64) (*bantay.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM public.users WHERE id = $1`
	return scanAccount(t.tx.QueryRow(ctx, q, id))
}

func (t *Tx) CreateAccount(ctx context.Context, acc *bantay.Account) error {
	query := `INSERT INTO public.users (google_id, email, name, avatar_url, email_verified, created_at, updated_at, last_login_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	var id int64
	err := t.tx.QueryRow(ctx, query,
		nullable(acc.ProviderID), nullable(acc.Email), nullable(acc.Name), nullable(acc.AvatarURL),
		acc.EmailVerified, acc.CreatedAt, acc.UpdatedAt, acc.LastLoginAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.ErrAccountExists
		}
		return err
	}

	acc.ID = id
	return nil
}

func (t *Tx) TouchLogin(ctx context.Context, id int64, name, avatarURL string, at time.Time) error {
	q := `UPDATE public.users
	      SET name = COALESCE(NULLIF(name, ''), $2),
	          avatar_url = COALESCE(NULLIF(avatar_url, ''), $3),
	          last_login_at = $4, updated_at = $4
	      WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, id, nullable(name), nullable(avatarURL), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bantay.ErrAccountNotFound
	}
	return nil
}

func (t *Tx) LinkProvider(ctx context.Context, id int64, providerID, avatarURL string, at time.Time) error {
	q := `UPDATE public.users
	      SET google_id = $2,
	          avatar_url = COALESCE(NULLIF(avatar_url, ''), $3),
	          last_login_at = $4, updated_at = $4
	      WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, id, providerID, nullable(avatarURL), at)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.ErrAccountExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return bantay.ErrAccountNotFound
	}
	return nil
}
