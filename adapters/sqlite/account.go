package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lborres/bantay"
)

const accountColumns = `id, COALESCE(google_id, ''), COALESCE(email, ''), COALESCE(name, ''),
	COALESCE(avatar_url, ''), email_verified, created_at, updated_at, COALESCE(last_login_at, created_at)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*bantay.Account, error) {
	acc := &bantay.Account{}
	var createdAt, updatedAt, lastLoginAt int64
	err := row.Scan(
		&acc.ID, &acc.ProviderID, &acc.Email, &acc.Name,
		&acc.AvatarURL, &acc.EmailVerified, &createdAt, &updatedAt, &lastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bantay.ErrAccountNotFound
		}
		return nil, err
	}
	acc.CreatedAt = fromMillis(createdAt)
	acc.UpdatedAt = fromMillis(updatedAt)
	acc.LastLoginAt = fromMillis(lastLoginAt)
	return acc, nil
}

func (t *Tx) GetAccountByProviderID(ctx context.Context, providerID string) (*bantay.Account, error) {
	if providerID == "" {
		return nil, bantay.ErrAccountNotFound
	}
	q := `SELECT ` + accountColumns + ` FROM users WHERE google_id = ?`
	return scanAccount(t.tx.QueryRowContext(ctx, q, providerID))
}

func (t *Tx) GetAccountByEmail(ctx context.Context, email string) (*bantay.Account, error) {
	if email == "" {
		return nil, bantay.ErrAccountNotFound
	}
	q := `SELECT ` + accountColumns + ` FROM users WHERE email = ?`
	return scanAccount(t.tx.QueryRowContext(ctx, q, email))
}

func (t *Tx) GetAccountByID(ctx context.Context, id int64) (*bantay.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM users WHERE id = ?`
	return scanAccount(t.tx.QueryRowContext(ctx, q, id))
}

func (t *Tx) CreateAccount(ctx context.Context, acc *bantay.Account) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO users (google_id, email, name, avatar_url, email_verified, created_at, updated_at, last_login_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullable(acc.ProviderID), nullable(acc.Email), nullable(acc.Name), nullable(acc.AvatarURL),
		acc.EmailVerified, toMillis(acc.CreatedAt), toMillis(acc.UpdatedAt), toMillis(acc.LastLoginAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.ErrAccountExists
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	acc.ID = id
	return nil
}

func (t *Tx) TouchLogin(ctx context.Context, id int64, name, avatarURL string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users
		 SET name = COALESCE(NULLIF(name, ''), ?),
		     avatar_url = COALESCE(NULLIF(avatar_url, ''), ?),
		     last_login_at = ?, updated_at = ?
		 WHERE id = ?`,
		nullable(name), nullable(avatarURL), toMillis(at), toMillis(at), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (t *Tx) LinkProvider(ctx context.Context, id int64, providerID, avatarURL string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users
		 SET google_id = ?,
		     avatar_url = COALESCE(NULLIF(avatar_url, ''), ?),
		     last_login_at = ?, updated_at = ?
		 WHERE id = ?`,
		providerID, nullable(avatarURL), toMillis(at), toMillis(at), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return bantay.ErrAccountExists
		}
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return bantay.ErrAccountNotFound
	}
	return nil
}
