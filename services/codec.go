package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
)

// Codec mints and verifies the credentials the service hands out.
//
// The signing secret is only checked when a credential is minted or parsed,
// so a Codec with a missing secret can still be constructed.
type Codec struct {
	secret    string
	accessTTL time.Duration
	now       func() time.Time
}

// Ensure Codec implements AccessVerifier
var _ core.AccessVerifier = (*Codec)(nil)

func NewCodec(secret string, accessTTL time.Duration, now func() time.Time) *Codec {
	if accessTTL <= 0 {
		accessTTL = core.DefaultAccessTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{secret: secret, accessTTL: accessTTL, now: now}
}

// ValidateSecret reports whether the signing secret is usable.
func (c *Codec) ValidateSecret() error {
	if c.secret == "" {
		return core.ErrSecretRequired
	}
	if len(c.secret) < core.MinSecretLength {
		return fmt.Errorf("%w - minimum of %d characters", core.ErrSecretTooShort, core.MinSecretLength)
	}
	return nil
}

// IssueAccessCredential signs an access credential for accountID and returns
// it with its lifetime in seconds.
func (c *Codec) IssueAccessCredential(accountID int64, email string) (string, int, error) {
	if err := c.ValidateSecret(); err != nil {
		return "", 0, err
	}

	now := c.now()
	claims := core.AccessClaims{
		Type:  core.TokenTypeAccess,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secret))
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign access credential: %w", err)
	}

	return token, int(c.accessTTL / time.Second), nil
}

// ParseAccessCredential verifies signature, type and expiry of token.
func (c *Codec) ParseAccessCredential(token string) (*core.AccessClaims, error) {
	if err := c.ValidateSecret(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	claims := &core.AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(c.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidToken, err)
	}
	if claims.Type != core.TokenTypeAccess || claims.Subject == "" {
		return nil, core.ErrInvalidToken
	}

	return claims, nil
}

// IssueRefreshSecret returns a fresh refresh secret and its storage digest.
func (c *Codec) IssueRefreshSecret() (string, string, error) {
	secret, err := crypto.NewSecret(crypto.DefaultSecretLength)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return secret.Value, secret.Digest, nil
}

// Digest returns the storage digest of a refresh secret.
func (c *Codec) Digest(secret string) string {
	return crypto.Digest(secret)
}
