package core

import (
	"time"
)

// Account represents one end user of the application
//
// This is the "identity" - who someone is. ProviderID is empty until the
// account is linked to the external identity provider.
type Account struct {
	ID            int64     `json:"id"`
	ProviderID    string    `json:"providerId,omitempty"`
	Email         string    `json:"email,omitempty"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}

// RefreshCredential represents one long-lived session grant
//
// Only the digest of the refresh secret is stored. The plaintext leaves the
// server exactly once, in the login response.
type RefreshCredential struct {
	ID        string    `json:"id"`
	AccountID int64     `json:"accountId"`
	TokenHash string    `json:"-"` // Never expose in JSON
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// IdentityClaim is the verified identity returned by the identity provider
type IdentityClaim struct {
	ProviderID    string
	Email         string
	Name          string
	AvatarURL     string
	EmailVerified bool
}

// AccountView is the account snapshot returned to clients
type AccountView struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
	ProviderID string `json:"google_id"`
}

// View returns the client-facing snapshot of the stored account.
func (a *Account) View() AccountView {
	return AccountView{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		AvatarURL:  a.AvatarURL,
		ProviderID: a.ProviderID,
	}
}
