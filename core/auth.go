package core

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the value of the type claim on access credentials
const TokenTypeAccess = "access"

// AccessClaims are the claims signed into an access credential
type AccessClaims struct {
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionTokens is the credential pair minted on login
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"` // The raw secret (not the hash)
	ExpiresIn    int    `json:"expires_in"`
}

// AuthorizationURLResult contains the provider redirect and its anti-forgery state
type AuthorizationURLResult struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// LoginResult contains the minted tokens and the resolved account
type LoginResult struct {
	SessionTokens
	User AccountView `json:"user"`

	// Resolution records how the identity was mapped. Not sent to clients.
	Resolution ResolutionKind `json:"-"`
}

// RefreshResult contains a new access credential and the current account
type RefreshResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int         `json:"expires_in"`
	User        AccountView `json:"user"`
}

// BestEffort is the outcome of an operation whose failure is observable but
// never reported to the client.
type BestEffort struct {
	Err error
}

// Failed reports whether the operation did not complete.
func (b BestEffort) Failed() bool {
	return b.Err != nil
}

// ResolutionKind tags how an identity claim was mapped to an account
type ResolutionKind int

const (
	ResolutionMatched ResolutionKind = iota + 1 // existing account by provider id
	ResolutionLinked                            // existing account by email, provider id attached
	ResolutionCreated                           // new account
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionMatched:
		return "matched"
	case ResolutionLinked:
		return "linked"
	case ResolutionCreated:
		return "created"
	default:
		return "unknown"
	}
}
