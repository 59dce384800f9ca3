package core

import (
	"context"
)

// Ports define interfaces for external dependencies

// ============================================
// IDENTITY PROVIDER PORT
// ============================================

// IdentityProvider is the external OAuth2 service that authenticates users
type IdentityProvider interface {
	// CanAuthorize reports whether the redirect flow can be started
	// (client id and redirect URI present).
	CanAuthorize() bool

	// Configured reports whether codes can be exchanged
	// (client id and client secret present).
	Configured() bool

	AuthorizationURL(state string) string

	// Exchange trades an authorization code for a verified identity claim.
	// Failures are returned as *ProviderError.
	Exchange(ctx context.Context, code string) (*IdentityClaim, error)
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides the session flows for HTTP adapters
type AuthHandler interface {
	AuthorizationURL(ctx context.Context) (*AuthorizationURLResult, error)
	Login(ctx context.Context, code string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) BestEffort
}

// ============================================
// HTTP PORT
// ============================================

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, cfg RouteConfig) error
	BuildProtectedMiddleware(verifier AccessVerifier) interface{}
}

// RouteConfig carries the transport settings adapters need
type RouteConfig struct {
	BasePath       string
	AllowedOrigins []string

	// Actions served on BasePath. Adapters must reject actions they cannot
	// handle.
	Actions []*Action
}

// AccessVerifier validates access credentials for protected routes
type AccessVerifier interface {
	ParseAccessCredential(token string) (*AccessClaims, error)
}
