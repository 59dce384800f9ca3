package bantay

import (
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/services"
	"go.uber.org/zap"
)

// interfaces
type (
	Store            = core.Store
	Tx               = core.Tx
	AccountStorage   = core.AccountStorage
	RefreshStorage   = core.RefreshStorage
	IdentityProvider = core.IdentityProvider

	HTTPAdapter    = core.HTTPAdapter
	AuthHandler    = core.AuthHandler
	AccessVerifier = core.AccessVerifier
	Observer       = core.Observer
)

// structs
type (
	Config        = core.Config
	SessionConfig = core.SessionConfig
	RouteConfig   = core.RouteConfig
	Action        = core.Action
)

type (
	Account           = core.Account
	AccountView       = core.AccountView
	RefreshCredential = core.RefreshCredential
	IdentityClaim     = core.IdentityClaim
	AccessClaims      = core.AccessClaims

	AuthorizationURLResult = core.AuthorizationURLResult
	LoginResult            = core.LoginResult
	RefreshResult          = core.RefreshResult
	BestEffort             = core.BestEffort
	ProviderError          = core.ProviderError

	CallbackRequest = core.CallbackRequest
	RefreshRequest  = core.RefreshRequest
	ErrorResponse   = core.ErrorResponse
	MessageResponse = core.MessageResponse
)

const (
	defaultBasePath = "/api/auth"
)

var (
	DefaultSessionConfig = core.DefaultSessionConfig
	StorageFailure       = core.StorageFailure
)

var (
	ErrConfiguration = core.ErrConfiguration
	ErrValidation    = core.ErrValidation
	ErrProvider      = core.ErrProvider
	ErrStorage       = core.ErrStorage
)

var (
	ErrSecretRequired        = core.ErrSecretRequired
	ErrSecretTooShort        = core.ErrSecretTooShort
	ErrProviderNotConfigured = core.ErrProviderNotConfigured
	ErrStoreRequired         = core.ErrStoreRequired
	ErrHTTPAdapterRequired   = core.ErrHTTPAdapterRequired
)

var (
	ErrCodeRequired         = core.ErrCodeRequired
	ErrRefreshTokenRequired = core.ErrRefreshTokenRequired
	ErrInvalidJSON          = core.ErrInvalidJSON
	ErrInvalidRefreshToken  = core.ErrInvalidRefreshToken
	ErrInvalidToken         = core.ErrInvalidToken
)

var (
	ErrAccountNotFound           = core.ErrAccountNotFound
	ErrAccountExists             = core.ErrAccountExists
	ErrRefreshCredentialNotFound = core.ErrRefreshCredentialNotFound
)

// Bantay is a wired authentication service.
type Bantay struct {
	Flow    *services.SessionFlow
	Codec   *services.Codec
	Tokens  *services.TokenManager
	Actions *services.ActionRegistry

	BasePath string

	// Protected is the adapter middleware that requires a valid access
	// credential. Its concrete type depends on the HTTP adapter.
	Protected interface{}
}

// New wires the flows and registers them on config.HTTP.
//
// The signing secret and provider settings are not checked here. Each flow
// checks what it needs and reports a configuration error, so a deployment
// missing the secret can still serve auth-url.
func New(config Config) (*Bantay, error) {
	if config.Store == nil {
		return nil, ErrStoreRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		defaults := DefaultSessionConfig()
		sessionConfig = &defaults
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	codec := services.NewCodec(config.Secret, sessionConfig.AccessTTL, now)
	tokens := services.NewTokenManager(codec, sessionConfig.RefreshTTL, now)
	flow := services.NewSessionFlow(services.FlowOptions{
		Store:    config.Store,
		Provider: config.Provider,
		Codec:    codec,
		Tokens:   tokens,
		Observer: config.Observer,
		Logger:   logger.Named("flow"),
		Now:      now,
	})
	actions := services.NewActionRegistry()

	b := &Bantay{
		Flow:     flow,
		Codec:    codec,
		Tokens:   tokens,
		Actions:  actions,
		BasePath: basePath,
	}

	err := config.HTTP.RegisterRoutes(flow, RouteConfig{
		BasePath:       basePath,
		AllowedOrigins: config.AllowedOrigins,
		Actions:        actions.Actions(),
	})
	if err != nil {
		return nil, err
	}

	b.Protected = config.HTTP.BuildProtectedMiddleware(codec)

	return b, nil
}
