// Package google implements the identity provider port against Google's
// OAuth 2.0 authorization server and userinfo API.
package google

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lborres/bantay/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const DefaultTimeout = 10 * time.Second

// Scopes requested on every authorization.
var Scopes = []string{"openid", "email", "profile"}

// Messages used when the token endpoint refuses a code without saying why.
const (
	msgAuthFailed    = "Google auth failed"
	msgRequestFailed = "Google API request failed"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Timeout bounds one Exchange call, token request and profile fetch
	// together. Zero means DefaultTimeout.
	Timeout time.Duration

	// Overrides, used by tests. Zero values select Google's endpoints.
	Endpoint         oauth2.Endpoint
	UserinfoEndpoint string
	HTTPClient       *http.Client
}

// Provider authenticates users with Google. It makes a single attempt per
// call and never retries.
type Provider struct {
	oauth      *oauth2.Config
	timeout    time.Duration
	userinfo   string
	httpClient *http.Client
}

var _ core.IdentityProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		timeout:    timeout,
		userinfo:   cfg.UserinfoEndpoint,
		httpClient: cfg.HTTPClient,
	}
}

func (p *Provider) CanAuthorize() bool {
	return p.oauth.ClientID != "" && p.oauth.RedirectURL != ""
}

func (p *Provider) Configured() bool {
	return p.oauth.ClientID != "" && p.oauth.ClientSecret != ""
}

// AuthorizationURL returns the consent page URL. It asks for offline access
// and forces the consent prompt.
func (p *Provider) AuthorizationURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades code for a token and fetches the user's profile with it.
func (p *Provider) Exchange(ctx context.Context, code string) (*core.IdentityClaim, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return nil, &core.ProviderError{
				Op:          "exchange",
				Rejected:    true,
				Description: describe(rerr),
				Err:         err,
			}
		}
		return nil, &core.ProviderError{Op: "exchange", Err: err}
	}

	opts := []option.ClientOption{option.WithHTTPClient(p.oauth.Client(ctx, token))}
	if p.userinfo != "" {
		opts = append(opts, option.WithEndpoint(p.userinfo))
	}

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, &core.ProviderError{Op: "userinfo", Err: err}
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, &core.ProviderError{Op: "userinfo", Err: err}
	}
	if info.Id == "" {
		return nil, &core.ProviderError{Op: "userinfo", Err: errors.New("profile has no subject id")}
	}

	claim := &core.IdentityClaim{
		ProviderID: info.Id,
		Email:      info.Email,
		Name:       info.Name,
		AvatarURL:  info.Picture,
	}
	if info.VerifiedEmail != nil {
		claim.EmailVerified = *info.VerifiedEmail
	}

	return claim, nil
}

func describe(rerr *oauth2.RetrieveError) string {
	switch {
	case rerr.ErrorDescription != "":
		return rerr.ErrorDescription
	case rerr.ErrorCode != "":
		return msgAuthFailed
	default:
		return msgRequestFailed
	}
}
