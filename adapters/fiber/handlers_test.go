package fiber

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/lborres/bantay"
)

// mockAuthHandler is a test fake implementing bantay.AuthHandler interface
type mockAuthHandler struct {
	authURLResult *bantay.AuthorizationURLResult
	authURLErr    error

	loginCalled bool
	loginCode   string
	loginErr    error
	loginResult *bantay.LoginResult

	refreshCalled bool
	refreshToken  string
	refreshErr    error
	refreshResult *bantay.RefreshResult

	logoutCalled bool
	logoutToken  string
	logoutResult bantay.BestEffort
}

func (m *mockAuthHandler) AuthorizationURL(ctx context.Context) (*bantay.AuthorizationURLResult, error) {
	if m.authURLErr != nil {
		return nil, m.authURLErr
	}
	return m.authURLResult, nil
}

func (m *mockAuthHandler) Login(ctx context.Context, code string) (*bantay.LoginResult, error) {
	m.loginCalled = true
	m.loginCode = code
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResult, nil
}

func (m *mockAuthHandler) Refresh(ctx context.Context, refreshToken string) (*bantay.RefreshResult, error) {
	m.refreshCalled = true
	m.refreshToken = refreshToken
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.refreshResult, nil
}

func (m *mockAuthHandler) Logout(ctx context.Context, refreshToken string) bantay.BestEffort {
	m.logoutCalled = true
	m.logoutToken = refreshToken
	return m.logoutResult
}

func TestMapErrorToStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "maps ErrCodeRequired to 400",
			err:         bantay.ErrCodeRequired,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Authorization code is required",
		},
		{
			name:        "maps ErrRefreshTokenRequired to 400",
			err:         bantay.ErrRefreshTokenRequired,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "refresh_token is required",
		},
		{
			name:        "maps ErrInvalidJSON to 400",
			err:         bantay.ErrInvalidJSON,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid JSON",
		},
		{
			name:        "maps rejected provider error to 400 with its description",
			err:         &bantay.ProviderError{Rejected: true, Description: "Malformed auth code."},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Malformed auth code.",
		},
		{
			name:        "maps rejected provider error without description to 400",
			err:         &bantay.ProviderError{Rejected: true},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Google auth failed",
		},
		{
			name:        "maps provider failure to 500",
			err:         &bantay.ProviderError{Op: "userinfo", Err: errors.New("timeout")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Google API error",
		},
		{
			name:        "maps ErrInvalidRefreshToken to 401",
			err:         bantay.ErrInvalidRefreshToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired refresh token",
		},
		{
			name:        "maps ErrInvalidToken to 401",
			err:         bantay.ErrInvalidToken,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid or expired access token",
		},
		{
			name:        "maps configuration errors to 500",
			err:         bantay.ErrSecretTooShort,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Server configuration error",
		},
		{
			name:        "maps storage errors to 500 without details",
			err:         bantay.StorageFailure("insert", errors.New("pq: relation missing")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
		{
			name:        "defaults unknown errors to 500",
			err:         errors.New("unknown error"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			status := mapErrorToStatus(test.err)
			message := errorMessage(test.err)

			// Assert
			if status != test.wantStatus {
				t.Errorf("mapErrorToStatus should map error to %d; got %d", test.wantStatus, status)
			}
			if message != test.wantMessage {
				t.Errorf("errorMessage should be %q; got %q", test.wantMessage, message)
			}
		})
	}
}

// Requirement: the allow-origin header echoes allowed origins, falls back to
// * without an origin when no allow-list is set, and is null otherwise.
func TestCORSPolicy_AllowOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{name: "no list, no origin", allowed: nil, origin: "", want: "*"},
		{name: "no list, any origin", allowed: nil, origin: "https://a.example.com", want: "https://a.example.com"},
		{name: "listed origin", allowed: []string{"https://a.example.com"}, origin: "https://a.example.com", want: "https://a.example.com"},
		{name: "unlisted origin", allowed: []string{"https://a.example.com"}, origin: "https://evil.example.com", want: "null"},
		{name: "list, no origin", allowed: []string{"https://a.example.com"}, origin: "", want: "null"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got := newCORSPolicy(test.allowed).allowOrigin(test.origin)
			if got != test.want {
				t.Errorf("allowOrigin(%q) = %q, want %q", test.origin, got, test.want)
			}
		})
	}
}
