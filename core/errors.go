package core

import (
	"errors"
	"fmt"
)

// Error classes. Every error below wraps exactly one of these so callers can
// branch on the class with errors.Is.
var (
	ErrConfiguration = errors.New("server configuration error") // 500
	ErrValidation    = errors.New("invalid request")            // 400
	ErrProvider      = errors.New("identity provider error")    // 400 or 500
	ErrStorage       = errors.New("storage error")              // 500
)

// Config errors (server-side configuration)
var (
	ErrSecretRequired        = fmt.Errorf("%w: secret is required", ErrConfiguration)
	ErrSecretTooShort        = fmt.Errorf("%w: secret too short", ErrConfiguration)
	ErrProviderNotConfigured = fmt.Errorf("%w: identity provider is not configured", ErrConfiguration)
	ErrStoreRequired         = fmt.Errorf("%w: store is required", ErrConfiguration)
	ErrHTTPAdapterRequired   = fmt.Errorf("%w: http adapter is required", ErrConfiguration)
)

// Validation errors (client input)
var (
	ErrCodeRequired         = fmt.Errorf("%w: authorization code is required", ErrValidation)
	ErrRefreshTokenRequired = fmt.Errorf("%w: refresh_token is required", ErrValidation)
	ErrInvalidJSON          = fmt.Errorf("%w: invalid JSON", ErrValidation)
)

// Credential errors
var (
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token") // 401
	ErrInvalidToken        = errors.New("invalid access token")             // 401
)

// Storage errors returned by store adapters
var (
	ErrAccountNotFound           = errors.New("account not found")
	ErrAccountExists             = errors.New("account already exists")
	ErrRefreshCredentialNotFound = errors.New("refresh credential not found")
)

// ProviderError describes a failed call to the identity provider.
//
// Rejected is set when the provider answered and refused the authorization
// code; Description then carries the provider's explanation, if any.
type ProviderError struct {
	Op          string
	Rejected    bool
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	msg := ErrProvider.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProvider}
	}
	return []error{ErrProvider, e.Err}
}

// StorageFailure wraps err in ErrStorage unless it already is one.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
