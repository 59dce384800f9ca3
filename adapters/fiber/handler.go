package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay"
	"go.uber.org/zap"
)

// Client-facing messages. Server-side failures never expose details.
const (
	msgCodeRequired         = "Authorization code is required"
	msgRefreshTokenRequired = "refresh_token is required"
	msgInvalidJSON          = "Invalid JSON"
	msgInvalidRefreshToken  = "Invalid or expired refresh token"
	msgInvalidAccessToken   = "Invalid or expired access token"
	msgMissingToken         = "Missing access token"
	msgConfiguration        = "Server configuration error"
	msgProvider             = "Google API error"
	msgProviderRejected     = "Google auth failed"
	msgInternal             = "Internal server error"
	msgLoggedOut            = "Logged out"
)

// handleAuthURL returns a handler for the auth-url action
func (a *Adapter) handleAuthURL(h bantay.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		result, err := h.AuthorizationURL(c.Context())
		if err != nil {
			return a.handleAuthError(c, err)
		}
		return c.Status(http.StatusOK).JSON(result)
	}
}

// handleCallback returns a handler for the callback action. The code is read
// from the JSON body, then from the query string. A malformed body counts as
// an empty one.
func (a *Adapter) handleCallback(h bantay.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input bantay.CallbackRequest
		_ = decodeBody(c, &input)

		code := input.Code
		if code == "" {
			code = c.Query("code")
		}

		result, err := h.Login(c.Context(), code)
		if err != nil {
			return a.handleAuthError(c, err)
		}
		return c.Status(http.StatusOK).JSON(result)
	}
}

// handleRefresh returns a handler for the refresh action
func (a *Adapter) handleRefresh(h bantay.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input bantay.RefreshRequest
		if err := decodeBody(c, &input); err != nil {
			return a.handleAuthError(c, bantay.ErrInvalidJSON)
		}

		result, err := h.Refresh(c.Context(), input.RefreshToken)
		if err != nil {
			return a.handleAuthError(c, err)
		}
		return c.Status(http.StatusOK).JSON(result)
	}
}

// handleLogout returns a handler for the logout action. It always answers 200.
func (a *Adapter) handleLogout(h bantay.AuthHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		var input bantay.RefreshRequest
		_ = decodeBody(c, &input)

		h.Logout(c.Context(), input.RefreshToken)

		return c.Status(http.StatusOK).JSON(bantay.MessageResponse{Message: msgLoggedOut})
	}
}

// decodeBody decodes a JSON body into v. An empty body decodes to nothing.
func decodeBody(c fiber.Ctx, v any) error {
	body := c.Body()
	if len(body) == 0 {
		return nil
	}
	return c.App().Config().JSONDecoder(body, v)
}

// extractToken extracts the access token from the Authorization header.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

func writeError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(bantay.ErrorResponse{Error: message})
}

// handleAuthError maps authentication errors to appropriate HTTP responses
func (a *Adapter) handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("action", c.Query("action")),
			zap.Error(err),
		)
	}
	return writeError(c, status, errorMessage(err))
}

// mapErrorToStatus maps bantay error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var perr *bantay.ProviderError

	switch {
	case errors.Is(err, bantay.ErrInvalidRefreshToken),
		errors.Is(err, bantay.ErrInvalidToken):
		return http.StatusUnauthorized

	case errors.Is(err, bantay.ErrValidation):
		return http.StatusBadRequest

	case errors.As(err, &perr) && perr.Rejected:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing message for err
func errorMessage(err error) string {
	var perr *bantay.ProviderError

	switch {
	case errors.Is(err, bantay.ErrCodeRequired):
		return msgCodeRequired
	case errors.Is(err, bantay.ErrRefreshTokenRequired):
		return msgRefreshTokenRequired
	case errors.Is(err, bantay.ErrInvalidJSON):
		return msgInvalidJSON
	case errors.Is(err, bantay.ErrInvalidRefreshToken):
		return msgInvalidRefreshToken
	case errors.Is(err, bantay.ErrInvalidToken):
		return msgInvalidAccessToken
	case errors.Is(err, bantay.ErrConfiguration):
		return msgConfiguration
	case errors.As(err, &perr):
		if !perr.Rejected {
			return msgProvider
		}
		if perr.Description != "" {
			return perr.Description
		}
		return msgProviderRejected
	default:
		return msgInternal
	}
}
