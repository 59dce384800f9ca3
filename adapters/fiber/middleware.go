package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay"
)

// Locals keys set by the protected middleware
const (
	LocalsClaims    = "claims"
	LocalsAccountID = "account_id"
)

// BuildProtectedMiddleware creates a Fiber middleware that validates access
// credentials and stores the claims in the context for downstream handlers.
func (a *Adapter) BuildProtectedMiddleware(verifier bantay.AccessVerifier) interface{} {
	return fiber.Handler(func(c fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return writeError(c, fiber.StatusUnauthorized, msgMissingToken)
		}

		claims, err := verifier.ParseAccessCredential(token)
		if err != nil {
			return a.handleAuthError(c, err)
		}

		c.Locals(LocalsClaims, claims)
		c.Locals(LocalsAccountID, claims.Subject)

		return c.Next()
	})
}
