package fiber

import (
	"github.com/gofiber/fiber/v3"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// corsPolicy decides the Access-Control-Allow-Origin value per request.
// An empty allow-list admits every origin.
type corsPolicy struct {
	allowed map[string]bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{allowed: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if o != "" {
			p.allowed[o] = true
		}
	}
	return p
}

func (p corsPolicy) allowOrigin(origin string) string {
	if len(p.allowed) == 0 {
		if origin == "" {
			return "*"
		}
		return origin
	}
	if origin != "" && p.allowed[origin] {
		return origin
	}
	return "null"
}

func (p corsPolicy) apply(c fiber.Ctx) {
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowOrigin, p.allowOrigin(c.Get(fiber.HeaderOrigin)))
}

// preflight answers OPTIONS with an empty 200. The allow-list is not
// consulted; the actual request is.
func (p corsPolicy) preflight(c fiber.Ctx) error {
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		origin = "*"
	}
	c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Status(fiber.StatusOK)
	return nil
}
