package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/lborres/bantay"
	"go.uber.org/zap"
)

type Adapter struct {
	app    *fiber.App
	logger *zap.Logger
}

var _ bantay.HTTPAdapter = (*Adapter)(nil)

type Option func(*Adapter)

// WithLogger sets the logger used for server-side failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(app *fiber.App, opts ...Option) *Adapter {
	a := &Adapter{app: app, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RegisterRoutes serves every action in cfg.Actions on cfg.BasePath. The
// action is chosen by the action query parameter.
func (a *Adapter) RegisterRoutes(handler bantay.AuthHandler, cfg bantay.RouteConfig) error {
	known := map[string]fiber.Handler{
		"auth-url": a.handleAuthURL(handler),
		"callback": a.handleCallback(handler),
		"refresh":  a.handleRefresh(handler),
		"logout":   a.handleLogout(handler),
	}

	dispatch := make(map[string]fiber.Handler, len(cfg.Actions))
	for _, action := range cfg.Actions {
		h, ok := known[action.Name]
		if !ok {
			return fmt.Errorf("fiber adapter: no handler for action %q", action.Name)
		}
		dispatch[action.Name] = h
	}

	cors := newCORSPolicy(cfg.AllowedOrigins)

	a.app.Options(cfg.BasePath, cors.preflight)
	a.app.All(cfg.BasePath, func(c fiber.Ctx) error {
		cors.apply(c)

		action := c.Query("action")
		h, ok := dispatch[action]
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "Unknown action: "+action)
		}
		return h(c)
	})

	return nil
}
