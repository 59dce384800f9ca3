package core

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
	MinSecretLength   = 32
)

type SessionConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
	}
}

// Observer receives flow outcomes. Implemented by pkg/metrics.
type Observer interface {
	ObserveLogin(kind ResolutionKind, err error)
	ObserveRefresh(err error)
	ObserveLogout(result BestEffort)
	ObservePurged(count int64)
}

type Config struct {
	Secret string

	Store    Store
	Provider IdentityProvider
	HTTP     HTTPAdapter

	// Optional config
	SessionConfig  *SessionConfig
	Logger         *zap.Logger
	Observer       Observer
	BasePath       string
	AllowedOrigins []string
	Now            func() time.Time
}
