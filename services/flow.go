package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/bantay/core"
	"github.com/lborres/bantay/pkg/crypto"
	"go.uber.org/zap"
)

// SessionFlow runs the auth-url, login, refresh and logout flows.
// It keeps no state between requests; every flow opens its own transaction.
type SessionFlow struct {
	store    core.Store
	provider core.IdentityProvider
	codec    *Codec
	tokens   *TokenManager
	observer core.Observer
	logger   *zap.Logger
	now      func() time.Time
}

// Ensure SessionFlow implements AuthHandler
var _ core.AuthHandler = (*SessionFlow)(nil)

type FlowOptions struct {
	Store    core.Store
	Provider core.IdentityProvider
	Codec    *Codec
	Tokens   *TokenManager
	Observer core.Observer
	Logger   *zap.Logger
	Now      func() time.Time
}

func NewSessionFlow(opts FlowOptions) *SessionFlow {
	f := &SessionFlow{
		store:    opts.Store,
		provider: opts.Provider,
		codec:    opts.Codec,
		tokens:   opts.Tokens,
		observer: opts.Observer,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.observer == nil {
		f.observer = nopObserver{}
	}
	return f
}

// AuthorizationURL builds the provider redirect with a fresh state value.
func (f *SessionFlow) AuthorizationURL(ctx context.Context) (*core.AuthorizationURLResult, error) {
	if f.provider == nil || !f.provider.CanAuthorize() {
		return nil, core.ErrProviderNotConfigured
	}

	state, err := crypto.RandomString(crypto.StateLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	return &core.AuthorizationURLResult{
		AuthURL: f.provider.AuthorizationURL(state),
		State:   state,
	}, nil
}

// Login exchanges code with the provider, resolves the account and mints a
// session.
func (f *SessionFlow) Login(ctx context.Context, code string) (result *core.LoginResult, err error) {
	kind := core.ResolutionKind(0)
	defer func() { f.observer.ObserveLogin(kind, err) }()

	if code == "" {
		return nil, core.ErrCodeRequired
	}
	if f.provider == nil || !f.provider.Configured() {
		return nil, core.ErrProviderNotConfigured
	}
	if err := f.codec.ValidateSecret(); err != nil {
		return nil, err
	}

	claim, err := f.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	var purged int64
	err = f.inTx(ctx, "login", func(tx core.Tx) (err error) {
		if purged, err = f.tokens.PurgeExpired(ctx, tx); err != nil {
			return err
		}

		res, err := ResolveIdentity(ctx, tx, *claim, f.now())
		if err != nil {
			return err
		}

		tokens, err := f.tokens.IssueSessionTokens(ctx, tx, res.View.ID, res.View.Email)
		if err != nil {
			return err
		}

		kind = res.Kind
		result = &core.LoginResult{
			SessionTokens: *tokens,
			User:          res.View,
			Resolution:    res.Kind,
		}
		return nil
	})
	if err != nil {
		kind = 0
		return nil, err
	}
	f.reportPurged(purged)

	f.logger.Info("login",
		zap.Int64("account_id", result.User.ID),
		zap.Stringer("resolution", result.Resolution),
	)
	return result, nil
}

// Refresh mints a new access credential from a refresh secret.
func (f *SessionFlow) Refresh(ctx context.Context, refreshToken string) (result *core.RefreshResult, err error) {
	defer func() { f.observer.ObserveRefresh(err) }()

	if refreshToken == "" {
		return nil, core.ErrRefreshTokenRequired
	}
	if err := f.codec.ValidateSecret(); err != nil {
		return nil, err
	}

	// A miss still commits so the purge sticks.
	var (
		invalid bool
		purged  int64
	)
	err = f.inTx(ctx, "refresh", func(tx core.Tx) (err error) {
		if purged, err = f.tokens.PurgeExpired(ctx, tx); err != nil {
			return err
		}

		res, err := f.tokens.Refresh(ctx, tx, refreshToken)
		if errors.Is(err, core.ErrInvalidRefreshToken) {
			invalid = true
			return nil
		}
		if err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	f.reportPurged(purged)
	if invalid {
		return nil, core.ErrInvalidRefreshToken
	}

	return result, nil
}

// Logout revokes the refresh secret if one was supplied. The outcome is
// reported for observation only.
func (f *SessionFlow) Logout(ctx context.Context, refreshToken string) core.BestEffort {
	var result core.BestEffort
	if refreshToken != "" {
		var purged int64
		result.Err = f.inTx(ctx, "logout", func(tx core.Tx) (err error) {
			if err = f.tokens.Revoke(ctx, tx, refreshToken); err != nil {
				return err
			}
			purged, err = f.tokens.PurgeExpired(ctx, tx)
			return err
		})
		if !result.Failed() {
			f.reportPurged(purged)
		}
	}

	if result.Failed() {
		f.logger.Warn("logout did not complete", zap.Error(result.Err))
	}
	f.observer.ObserveLogout(result)
	return result
}

// inTx runs fn in a new transaction. It commits when fn succeeds and rolls
// back otherwise. Every failure is reported as a storage error.
func (f *SessionFlow) inTx(ctx context.Context, op string, fn func(tx core.Tx) error) error {
	if f.store == nil {
		return core.ErrStoreRequired
	}

	tx, err := f.store.Begin(ctx)
	if err != nil {
		return core.StorageFailure(op+": begin", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			f.logger.Error("rollback failed", zap.String("op", op), zap.Error(rbErr))
		}
		if errors.Is(err, core.ErrConfiguration) {
			return err
		}
		return core.StorageFailure(op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return core.StorageFailure(op+": commit", err)
	}
	return nil
}

// reportPurged is called only once the purge has been committed.
func (f *SessionFlow) reportPurged(n int64) {
	if n > 0 {
		f.observer.ObservePurged(n)
	}
}

type nopObserver struct{}

func (nopObserver) ObserveLogin(core.ResolutionKind, error) {}
func (nopObserver) ObserveRefresh(error)                    {}
func (nopObserver) ObserveLogout(core.BestEffort)           {}
func (nopObserver) ObservePurged(int64)                     {}
