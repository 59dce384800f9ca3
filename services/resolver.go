package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lborres/bantay/core"
)

// Resolution is the outcome of mapping an identity claim to an account.
//
// Account is the stored account the claim resolved to. It is nil for
// ResolutionCreated until ResolveIdentity inserts the new row.
type Resolution struct {
	Kind    core.ResolutionKind
	Account *core.Account
	View    core.AccountView
}

// Resolve applies the account mapping policy to the lookup results.
//
// A provider id match wins over an email match. An email match only counts
// when the claim carries an email. Stored non-empty values win over claim
// values in the returned view.
func Resolve(claim core.IdentityClaim, byProvider, byEmail *core.Account) Resolution {
	if byProvider != nil {
		return Resolution{
			Kind:    core.ResolutionMatched,
			Account: byProvider,
			View: core.AccountView{
				ID:         byProvider.ID,
				Email:      firstNonEmpty(byProvider.Email, claim.Email),
				Name:       firstNonEmpty(byProvider.Name, claim.Name),
				AvatarURL:  firstNonEmpty(byProvider.AvatarURL, claim.AvatarURL),
				ProviderID: claim.ProviderID,
			},
		}
	}

	if claim.Email != "" && byEmail != nil {
		return Resolution{
			Kind:    core.ResolutionLinked,
			Account: byEmail,
			View: core.AccountView{
				ID:         byEmail.ID,
				Email:      claim.Email,
				Name:       firstNonEmpty(byEmail.Name, claim.Name),
				AvatarURL:  firstNonEmpty(byEmail.AvatarURL, claim.AvatarURL),
				ProviderID: claim.ProviderID,
			},
		}
	}

	return Resolution{
		Kind: core.ResolutionCreated,
		View: core.AccountView{
			Email:      claim.Email,
			Name:       claim.Name,
			AvatarURL:  claim.AvatarURL,
			ProviderID: claim.ProviderID,
		},
	}
}

// ResolveIdentity looks up the claim inside tx, applies the write chosen by
// Resolve and returns the resolution with its account id set.
func ResolveIdentity(ctx context.Context, tx core.AccountStorage, claim core.IdentityClaim, now time.Time) (*Resolution, error) {
	byProvider, err := lookup(tx.GetAccountByProviderID(ctx, claim.ProviderID))
	if err != nil {
		return nil, fmt.Errorf("failed to find account by provider id: %w", err)
	}

	var byEmail *core.Account
	if byProvider == nil && claim.Email != "" {
		byEmail, err = lookup(tx.GetAccountByEmail(ctx, claim.Email))
		if err != nil {
			return nil, fmt.Errorf("failed to find account by email: %w", err)
		}
	}

	res := Resolve(claim, byProvider, byEmail)

	switch res.Kind {
	case core.ResolutionMatched:
		if err := tx.TouchLogin(ctx, res.Account.ID, claim.Name, claim.AvatarURL, now); err != nil {
			return nil, fmt.Errorf("failed to record login: %w", err)
		}

	case core.ResolutionLinked:
		if err := tx.LinkProvider(ctx, res.Account.ID, claim.ProviderID, claim.AvatarURL, now); err != nil {
			return nil, fmt.Errorf("failed to link provider: %w", err)
		}

	case core.ResolutionCreated:
		account := &core.Account{
			ProviderID:    claim.ProviderID,
			Email:         claim.Email,
			Name:          claim.Name,
			AvatarURL:     claim.AvatarURL,
			EmailVerified: claim.EmailVerified,
			CreatedAt:     now,
			UpdatedAt:     now,
			LastLoginAt:   now,
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		res.Account = account
		res.View.ID = account.ID
	}

	return &res, nil
}

// lookup turns ErrAccountNotFound into a nil account.
func lookup(a *core.Account, err error) (*core.Account, error) {
	if errors.Is(err, core.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
