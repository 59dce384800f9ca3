package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lborres/bantay/core"
)

// Requirement: provider id match wins over email match, which wins over create.
func TestResolve_Precedence(t *testing.T) {
	byProvider := &core.Account{ID: 1, ProviderID: "g-1", Email: "a@example.com"}
	byEmail := &core.Account{ID: 2, Email: "b@example.com"}

	tests := []struct {
		name       string
		claim      core.IdentityClaim
		byProvider *core.Account
		byEmail    *core.Account
		wantKind   core.ResolutionKind
		wantID     int64
	}{
		{
			name:       "provider id match",
			claim:      core.IdentityClaim{ProviderID: "g-1", Email: "b@example.com"},
			byProvider: byProvider,
			byEmail:    byEmail,
			wantKind:   core.ResolutionMatched,
			wantID:     1,
		},
		{
			name:     "email match links",
			claim:    core.IdentityClaim{ProviderID: "g-2", Email: "b@example.com"},
			byEmail:  byEmail,
			wantKind: core.ResolutionLinked,
			wantID:   2,
		},
		{
			name:     "empty claim email never links",
			claim:    core.IdentityClaim{ProviderID: "g-3"},
			byEmail:  byEmail,
			wantKind: core.ResolutionCreated,
		},
		{
			name:     "no match creates",
			claim:    core.IdentityClaim{ProviderID: "g-4", Email: "c@example.com"},
			wantKind: core.ResolutionCreated,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			res := Resolve(test.claim, test.byProvider, test.byEmail)

			// Assert
			if res.Kind != test.wantKind {
				t.Errorf("Kind = %v, want %v", res.Kind, test.wantKind)
			}
			if res.View.ID != test.wantID {
				t.Errorf("View.ID = %d, want %d", res.View.ID, test.wantID)
			}
			if res.View.ProviderID != test.claim.ProviderID {
				t.Errorf("View.ProviderID = %q, want %q", res.View.ProviderID, test.claim.ProviderID)
			}
		})
	}
}

// Requirement: stored non-empty values win over claim values in the view.
func TestResolve_StoredValuesWin(t *testing.T) {
	claim := core.IdentityClaim{
		ProviderID: "g-1",
		Email:      "new@example.com",
		Name:       "Claim Name",
		AvatarURL:  "https://img.example.com/claim.png",
	}

	tests := []struct {
		name       string
		stored     core.Account
		wantEmail  string
		wantName   string
		wantAvatar string
	}{
		{
			name:       "all stored values present",
			stored:     core.Account{ID: 5, ProviderID: "g-1", Email: "old@example.com", Name: "Stored", AvatarURL: "https://img.example.com/stored.png"},
			wantEmail:  "old@example.com",
			wantName:   "Stored",
			wantAvatar: "https://img.example.com/stored.png",
		},
		{
			name:       "stored values empty",
			stored:     core.Account{ID: 5, ProviderID: "g-1"},
			wantEmail:  "new@example.com",
			wantName:   "Claim Name",
			wantAvatar: "https://img.example.com/claim.png",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			res := Resolve(claim, &test.stored, nil)

			// Assert
			if res.View.Email != test.wantEmail {
				t.Errorf("Email = %q, want %q", res.View.Email, test.wantEmail)
			}
			if res.View.Name != test.wantName {
				t.Errorf("Name = %q, want %q", res.View.Name, test.wantName)
			}
			if res.View.AvatarURL != test.wantAvatar {
				t.Errorf("AvatarURL = %q, want %q", res.View.AvatarURL, test.wantAvatar)
			}
		})
	}
}

// Requirement: an unseen identity creates exactly one account with the claim fields.
func TestResolveIdentity_Creates(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeStore()
	tx, _ := store.Begin(ctx)
	claim := core.IdentityClaim{ProviderID: "g-1", Email: "a@example.com", Name: "Alice", AvatarURL: "pic", EmailVerified: true}

	// Act
	res, err := ResolveIdentity(ctx, tx, claim, testEpoch)
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// Assert
	if res.Kind != core.ResolutionCreated {
		t.Errorf("Kind = %v, want created", res.Kind)
	}
	if res.View.ID == 0 {
		t.Fatal("View.ID should be assigned")
	}
	stored, ok := store.Account(res.View.ID)
	if !ok {
		t.Fatal("account was not stored")
	}
	if stored.ProviderID != "g-1" || stored.Email != "a@example.com" || !stored.EmailVerified {
		t.Errorf("stored account = %+v, want claim fields", stored)
	}
	if !stored.CreatedAt.Equal(testEpoch) || !stored.UpdatedAt.Equal(testEpoch) || !stored.LastLoginAt.Equal(testEpoch) {
		t.Errorf("timestamps = %v/%v/%v, want %v", stored.CreatedAt, stored.UpdatedAt, stored.LastLoginAt, testEpoch)
	}
}

// Requirement: a known provider id updates login timestamps and never overwrites stored values.
func TestResolveIdentity_Matches(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeStore()
	id := store.SeedAccount(core.Account{ProviderID: "g-1", Email: "a@example.com", Name: "Stored", CreatedAt: testEpoch})
	tx, _ := store.Begin(ctx)
	later := testEpoch.Add(24 * time.Hour)
	claim := core.IdentityClaim{ProviderID: "g-1", Email: "a@example.com", Name: "Changed", AvatarURL: "pic"}

	// Act
	res, err := ResolveIdentity(ctx, tx, claim, later)
	if err != nil {
		t.Fatalf("ResolveIdentity() error = %v", err)
	}
	_ = tx.Commit(ctx)

	// Assert
	if res.Kind != core.ResolutionMatched || res.View.ID != id {
		t.Errorf("resolution = %v/%d, want matched/%d", res.Kind, res.View.ID, id)
	}
	if store.AccountCount() != 1 {
		t.Errorf("AccountCount() = %d, want 1", store.AccountCount())
	}
	stored, _ := store.Account(id)
	if stored.Name != "Stored" {
		t.Errorf("Name = %q, want stored value kept", stored.Name)
	}
	if stored.AvatarURL != "pic" {
		t.Errorf("AvatarURL = %q, want empty value backfilled", stored.AvatarURL)
	}
	if !stored.LastLoginAt.Equal(later) || !stored.UpdatedAt.Equal(later) {
		t.Errorf("timestamps not updated: %+v", stored)
	}
}

// Requirement: an email match attaches the provider id and keeps a stored avatar.
func TestResolveIdentity_Links(t *testing.T) {
	tests := []struct {
		name       string
		avatar     string
		wantAvatar string
	}{
		{name: "stored avatar kept", avatar: "stored.png", wantAvatar: "stored.png"},
		{name: "empty avatar filled", avatar: "", wantAvatar: "claim.png"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			store := NewFakeStore()
			id := store.SeedAccount(core.Account{Email: "a@example.com", Name: "Alice", AvatarURL: test.avatar})
			tx, _ := store.Begin(ctx)
			claim := core.IdentityClaim{ProviderID: "g-9", Email: "a@example.com", Name: "Other", AvatarURL: "claim.png"}

			// Act
			res, err := ResolveIdentity(ctx, tx, claim, testEpoch)
			if err != nil {
				t.Fatalf("ResolveIdentity() error = %v", err)
			}
			_ = tx.Commit(ctx)

			// Assert
			if res.Kind != core.ResolutionLinked || res.View.ID != id {
				t.Errorf("resolution = %v/%d, want linked/%d", res.Kind, res.View.ID, id)
			}
			stored, _ := store.Account(id)
			if stored.ProviderID != "g-9" {
				t.Errorf("ProviderID = %q, want g-9", stored.ProviderID)
			}
			if stored.AvatarURL != test.wantAvatar {
				t.Errorf("AvatarURL = %q, want %q", stored.AvatarURL, test.wantAvatar)
			}
			if res.View.Name != "Alice" {
				t.Errorf("View.Name = %q, want stored name", res.View.Name)
			}
		})
	}
}

func TestResolveIdentity_PropagatesCreateFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewFakeStore()
	store.createAccountErr = core.ErrAccountExists
	tx, _ := store.Begin(ctx)

	// Act
	_, err := ResolveIdentity(ctx, tx, core.IdentityClaim{ProviderID: "g-1"}, testEpoch)

	// Assert
	if !errors.Is(err, core.ErrAccountExists) {
		t.Errorf("ResolveIdentity() error = %v, want ErrAccountExists", err)
	}
}
