package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lborres/bantay/core"
)

// FakeStore is a test-only in-memory core.Store. Each transaction works on a
// copy of the committed state; Commit publishes the copy, Rollback drops it.
// The error fields inject failures into the matching operation.
type FakeStore struct {
	mu          sync.Mutex
	accounts    map[int64]*core.Account
	credentials map[string]*core.RefreshCredential // keyed by token hash
	nextID      int64

	beginErr         error
	commitErr        error
	createAccountErr error
	createRefreshErr error
	getRefreshErr    error
	purgeErr         error
	revokeErr        error

	commits   int
	rollbacks int
}

var _ core.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{
		accounts:    make(map[int64]*core.Account),
		credentials: make(map[string]*core.RefreshCredential),
	}
}

// SeedAccount stores a directly and returns its assigned id.
func (s *FakeStore) SeedAccount(a core.Account) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	s.accounts[a.ID] = &a
	return a.ID
}

// SeedCredential stores r directly.
func (s *FakeStore) SeedCredential(r core.RefreshCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[r.TokenHash] = &r
}

func (s *FakeStore) Account(id int64) (core.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, false
	}
	return *a, true
}

func (s *FakeStore) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

func (s *FakeStore) CredentialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.credentials)
}

func (s *FakeStore) Begin(ctx context.Context) (core.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{
		store:       s,
		accounts:    make(map[int64]*core.Account, len(s.accounts)),
		credentials: make(map[string]*core.RefreshCredential, len(s.credentials)),
		nextID:      s.nextID,
	}
	for id, a := range s.accounts {
		copied := *a
		tx.accounts[id] = &copied
	}
	for hash, r := range s.credentials {
		copied := *r
		tx.credentials[hash] = &copied
	}
	return tx, nil
}

type fakeTx struct {
	store       *FakeStore
	accounts    map[int64]*core.Account
	credentials map[string]*core.RefreshCredential
	nextID      int64
	done        bool
}

var errTxDone = errors.New("transaction already finished")

func (t *fakeTx) GetAccountByProviderID(ctx context.Context, providerID string) (*core.Account, error) {
	if providerID == "" {
		return nil, core.ErrAccountNotFound
	}
	for _, a := range t.accounts {
		if a.ProviderID == providerID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, core.ErrAccountNotFound
}

func (t *fakeTx) GetAccountByEmail(ctx context.Context, email string) (*core.Account, error) {
	if email == "" {
		return nil, core.ErrAccountNotFound
	}
	for _, a := range t.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, core.ErrAccountNotFound
}

func (t *fakeTx) GetAccountByID(ctx context.Context, id int64) (*core.Account, error) {
	a, ok := t.accounts[id]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (t *fakeTx) CreateAccount(ctx context.Context, a *core.Account) error {
	if t.store.createAccountErr != nil {
		return t.store.createAccountErr
	}
	for _, existing := range t.accounts {
		if (a.ProviderID != "" && existing.ProviderID == a.ProviderID) ||
			(a.Email != "" && existing.Email == a.Email) {
			return core.ErrAccountExists
		}
	}
	t.nextID++
	a.ID = t.nextID
	copied := *a
	t.accounts[a.ID] = &copied
	return nil
}

func (t *fakeTx) TouchLogin(ctx context.Context, id int64, name, avatarURL string, at time.Time) error {
	a, ok := t.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	if a.Name == "" {
		a.Name = name
	}
	if a.AvatarURL == "" {
		a.AvatarURL = avatarURL
	}
	a.LastLoginAt = at
	a.UpdatedAt = at
	return nil
}

func (t *fakeTx) LinkProvider(ctx context.Context, id int64, providerID, avatarURL string, at time.Time) error {
	a, ok := t.accounts[id]
	if !ok {
		return core.ErrAccountNotFound
	}
	for _, existing := range t.accounts {
		if existing.ID != id && existing.ProviderID == providerID {
			return core.ErrAccountExists
		}
	}
	a.ProviderID = providerID
	if a.AvatarURL == "" {
		a.AvatarURL = avatarURL
	}
	a.LastLoginAt = at
	a.UpdatedAt = at
	return nil
}

func (t *fakeTx) CreateRefreshCredential(ctx context.Context, r *core.RefreshCredential) error {
	if t.store.createRefreshErr != nil {
		return t.store.createRefreshErr
	}
	if _, exists := t.credentials[r.TokenHash]; exists {
		return errors.New("duplicate token hash")
	}
	copied := *r
	t.credentials[r.TokenHash] = &copied
	return nil
}

func (t *fakeTx) GetActiveRefreshCredential(ctx context.Context, tokenHash string, now time.Time) (*core.RefreshCredential, *core.Account, error) {
	if t.store.getRefreshErr != nil {
		return nil, nil, t.store.getRefreshErr
	}
	r, ok := t.credentials[tokenHash]
	if !ok || !r.ExpiresAt.After(now) {
		return nil, nil, core.ErrRefreshCredentialNotFound
	}
	a, ok := t.accounts[r.AccountID]
	if !ok {
		return nil, nil, core.ErrRefreshCredentialNotFound
	}
	credential, account := *r, *a
	return &credential, &account, nil
}

func (t *fakeTx) DeleteRefreshCredentialByHash(ctx context.Context, tokenHash string) (int64, error) {
	if t.store.revokeErr != nil {
		return 0, t.store.revokeErr
	}
	if _, ok := t.credentials[tokenHash]; !ok {
		return 0, nil
	}
	delete(t.credentials, tokenHash)
	return 1, nil
}

func (t *fakeTx) DeleteExpiredRefreshCredentials(ctx context.Context, now time.Time) (int64, error) {
	if t.store.purgeErr != nil {
		return 0, t.store.purgeErr
	}
	var n int64
	for hash, r := range t.credentials {
		if r.ExpiresAt.Before(now) {
			delete(t.credentials, hash)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if t.store.commitErr != nil {
		return t.store.commitErr
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.accounts = t.accounts
	t.store.credentials = t.credentials
	t.store.nextID = t.nextID
	t.store.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rollbacks++
	return nil
}

// FakeProvider is a test-only core.IdentityProvider returning a fixed claim.
type FakeProvider struct {
	claim        *core.IdentityClaim
	exchangeErr  error
	canAuthorize bool
	configured   bool

	codes []string
}

var _ core.IdentityProvider = (*FakeProvider)(nil)

func NewFakeProvider(claim core.IdentityClaim) *FakeProvider {
	return &FakeProvider{claim: &claim, canAuthorize: true, configured: true}
}

func (p *FakeProvider) CanAuthorize() bool { return p.canAuthorize }
func (p *FakeProvider) Configured() bool   { return p.configured }

func (p *FakeProvider) AuthorizationURL(state string) string {
	return "https://accounts.example.test/auth?state=" + state
}

func (p *FakeProvider) Exchange(ctx context.Context, code string) (*core.IdentityClaim, error) {
	p.codes = append(p.codes, code)
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	claim := *p.claim
	return &claim, nil
}

// fakeObserver records flow outcomes.
type fakeObserver struct {
	logins   []core.ResolutionKind
	loginErr []error
	refresh  []error
	logouts  []core.BestEffort
	purged   int64
}

func (o *fakeObserver) ObserveLogin(kind core.ResolutionKind, err error) {
	o.logins = append(o.logins, kind)
	o.loginErr = append(o.loginErr, err)
}
func (o *fakeObserver) ObserveRefresh(err error)            { o.refresh = append(o.refresh, err) }
func (o *fakeObserver) ObserveLogout(result core.BestEffort) { o.logouts = append(o.logouts, result) }
func (o *fakeObserver) ObservePurged(count int64)           { o.purged += count }
