package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/repo/memory"
	"github.com/geocoder89/recipehub/internal/security"
)

var testHasherParams = security.ScryptParams{N: 1024, R: 8, P: 1, KeyLen: 64, SaltLen: 16}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable time source shared by the managers under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	hasher   *security.Hasher
	sessions *SessionManager
	resets   *ResetManager
	accounts *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clock := newFakeClock()
	hasher := security.NewHasherWithParams(testHasherParams)
	log := discardLogger()

	sessions := NewSessionManager(store.Sessions(), store.Activities(), 0, log)
	sessions.now = clock.Now

	resets := NewResetManager(store.Users(), store.PasswordResets(), hasher, 0, log)
	resets.now = clock.Now

	accounts := NewAccounts(store.Users(), sessions, hasher, store.Activities(), log)
	accounts.now = clock.Now

	return &fixture{
		store:    store,
		clock:    clock,
		hasher:   hasher,
		sessions: sessions,
		resets:   resets,
		accounts: accounts,
	}
}

func (f *fixture) seedUser(t *testing.T, email, password string) user.User {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	u := user.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		Status:       user.StatusActive,
		CreatedAt:    f.clock.Now(),
	}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
