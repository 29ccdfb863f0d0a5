package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/domain/passwordreset"
	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

var ErrDuplicateResetToken = errors.New("reset token already exists")

// Store keeps every table behind one lock so cross-table writes are atomic.
type Store struct {
	mu         sync.RWMutex
	users      map[string]user.User // keyed by id
	sessions   map[string]session.Session
	resets     map[string]passwordreset.Token // keyed by token
	activities []activity.Activity
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		sessions: make(map[string]session.Session),
		resets:   make(map[string]passwordreset.Token),
	}
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }
func (s *Store) Sessions() *SessionsRepo { return &SessionsRepo{s: s} }
func (s *Store) PasswordResets() *ResetsRepo { return &ResetsRepo{s: s} }
func (s *Store) Activities() *ActivitiesRepo { return &ActivitiesRepo{s: s} }

// DeleteUser removes a user and cascades to its sessions, resets and activities.
func (s *Store) DeleteUser(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)

	for k, v := range s.sessions {
		if v.UserID == id {
			delete(s.sessions, k)
		}
	}
	for k, v := range s.resets {
		if v.UserID == id {
			delete(s.resets, k)
		}
	}

	kept := s.activities[:0]
	for _, a := range s.activities {
		if a.UserID != id {
			kept = append(kept, a)
		}
	}
	s.activities = kept

	return true
}

type UsersRepo struct{ s *Store }

func (r *UsersRepo) Create(_ context.Context, u user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	r.s.users[u.ID] = u
	return nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) UpdateStatus(_ context.Context, id string, status user.Status) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return false, nil
	}
	u.Status = status
	r.s.users[id] = u
	return true, nil
}

type SessionsRepo struct{ s *Store }

func (r *SessionsRepo) Create(_ context.Context, sess session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[sess.UserID]; !ok {
		return user.ErrNotFound
	}
	r.s.sessions[sess.ID] = sess
	return nil
}

func (r *SessionsRepo) GetByID(_ context.Context, id string) (session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (r *SessionsRepo) DeleteByID(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[id]; !ok {
		return 0, nil
	}
	delete(r.s.sessions, id)
	return 1, nil
}

func (r *SessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.ExpiredAt(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *SessionsRepo) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.sessions)
}

type ResetsRepo struct{ s *Store }

func (r *ResetsRepo) Create(_ context.Context, t passwordreset.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[t.UserID]; !ok {
		return user.ErrNotFound
	}
	if _, ok := r.s.resets[t.Token]; ok {
		return ErrDuplicateResetToken
	}
	r.s.resets[t.Token] = t
	return nil
}

func (r *ResetsRepo) Redeem(_ context.Context, token string, now time.Time, newHash func() (string, error)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.resets[token]
	if !ok || !t.RedeemableAt(now) {
		return false, nil
	}

	u, ok := r.s.users[t.UserID]
	if !ok {
		return false, user.ErrNotFound
	}

	hash, err := newHash()
	if err != nil {
		return false, err
	}

	u.PasswordHash = hash
	t.Used = true
	r.s.users[u.ID] = u
	r.s.resets[token] = t

	return true, nil
}

// Get exposes a record for assertions.
func (r *ResetsRepo) Get(token string) (passwordreset.Token, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.resets[token]
	return t, ok
}

type ActivitiesRepo struct{ s *Store }

func (r *ActivitiesRepo) Log(_ context.Context, a activity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.activities = append(r.s.activities, a)
	return nil
}

// ForUser returns the user's activities in insertion order.
func (r *ActivitiesRepo) ForUser(userID string) []activity.Activity {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []activity.Activity
	for _, a := range r.s.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// ListByUser returns at most limit activities, newest first.
func (r *ActivitiesRepo) ListByUser(_ context.Context, userID string, limit int) ([]activity.Activity, error) {
	all := r.ForUser(userID)

	out := make([]activity.Activity, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, all[i])
	}
	return out, nil
}
