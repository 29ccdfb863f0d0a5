package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/google/uuid"
)

// SessionManager issues, validates and revokes sessions with an absolute expiry.
type SessionManager struct {
	sessions   SessionRepository
	activities ActivityLogger
	ttl        time.Duration
	log        *slog.Logger
	prom       *observability.Prom

	now   func() time.Time
	newID func() string
}

func NewSessionManager(sessions SessionRepository, activities ActivityLogger, ttl time.Duration, log *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &SessionManager{
		sessions:   sessions,
		activities: activities,
		ttl:        ttl,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (m *SessionManager) WithMetrics(p *observability.Prom) *SessionManager {
	m.prom = p
	return m
}

func (m *SessionManager) Create(ctx context.Context, userID string) (session.Session, error) {
	now := m.now()

	// opportunistic cleanup; a failure here must not block the login
	if n, err := m.sessions.DeleteExpired(ctx, now); err != nil {
		m.log.WarnContext(ctx, "prune expired sessions failed", "err", err)
	} else if n > 0 {
		m.log.DebugContext(ctx, "pruned expired sessions", "count", n)
	}

	s := session.Session{
		ID:        m.newID(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.sessions.Create(ctx, s); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	m.prom.IncSessionIssued()
	m.record(ctx, userID, "User logged in")

	return s, nil
}

// Get returns nil for unknown or expired sessions. Expired rows are deleted on sight.
func (m *SessionManager) Get(ctx context.Context, id string) (*session.Session, error) {
	if id == "" {
		m.prom.IncSessionLookup("missing")
		return nil, nil
	}

	s, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			m.prom.IncSessionLookup("missing")
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if s.ExpiredAt(m.now()) {
		if _, err := m.sessions.DeleteByID(ctx, id); err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		m.prom.IncSessionLookup("expired")
		return nil, nil
	}

	m.prom.IncSessionLookup("valid")
	return &s, nil
}

// Delete is idempotent. The logout is attributed to the owner when the session still exists.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	s, err := m.sessions.GetByID(ctx, id)
	switch {
	case err == nil:
		m.record(ctx, s.UserID, "User logged out")
	case errors.Is(err, session.ErrNotFound):
	default:
		return fmt.Errorf("get session: %w", err)
	}

	if _, err := m.sessions.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// PruneExpired removes every session whose expiry has passed.
func (m *SessionManager) PruneExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

func (m *SessionManager) record(ctx context.Context, userID, details string) {
	if m.activities == nil {
		return
	}

	err := m.activities.Log(ctx, activity.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      activity.TypeLogin,
		Details:   details,
		Timestamp: m.now(),
	})
	if err != nil {
		m.log.WarnContext(ctx, "record session activity failed", "user_id", userID, "err", err)
	}
}
