package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/passwordreset"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/google/uuid"
)

// ResetManager mints single-use password reset tokens and redeems them.
type ResetManager struct {
	users  UserReader
	resets PasswordResetRepository
	hasher PasswordHasher
	ttl    time.Duration
	log    *slog.Logger
	prom   *observability.Prom

	now      func() time.Time
	newToken func() (string, error)
}

func NewResetManager(users UserReader, resets PasswordResetRepository, hasher PasswordHasher, ttl time.Duration, log *slog.Logger) *ResetManager {
	if ttl <= 0 {
		ttl = passwordreset.DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &ResetManager{
		users:    users,
		resets:   resets,
		hasher:   hasher,
		ttl:      ttl,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: security.NewResetToken,
	}
}

func (m *ResetManager) WithMetrics(p *observability.Prom) *ResetManager {
	m.prom = p
	return m
}

// CreateToken reports ok=false, without error, when no account has the email.
// Callers must not let that difference reach the client.
func (m *ResetManager) CreateToken(ctx context.Context, email string) (token string, ok bool, err error) {
	rec, ok, err := m.Issue(ctx, email)
	return rec.Token, ok, err
}

// Issue is CreateToken returning the stored record, so callers can use its exact expiry.
func (m *ResetManager) Issue(ctx context.Context, email string) (passwordreset.Token, bool, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return passwordreset.Token{}, false, nil
	}

	u, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return passwordreset.Token{}, false, nil
		}
		return passwordreset.Token{}, false, fmt.Errorf("lookup user: %w", err)
	}

	token, err := m.newToken()
	if err != nil {
		return passwordreset.Token{}, false, err
	}

	rec := passwordreset.Token{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: m.now().Add(m.ttl),
		Used:      false,
	}

	if err := m.resets.Create(ctx, rec); err != nil {
		return passwordreset.Token{}, false, fmt.Errorf("store reset token: %w", err)
	}

	m.prom.IncPasswordReset("issued")
	m.log.InfoContext(ctx, "password reset issued", "user_id", u.ID, "reset_id", rec.ID)

	return rec, true, nil
}

// ResetPassword consumes token and installs newPassword in one atomic step.
// Unknown, expired and already used tokens all report false.
func (m *ResetManager) ResetPassword(ctx context.Context, token, newPassword string) (bool, error) {
	if token == "" {
		m.prom.IncPasswordReset("rejected")
		return false, nil
	}

	ok, err := m.resets.Redeem(ctx, token, m.now(), func() (string, error) {
		return m.hasher.Hash(newPassword)
	})
	if err != nil {
		return false, fmt.Errorf("redeem reset token: %w", err)
	}

	if !ok {
		m.prom.IncPasswordReset("rejected")
		return false, nil
	}

	m.prom.IncPasswordReset("redeemed")
	return true, nil
}
