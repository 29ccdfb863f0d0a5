package auth

import (
	"context"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/domain/passwordreset"
	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

// Keep these interfaces small so tests can swap in the memory repositories or fakes.

type UserReader interface {
	// GetByEmail expects an already normalized email and returns user.ErrNotFound when absent.
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserRepository interface {
	UserReader
	// Create returns user.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u user.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, s session.Session) error
	// GetByID returns session.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (session.Session, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PasswordResetRepository interface {
	Create(ctx context.Context, t passwordreset.Token) error
	// Redeem atomically marks the unused, unexpired record matching token as used and
	// stores the hash returned by newHash as its owner's password. Both writes land or
	// neither does. It reports false, with no changes, when no record is redeemable.
	Redeem(ctx context.Context, token string, now time.Time, newHash func() (string, error)) (bool, error)
}

type ActivityLogger interface {
	Log(ctx context.Context, a activity.Activity) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, stored string) bool
}
