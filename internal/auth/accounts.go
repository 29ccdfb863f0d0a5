package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("user blocked")
	ErrEmailTaken         = user.ErrEmailTaken
)

// Accounts ties registration and login to the session lifecycle.
type Accounts struct {
	users      UserRepository
	sessions   *SessionManager
	hasher     PasswordHasher
	activities ActivityLogger
	log        *slog.Logger

	now func() time.Time
}

func NewAccounts(users UserRepository, sessions *SessionManager, hasher PasswordHasher, activities ActivityLogger, log *slog.Logger) *Accounts {
	if log == nil {
		log = slog.Default()
	}

	return &Accounts{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		activities: activities,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (a *Accounts) Register(ctx context.Context, in RegisterInput) (user.User, session.Session, error) {
	email := user.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return user.User{}, session.Session{}, ErrInvalidCredentials
	}

	_, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		return user.User{}, session.Session{}, ErrEmailTaken
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, session.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return user.User{}, session.Session{}, err
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		Status:       user.StatusActive,
		CreatedAt:    a.now(),
	}
	if in.Name != "" {
		name := in.Name
		u.Name = &name
	}

	// the unique index still catches a racing signup for the same email
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, session.Session{}, ErrEmailTaken
		}
		return user.User{}, session.Session{}, fmt.Errorf("create user: %w", err)
	}

	a.record(ctx, u.ID, activity.TypeSignup, "User registered")

	s, err := a.sessions.Create(ctx, u.ID)
	if err != nil {
		return user.User{}, session.Session{}, err
	}

	return u, s, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string) (user.User, session.Session, error) {
	u, err := a.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, session.Session{}, ErrInvalidCredentials
		}
		return user.User{}, session.Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if !a.hasher.Verify(password, u.PasswordHash) {
		return user.User{}, session.Session{}, ErrInvalidCredentials
	}

	if !u.IsActive() {
		return user.User{}, session.Session{}, ErrUserBlocked
	}

	s, err := a.sessions.Create(ctx, u.ID)
	if err != nil {
		return user.User{}, session.Session{}, err
	}

	return u, s, nil
}

func (a *Accounts) Logout(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

// CurrentUser resolves a session id to its active owner, or nil when unauthenticated.
func (a *Accounts) CurrentUser(ctx context.Context, sessionID string) (*user.User, error) {
	s, err := a.sessions.Get(ctx, sessionID)
	if err != nil || s == nil {
		return nil, err
	}

	u, err := a.users.GetByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup session owner: %w", err)
	}

	if !u.IsActive() {
		return nil, nil
	}

	return &u, nil
}

func (a *Accounts) record(ctx context.Context, userID string, typ activity.Type, details string) {
	if a.activities == nil {
		return
	}

	err := a.activities.Log(ctx, activity.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Details:   details,
		Timestamp: a.now(),
	})
	if err != nil {
		a.log.WarnContext(ctx, "record activity failed", "user_id", userID, "type", typ, "err", err)
	}
}
