package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewSessionsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SessionsRepo {
	return &SessionsRepo{pool: pool, prom: prom}
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	return observe(r.prom, "sessions.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1,$2,$3)`,
			s.ID, s.UserID, s.ExpiresAt,
		)
		return err
	})
}

// GetByID treats ids that are not UUIDs as unknown instead of letting the cast fail.
func (r *SessionsRepo) GetByID(ctx context.Context, id string) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}

	var s session.Session
	err := observe(r.prom, "sessions.get_by_id", func() error {
		return pgxscan.Get(ctx, r.pool, &s,
			`SELECT id::text AS id, user_id, expires_at FROM sessions WHERE id = $1`, id)
	})
	if err != nil {
		if pgxscan.NotFound(err) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	return s, nil
}

func (r *SessionsRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	var n int64
	err := observe(r.prom, "sessions.delete_by_id", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
		n = tag.RowsAffected()
		return err
	})

	return n, err
}

func (r *SessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := observe(r.prom, "sessions.delete_expired", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
		n = tag.RowsAffected()
		return err
	})

	return n, err
}
