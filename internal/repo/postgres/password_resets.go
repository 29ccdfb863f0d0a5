package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/passwordreset"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateResetToken = errors.New("reset token already exists")

type PasswordResetsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPasswordResetsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PasswordResetsRepo {
	return &PasswordResetsRepo{pool: pool, prom: prom}
}

func (r *PasswordResetsRepo) Create(ctx context.Context, t passwordreset.Token) error {
	err := observe(r.prom, "password_resets.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO password_resets (id, user_id, token, expires_at, used)
			VALUES ($1,$2,$3,$4,$5)`,
			t.ID, t.UserID, t.Token, t.ExpiresAt, t.Used,
		)
		return err
	})

	if isUniqueViolation(err) {
		return ErrDuplicateResetToken
	}

	return err
}

// Redeem claims the token with a conditional update so that concurrent callers
// serialize on the row lock and only one of them sees used = false.
func (r *PasswordResetsRepo) Redeem(ctx context.Context, token string, now time.Time, newHash func() (string, error)) (ok bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}

	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback(ctx)
		}
	}()

	var userID string
	err = observe(r.prom, "password_resets.claim", func() error {
		return tx.QueryRow(ctx, `
			UPDATE password_resets
			SET used = TRUE
			WHERE token = $1 AND used = FALSE AND expires_at > $2
			RETURNING user_id
		`, token, now).Scan(&userID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	hash, err := newHash()
	if err != nil {
		return false, fmt.Errorf("hash new password: %w", err)
	}

	var updated int64
	err = observe(r.prom, "password_resets.set_password", func() error {
		tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, hash)
		updated = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	if updated == 0 {
		return false, nil
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}

	return true, nil
}
