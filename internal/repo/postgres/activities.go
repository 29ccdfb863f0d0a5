package postgres

import (
	"context"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivitiesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewActivitiesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ActivitiesRepo {
	return &ActivitiesRepo{pool: pool, prom: prom}
}

func (r *ActivitiesRepo) Log(ctx context.Context, a activity.Activity) error {
	return observe(r.prom, "activities.log", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO activities (id, user_id, type, target_slug, details, "timestamp")
			VALUES ($1,$2,$3,$4,$5,$6)`,
			a.ID, a.UserID, a.Type, a.TargetSlug, a.Details, a.Timestamp,
		)
		return err
	})
}

// ListByUser returns the newest activities first.
func (r *ActivitiesRepo) ListByUser(ctx context.Context, userID string, limit int) ([]activity.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var out []activity.Activity
	err := observe(r.prom, "activities.list_by_user", func() error {
		return pgxscan.Select(ctx, r.pool, &out, `
			SELECT id, user_id, type, target_slug, details, "timestamp"
			FROM activities
			WHERE user_id = $1
			ORDER BY "timestamp" DESC
			LIMIT $2
		`, userID, limit)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
