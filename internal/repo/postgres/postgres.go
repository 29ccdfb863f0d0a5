package postgres

import (
	"errors"

	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

func observe(prom *observability.Prom, op string, fn func() error) error {
	if prom != nil {
		return prom.ObserveDB(op, fn)
	}
	return fn()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
