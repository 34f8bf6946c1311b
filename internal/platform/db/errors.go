package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). Service-level duplicate checks race
// against concurrent writers, so repos translate the constraint error
// into a Conflict instead of letting it surface as a 500.
func UniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
