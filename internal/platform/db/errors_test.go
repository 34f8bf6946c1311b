package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "idx_staff_username"}

	if !UniqueViolation(dup) {
		t.Error("expected 23505 to be reported as a unique violation")
	}
	if !UniqueViolation(fmt.Errorf("insert staff: %w", dup)) {
		t.Error("expected wrapped 23505 to be reported as a unique violation")
	}
	if UniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation must not match")
	}
	if UniqueViolation(errors.New("connection refused")) {
		t.Error("plain errors must not match")
	}
	if UniqueViolation(nil) {
		t.Error("nil must not match")
	}
}
