package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

// ErrorMap translates driver errors into a domain's sentinel errors.
// A nil target leaves that class of error unmapped.
type ErrorMap struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map returns the domain error for err, or err itself when nothing matches.
// Constraint violations keep the constraint name in the message.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
		return constraint(m.Duplicate, pgErr)
	case (pgErr.Code == pgCheckViolation || pgErr.Code == pgNotNullViolation) && m.Invalid != nil:
		return constraint(m.Invalid, pgErr)
	}
	return err
}

func constraint(target error, pgErr *pgconn.PgError) error {
	name := pgErr.ConstraintName
	if name == "" {
		name = pgErr.ColumnName
	}
	if name == "" {
		return target
	}
	return fmt.Errorf("%w (%s)", target, name)
}
