package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == pgUniqueViolation {
		return constraintName == "" || pgxErr.ConstraintName == constraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	// sqlite reports "UNIQUE constraint failed: table.column"
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
