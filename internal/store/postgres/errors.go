package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Persistence failure categories. All of them roll back the enclosing
// transaction; callers decide whether the run continues.
var (
	// ErrMalformedRecord marks input that fails normalization (empty
	// username, negative counts) before any SQL runs.
	ErrMalformedRecord = errors.New("malformed profile record")

	// ErrConstraintViolation marks writes the store rejected (integrity
	// class 23xxx).
	ErrConstraintViolation = errors.New("constraint violation")
)

// wrapPersistence attaches the operation and, for server-side integrity
// errors, the constraint-violation sentinel, so operators can tell a bad
// row apart from a lost connection.
func wrapPersistence(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 && pgErr.Code[:2] == "23" {
		return fmt.Errorf("%s: %w: %v", op, ErrConstraintViolation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
