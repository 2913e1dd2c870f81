package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = sql.ErrNoRows
	// ErrInvalidID is returned when an identifier does not parse for the backend.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
