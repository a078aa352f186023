package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pharmacy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL error codes that mean "another transaction got there first"
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// IsConflict reports whether err is a transient concurrency failure that a retry may resolve
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgUniqueViolation:
			return true
		}
	}
	return false
}

// classify rewrites storage conflicts as shared.ErrConcurrencyConflict and leaves everything else untouched
func classify(err error) error {
	if err == nil || errors.Is(err, shared.ErrConcurrencyConflict) || !IsConflict(err) {
		return err
	}
	return fmt.Errorf("%w: %w", shared.ErrConcurrencyConflict, err)
}
