package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Bucket code allocation
	ErrCodeUpdateMismatch = errors.New("cannot update retrieved codes")
	ErrRollbackFailed     = errors.New("transaction rollback failed")
	ErrCacheUnavailable   = errors.New("code cache unavailable")
)
