package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrUnsupportedDriver is returned for a DATABASE_DRIVER with no registered dialector.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrInvalidConnection is returned when a connection is missing its key fields.
	ErrInvalidConnection = errors.New("connection requires user id, provider and provider user id")
)
