package core

import "errors"

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database connection not established")

// ErrUniqueViolation is returned when a write breaks a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrNoColumns is returned when an INSERT or UPDATE has nothing to write.
var ErrNoColumns = errors.New("no columns to write")
