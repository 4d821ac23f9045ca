package query

import "errors"

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("record not found")

// ErrEmptyTable is returned when a builder has no table.
var ErrEmptyTable = errors.New("empty table name")
