package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNewEntity is returned by operations that need a persisted row.
var ErrNewEntity = errors.New("entity has not been persisted")

// ErrDuplicateModel is returned when a type name is registered twice.
var ErrDuplicateModel = errors.New("model already registered")

// UnknownModelError is returned when a relation or lookup names a type that
// was never registered.
type UnknownModelError struct {
	Type      string
	Available []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q (registered: %s)", e.Type, strings.Join(e.Available, ", "))
}
