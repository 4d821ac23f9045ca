package core

// ParamType is the bind type inferred for a statement parameter.
type ParamType int

const (
	// ParamString binds text.
	ParamString ParamType = iota
	// ParamInt binds a 64-bit integer.
	ParamInt
	// ParamFloat binds a float64.
	ParamFloat
	// ParamBool binds a boolean.
	ParamBool
	// ParamBytes binds a blob.
	ParamBytes
	// ParamTime binds a timestamp.
	ParamTime
	// ParamNull binds SQL NULL.
	ParamNull
)

// String returns the string representation of ParamType.
func (p ParamType) String() string {
	switch p {
	case ParamString:
		return "string"
	case ParamInt:
		return "int"
	case ParamFloat:
		return "float"
	case ParamBool:
		return "bool"
	case ParamBytes:
		return "bytes"
	case ParamTime:
		return "time"
	case ParamNull:
		return "null"
	default:
		return "unknown"
	}
}

// ParamTypes maps a column name to its bind type.
type ParamTypes map[string]ParamType

// Assignment is one column = value pair of a statement.
type Assignment struct {
	Column string
	Value  any
}

// Assignments is an ordered list of column = value pairs.
// Order is preserved so generated SQL is deterministic.
type Assignments []Assignment

// Columns returns the column names in order.
func (a Assignments) Columns() []string {
	cols := make([]string, len(a))
	for i, as := range a {
		cols[i] = as.Column
	}
	return cols
}

// Get returns the value assigned to column.
func (a Assignments) Get(column string) (any, bool) {
	for _, as := range a {
		if as.Column == column {
			return as.Value, true
		}
	}
	return nil, false
}

// Concat returns a new list holding a followed by other.
func (a Assignments) Concat(other Assignments) Assignments {
	out := make(Assignments, 0, len(a)+len(other))
	out = append(out, a...)
	return append(out, other...)
}
