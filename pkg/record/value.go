package record

// Value is the result of a by-name read. An absent Value means the name is
// unknown, unset or resolved to nothing.
type Value struct {
	v       any
	present bool
}

func present(v any) Value { return Value{v: v, present: true} }

// Present reports whether the read produced a value.
func (v Value) Present() bool { return v.present }

// Any returns the raw value, nil when absent.
func (v Value) Any() any { return v.v }

// Entity returns the value as a single related entity.
func (v Value) Entity() (*Entity, bool) {
	e, ok := v.v.(*Entity)
	return e, ok && e != nil
}

// Entities returns the value as a list of related entities.
func (v Value) Entities() ([]*Entity, bool) {
	es, ok := v.v.([]*Entity)
	return es, ok
}

// As returns the named field of e as a T. It reports false when the field
// is unset or holds another type.
func As[T any](e *Entity, name string) (T, bool) {
	var zero T
	raw, ok := e.Attr(name)
	if !ok {
		return zero, false
	}
	t, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
