package record

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/leapstack-labs/leaprecord/pkg/inflect"
)

// String renders the entity for debugging:
//
//	Post #1
//		Id: 1
//		Title: Hello
//
//		belongsTo: User
//
// A new entity whose fields are all empty renders as "".
func (e *Entity) String() string {
	desc := e.model.desc
	fields := desc.FieldNames()

	if e.isNew {
		empty := true
		for _, f := range fields {
			if !isEmpty(e.attrs[f]) {
				empty = false
				break
			}
		}
		if empty {
			return ""
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s #%s\n", e.model.Name(), e.render(desc.PrimaryKey()))
	for _, f := range fields {
		fmt.Fprintf(&sb, "\t%s: %s\n", inflect.Classify(f), e.render(f))
	}

	if names := e.model.relationNames; len(names) > 0 {
		sb.WriteString("\t\n")
		for _, name := range names {
			acc, _ := e.model.accessor(name)
			kind, related := acc(e).Describe()
			fmt.Fprintf(&sb, "\t%s: %s\n", kind, related)
		}
	}
	return sb.String()
}

func (e *Entity) render(field string) string {
	v := e.attrs[field]
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case []byte:
		return string(tv)
	case bool:
		if tv {
			return "1"
		}
		return ""
	case time.Time:
		return tv.Format(time.RFC3339)
	}
	if e.model.desc.IsSerialized(field) {
		if s, err := e.model.codec.Encode(v); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return fmt.Sprint(v)
}

// isEmpty follows the loose notion of emptiness used for serialized fields
// and the dump: nil, zero scalars, "0" and empty containers.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch tv := v.(type) {
	case string:
		return tv == "" || tv == "0"
	case bool:
		return !tv
	case time.Time:
		return tv.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}
