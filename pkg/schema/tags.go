package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/leapstack-labs/leaprecord/pkg/inflect"
)

// Tabler lets a struct override its table name in FromStruct.
type Tabler interface {
	TableName() string
}

// FromStruct derives a descriptor from a struct's fields and tags.
//
//	type Post struct {
//		ID       int64          `db:"id,pk"`
//		Title    string         `db:"title"`
//		Meta     map[string]any `db:"meta"`          // json, serialized
//		Secret   string         `db:"-"`
//		Author   *User          `rel:"belongsTo,key=author_id"`
//		Comments []Comment      `rel:"hasMany"`
//	}
//
// Column names default to the snake_case field name. Maps, slices and
// structs other than time.Time become serialized json fields. Pointer
// fields are nullable. The "uuid" and "manual" db options set the key
// strategy of the pk field.
func FromStruct(v any) (*Descriptor, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("FromStruct: expected struct, got %T", v)
	}

	spec := Spec{Type: t.Name()}
	if tb, ok := v.(Tabler); ok {
		spec.Table = tb.TableName()
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("rel"); ok {
			rel, err := parseRelTag(sf, tag)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
			}
			spec.Relations = append(spec.Relations, rel)
			continue
		}

		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			name = inflect.Underscore(sf.Name)
		}

		field := fieldFromGoType(name, sf.Type)
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "pk":
				spec.PrimaryKey = name
			case "uuid":
				spec.PrimaryKey = name
				spec.KeyStrategy = KeyUUID
			case "ulid":
				spec.PrimaryKey = name
				spec.KeyStrategy = KeyULID
			case "manual":
				spec.PrimaryKey = name
				spec.KeyStrategy = KeyManual
			case "serialized":
				field.Serialized = true
			case "nullable":
				field.Nullable = true
			case "":
			default:
				return nil, fmt.Errorf("%s.%s: unknown db tag option %q", t.Name(), sf.Name, opt)
			}
		}
		spec.Fields = append(spec.Fields, field)
	}

	return New(spec)
}

var timeType = reflect.TypeOf(time.Time{})

func fieldFromGoType(name string, t reflect.Type) Field {
	f := Field{Name: name}
	if t.Kind() == reflect.Pointer {
		f.Nullable = true
		t = t.Elem()
	}

	switch {
	case t == timeType:
		f.Type = TypeTime
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		f.Type = TypeBytes
	case t.Kind() == reflect.Map, t.Kind() == reflect.Slice, t.Kind() == reflect.Struct:
		f.Type = TypeJSON
		f.Serialized = true
	case t.Kind() == reflect.Bool:
		f.Type = TypeBool
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Uint64:
		f.Type = TypeInt
	case t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64:
		f.Type = TypeFloat
	default:
		f.Type = TypeString
	}
	return f
}

// parseRelTag reads `rel:"kind[,type=X][,key=k][,other_key=k][,join_table=t]"`.
// The related type defaults to the field's element type name.
func parseRelTag(sf reflect.StructField, tag string) (RelationSpec, error) {
	parts := strings.Split(tag, ",")
	kind, err := ParseRelationKind(strings.TrimSpace(parts[0]))
	if err != nil {
		return RelationSpec{}, err
	}
	rel := RelationSpec{
		Name: inflect.Underscore(sf.Name),
		Kind: kind,
		Type: elemTypeName(sf.Type),
	}
	for _, opt := range parts[1:] {
		key, val, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if !ok {
			return RelationSpec{}, fmt.Errorf("malformed rel option %q", opt)
		}
		switch key {
		case "type":
			rel.Type = val
		case "key":
			rel.Key = val
		case "other_key":
			rel.OtherKey = val
		case "join_table":
			rel.JoinTable = val
		default:
			return RelationSpec{}, fmt.Errorf("unknown rel option %q", key)
		}
	}
	return rel, nil
}

func elemTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	return t.Name()
}
