// Package schema defines the Entity Descriptor: the immutable metadata the
// record engine needs about one entity type (table, primary key, ordered
// fields, serialized fields and declared relations).
//
// Descriptors are built from a Spec, either written in Go, decoded from a
// YAML file (LoadFile, LoadDir) or derived from struct tags (FromStruct).
package schema

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/inflect"
)

// KeyStrategy says where primary-key values come from on INSERT.
type KeyStrategy string

const (
	// KeyAuto lets the database assign the key (autoincrement / serial).
	KeyAuto KeyStrategy = "auto"
	// KeyUUID generates a random UUID client-side before INSERT.
	KeyUUID KeyStrategy = "uuid"
	// KeyULID generates a lexically sortable ULID client-side before INSERT.
	KeyULID KeyStrategy = "ulid"
	// KeyManual expects the caller to set the key before INSERT.
	KeyManual KeyStrategy = "manual"
)

// Spec is the declarative input for a Descriptor.
type Spec struct {
	Type        string         `koanf:"type"`
	Table       string         `koanf:"table"`
	PrimaryKey  string         `koanf:"primary_key"`
	KeyStrategy KeyStrategy    `koanf:"key_strategy"`
	Fields      []Field        `koanf:"fields"`
	Relations   []RelationSpec `koanf:"relations"`
}

// Descriptor is the schema metadata of one entity type. It is read-only
// once built and safe to share between goroutines.
type Descriptor struct {
	typeName    string
	table       string
	primaryKey  string
	keyStrategy KeyStrategy
	fields      []Field
	index       map[string]int
	serialized  map[string]struct{}
	relations   []RelationSpec
	relIndex    map[string]int
}

// New validates a Spec and builds a Descriptor.
//
// Defaults: table is the tableized type name, primary key is "id", key
// strategy is KeyAuto. Field names are canonicalized to snake_case. A primary
// key that is not listed among the fields is prepended as an int field.
func New(spec Spec) (*Descriptor, error) {
	typeName := strings.TrimSpace(spec.Type)
	if typeName == "" {
		return nil, fmt.Errorf("entity type name is required")
	}

	d := &Descriptor{
		typeName:    typeName,
		table:       strings.TrimSpace(spec.Table),
		primaryKey:  inflect.Underscore(spec.PrimaryKey),
		keyStrategy: spec.KeyStrategy,
		index:       make(map[string]int, len(spec.Fields)+1),
		serialized:  make(map[string]struct{}),
		relIndex:    make(map[string]int, len(spec.Relations)),
	}
	if d.table == "" {
		d.table = inflect.Tableize(typeName)
	}
	if d.primaryKey == "" {
		d.primaryKey = "id"
	}
	switch d.keyStrategy {
	case "":
		d.keyStrategy = KeyAuto
	case KeyAuto, KeyUUID, KeyULID, KeyManual:
	default:
		return nil, fmt.Errorf("%s: unknown key strategy %q", typeName, spec.KeyStrategy)
	}

	for _, f := range spec.Fields {
		f.Name = inflect.Underscore(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("%s: field with empty name", typeName)
		}
		if _, dup := d.index[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q", typeName, f.Name)
		}
		ft, err := ParseFieldType(string(f.Type))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", typeName, f.Name, err)
		}
		f.Type = ft
		d.index[f.Name] = len(d.fields)
		d.fields = append(d.fields, f)
		if f.Serialized {
			d.serialized[f.Name] = struct{}{}
		}
	}

	if _, ok := d.index[d.primaryKey]; !ok {
		pkType := TypeInt
		if d.keyStrategy.Generated() {
			pkType = TypeString
		}
		d.fields = append([]Field{{Name: d.primaryKey, Type: pkType}}, d.fields...)
		for name := range d.index {
			d.index[name]++
		}
		d.index[d.primaryKey] = 0
	}
	if _, ok := d.serialized[d.primaryKey]; ok {
		return nil, fmt.Errorf("%s: primary key %q cannot be serialized", typeName, d.primaryKey)
	}

	for _, r := range spec.Relations {
		rel, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", typeName, err)
		}
		if _, dup := d.relIndex[rel.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate relation %q", typeName, rel.Name)
		}
		if _, clash := d.index[inflect.Underscore(rel.Name)]; clash {
			return nil, fmt.Errorf("%s: relation %q shadows a field", typeName, rel.Name)
		}
		d.relIndex[rel.Name] = len(d.relations)
		d.relations = append(d.relations, rel)
	}

	return d, nil
}

// MustNew is like New but panics on error. Intended for package-level
// descriptors written in Go.
func MustNew(spec Spec) *Descriptor {
	d, err := New(spec)
	if err != nil {
		panic(err)
	}
	return d
}

// TypeName returns the entity type name (e.g. "Post").
func (d *Descriptor) TypeName() string { return d.typeName }

// Table returns the backing table name.
func (d *Descriptor) Table() string { return d.table }

// PrimaryKey returns the primary-key field name.
func (d *Descriptor) PrimaryKey() string { return d.primaryKey }

// Generated reports whether the key is a string generated client-side.
func (k KeyStrategy) Generated() bool {
	return k == KeyUUID || k == KeyULID
}

// KeyStrategy returns how primary keys are assigned.
func (d *Descriptor) KeyStrategy() KeyStrategy { return d.keyStrategy }

// Fields returns the fields in declaration order.
func (d *Descriptor) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// FieldNames returns the field names in declaration order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by its canonical name.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// HasField reports whether name is a declared field.
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.index[name]
	return ok
}

// IsSerialized reports whether the field is stored in opaque serialized form.
func (d *Descriptor) IsSerialized(name string) bool {
	_, ok := d.serialized[name]
	return ok
}

// Serialized returns the serialized field names in declaration order.
func (d *Descriptor) Serialized() []string {
	var names []string
	for _, f := range d.fields {
		if f.Serialized {
			names = append(names, f.Name)
		}
	}
	return names
}

// Relations returns the declared relations in declaration order.
func (d *Descriptor) Relations() []RelationSpec {
	out := make([]RelationSpec, len(d.relations))
	copy(out, d.relations)
	return out
}

// Relation looks up a declared relation by name.
func (d *Descriptor) Relation(name string) (RelationSpec, bool) {
	i, ok := d.relIndex[name]
	if !ok {
		return RelationSpec{}, false
	}
	return d.relations[i], true
}

// ParamType infers the bind type of a column value. Declared fields use
// their field type; serialized fields bind as text; nil binds as NULL.
// Undeclared columns fall back to the Go type of the value.
func (d *Descriptor) ParamType(column string, value any) core.ParamType {
	if value == nil {
		return core.ParamNull
	}
	if f, ok := d.Field(column); ok {
		if f.Serialized {
			if _, isBytes := value.([]byte); isBytes {
				return core.ParamBytes
			}
			return core.ParamString
		}
		return f.Type.ParamType()
	}
	return ParamTypeOf(value)
}

// ParamTypes infers bind types for every assignment.
func (d *Descriptor) ParamTypes(values core.Assignments) core.ParamTypes {
	types := make(core.ParamTypes, len(values))
	for _, v := range values {
		types[v.Column] = d.ParamType(v.Column, v.Value)
	}
	return types
}
