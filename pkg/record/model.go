package record

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/codec"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/inflect"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
)

// Accessor builds the relation handle behind a declared relation name,
// typically by calling one of the Entity relation constructors.
type Accessor func(e *Entity) Relation

// Model is the type-level side of an entity: descriptor, hooks, codec and
// relation accessors. Models are created by Registry.Register and are
// read-only afterwards except for Relate.
type Model struct {
	reg    *Registry
	desc   *schema.Descriptor
	hooks  Hooks
	codec  codec.Codec
	logger *slog.Logger

	relationNames []string
	accessors     map[string]Accessor
}

// ModelOption configures a model at registration.
type ModelOption func(*Model)

// WithHooks sets the lifecycle hooks.
func WithHooks(h Hooks) ModelOption {
	return func(m *Model) { m.hooks = h }
}

// WithCodec sets the codec used for serialized fields.
func WithCodec(c codec.Codec) ModelOption {
	return func(m *Model) {
		if c != nil {
			m.codec = c
		}
	}
}

func newModel(reg *Registry, desc *schema.Descriptor) *Model {
	m := &Model{
		reg:       reg,
		desc:      desc,
		codec:     codec.Default,
		logger:    reg.logger.With(slog.String("model", desc.TypeName())),
		accessors: make(map[string]Accessor),
	}
	for _, rel := range desc.Relations() {
		m.declare(rel.Name, specAccessor(rel))
	}
	return m
}

// specAccessor turns a descriptor relation declaration into an accessor.
func specAccessor(rel schema.RelationSpec) Accessor {
	switch rel.Kind {
	case schema.BelongsTo:
		return func(e *Entity) Relation { return e.BelongsTo(rel.Type, rel.Key) }
	case schema.HasOne:
		return func(e *Entity) Relation { return e.HasOne(rel.Type, rel.Key) }
	case schema.HasMany:
		return func(e *Entity) Relation { return e.HasMany(rel.Type, rel.Key) }
	default:
		return func(e *Entity) Relation { return e.BelongsToMany(rel.Type, rel.JoinTable, rel.Key, rel.OtherKey) }
	}
}

func (m *Model) declare(name string, acc Accessor) {
	if _, ok := m.accessors[name]; !ok {
		m.relationNames = append(m.relationNames, name)
	}
	m.accessors[name] = acc
}

// Relate declares a relation name served by acc. Declaring a name that the
// descriptor already holds replaces its accessor.
func (m *Model) Relate(name string, acc Accessor) *Model {
	m.declare(name, acc)
	return m
}

// Relations returns the declared relation names in declaration order.
func (m *Model) Relations() []string {
	return append([]string(nil), m.relationNames...)
}

func (m *Model) accessor(name string) (Accessor, bool) {
	acc, ok := m.accessors[name]
	return acc, ok
}

// Name returns the entity type name.
func (m *Model) Name() string { return m.desc.TypeName() }

// Descriptor returns the schema metadata.
func (m *Model) Descriptor() *schema.Descriptor { return m.desc }

// Codec returns the codec used for serialized fields.
func (m *Model) Codec() codec.Codec { return m.codec }

// Registry returns the registry the model belongs to.
func (m *Model) Registry() *Registry { return m.reg }

// New returns an empty new entity.
func (m *Model) New() *Entity {
	return m.FromRow(nil, true)
}

// FromRow builds an entity from a raw row. Keys are canonicalized and keys
// that are not declared fields are dropped. When isNew is false the row is
// treated as persisted and serialized fields are decoded in place.
func (m *Model) FromRow(row core.Row, isNew bool) *Entity {
	e := &Entity{model: m}
	e.resetCaches()
	e.hydrate(row)
	e.initObject(isNew)
	return e
}

// FromStruct builds an entity from the exported fields of a struct (or a
// pointer to one). Column names follow the `db` tag, defaulting to the
// snake_case field name; `db:"-"` and `rel` fields are skipped.
func (m *Model) FromStruct(v any, isNew bool) (*Entity, error) {
	row, err := structRow(v)
	if err != nil {
		return nil, err
	}
	return m.FromRow(row, isNew), nil
}

// Query starts a finder over the model's table.
func (m *Model) Query() *Finder {
	return newFinder(m)
}

// Find loads the entity with the given primary key.
func (m *Model) Find(ctx context.Context, id any) (*Entity, error) {
	return m.Query().Find(ctx, id)
}

func structRow(v any) (core.Row, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("FromStruct: nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("FromStruct: expected struct, got %T", v)
	}

	rt := rv.Type()
	row := make(core.Row, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if _, isRel := sf.Tag.Lookup("rel"); isRel {
			continue
		}
		tag := sf.Tag.Get("db")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = inflect.Underscore(sf.Name)
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				row[name] = nil
				continue
			}
			fv = fv.Elem()
		}
		row[name] = fv.Interface()
	}
	return row, nil
}
