package record

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/inflect"
)

// memoPrefix namespaces relation results in the computed-value memo.
const memoPrefix = "__get_"

// Entity is one row of a model's table. Entities are not safe for
// concurrent use.
type Entity struct {
	model   *Model
	attrs   map[string]any
	isNew   bool
	isDirty bool

	// relations holds handles keyed by "<kind>_<RelatedType>".
	relations map[string]Relation
	// memo holds resolved relation values and Remember results.
	memo map[string]Value
}

func (e *Entity) resetCaches() {
	e.relations = make(map[string]Relation)
	e.memo = make(map[string]Value)
}

// hydrate replaces the attribute store with the declared fields of row.
// Keys that already name a field win over other spellings of it; among
// other spellings the lexically last key wins.
func (e *Entity) hydrate(row core.Row) {
	e.attrs = make(map[string]any, len(row))
	desc := e.model.desc

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	exact := make(map[string]bool, len(keys))
	for _, key := range keys {
		field := inflect.Underscore(key)
		if !desc.HasField(field) || exact[field] {
			continue
		}
		e.attrs[field] = row[key]
		exact[field] = key == field
	}
}

// storedEmpty reports whether a stored serialized value holds nothing to
// decode.
func storedEmpty(v any) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case string:
		return tv == ""
	case []byte:
		return len(tv) == 0
	}
	return false
}

// initObject sets the new flag, decodes serialized fields of persisted rows
// and runs the AfterLoad hook.
func (e *Entity) initObject(isNew bool) {
	e.isNew = isNew
	if !isNew {
		for _, field := range e.model.desc.Serialized() {
			raw, ok := e.attrs[field]
			if !ok || storedEmpty(raw) {
				continue
			}
			decoded, err := e.model.codec.Decode(raw)
			if err != nil {
				e.model.logger.Warn("keeping undecodable serialized field",
					slog.String("field", field), slog.String("error", err.Error()))
				continue
			}
			e.attrs[field] = decoded
		}
	}
	e.model.hooks.afterLoad(e)
}

// Model returns the entity's model.
func (e *Entity) Model() *Model { return e.model }

// IsNew reports whether the entity has no persisted row.
func (e *Entity) IsNew() bool { return e.isNew }

// IsDirty reports whether an attribute was written since the last update.
func (e *Entity) IsDirty() bool { return e.isDirty }

// PrimaryKey returns the current primary-key value (nil when unset).
func (e *Entity) PrimaryKey() any { return e.attrs[e.model.desc.PrimaryKey()] }

// Attributes returns a copy of the attribute store.
func (e *Entity) Attributes() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// Attr returns the value of a declared field.
func (e *Entity) Attr(name string) (any, bool) {
	v, ok := e.attrs[inflect.Underscore(name)]
	return v, ok
}

// Get reads a name: a declared field, then a memoized value, then (for
// persisted entities) a declared relation, resolved once and memoized.
// Unknown names yield an absent Value; only a failed relation query is an
// error.
func (e *Entity) Get(ctx context.Context, name string) (Value, error) {
	if field := inflect.Underscore(name); e.model.desc.HasField(field) {
		v, ok := e.attrs[field]
		if !ok {
			return Value{}, nil
		}
		return present(v), nil
	}

	token := memoPrefix + name
	if v, ok := e.memo[token]; ok {
		return v, nil
	}

	if e.isNew {
		return Value{}, nil
	}
	acc, ok := e.model.accessor(name)
	if !ok {
		return Value{}, nil
	}

	rel := acc(e)
	kind, related := rel.Describe()
	e.model.logger.Debug("resolving relation",
		slog.String("relation", name), slog.String("kind", string(kind)), slog.String("related", related))

	v, err := rel.Resolve(ctx)
	if err != nil {
		return Value{}, fmt.Errorf("failed to resolve %s.%s: %w", e.model.Name(), name, err)
	}
	e.memo[token] = v
	return v, nil
}

// Remember memoizes compute under name so later Get calls return it
// without recomputing. The memo is cleared only by Reload.
func (e *Entity) Remember(name string, compute func() any) Value {
	token := memoPrefix + name
	if v, ok := e.memo[token]; ok {
		return v
	}
	v := present(compute())
	e.memo[token] = v
	return v
}

// Set writes a declared field and marks the entity dirty, even when the
// value is unchanged. Writes to undeclared names are dropped.
func (e *Entity) Set(name string, value any) {
	field := inflect.Underscore(name)
	if !e.model.desc.HasField(field) {
		e.model.logger.Debug("dropping write to undeclared field", slog.String("name", name))
		return
	}
	e.attrs[field] = value
	e.isDirty = true
}

// Has reports whether the field holds a non-nil value.
func (e *Entity) Has(name string) bool {
	v, ok := e.attrs[inflect.Underscore(name)]
	return ok && v != nil
}

// Unset removes a field from the attribute store. The dirty flag and the
// relation caches are left alone.
func (e *Entity) Unset(name string) {
	delete(e.attrs, inflect.Underscore(name))
}

// Query starts a finder over the entity's table.
func (e *Entity) Query() *Finder {
	return e.model.Query()
}

// Reload re-reads the row by primary key, replaces the attribute store,
// clears the dirty flag and both caches, and runs AfterLoad.
func (e *Entity) Reload(ctx context.Context) error {
	if e.isNew {
		return ErrNewEntity
	}
	row, err := e.model.Query().b.Where(eqKey(e.model, e.PrimaryKey())).First(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload %s #%v: %w", e.model.Name(), e.PrimaryKey(), err)
	}
	e.hydrate(row)
	e.isDirty = false
	e.resetCaches()
	e.initObject(false)
	return nil
}
