package record

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaprecord/pkg/core"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
	"github.com/oklog/ulid/v2"
)

// Op names the statement a persistence call issued.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Result reports what Save or Delete did. The zero Result means nothing was
// issued: a hook refused, or there was nothing to persist.
type Result struct {
	Op           Op
	ID           any
	RowsAffected int64
}

// OK reports whether a statement was issued.
func (r Result) OK() bool { return r.Op != "" }

// Save persists the entity: INSERT when new, UPDATE keyed by the current
// primary key when dirty, nothing otherwise. On failure the new and dirty
// flags are left untouched so the call can be retried.
func (e *Entity) Save(ctx context.Context) (Result, error) {
	m := e.model
	if !m.hooks.beforeSave(e) {
		m.logger.Debug("save refused by hook")
		return Result{}, nil
	}

	values, err := e.columnValues()
	if err != nil {
		return Result{}, err
	}
	desc := m.desc
	db := m.reg.db

	switch {
	case e.isNew:
		pk := desc.PrimaryKey()
		switch desc.KeyStrategy() {
		case schema.KeyUUID, schema.KeyULID:
			id := e.attrs[pk]
			if id == nil {
				id = newKey(desc.KeyStrategy())
			}
			values = core.Assignments{{Column: pk, Value: id}}.Concat(values)
		case schema.KeyManual:
			if id, ok := e.attrs[pk]; ok && id != nil {
				values = core.Assignments{{Column: pk, Value: id}}.Concat(values)
			}
		}

		id, err := db.Insert(ctx, desc.Table(), pk, values, desc.ParamTypes(values))
		if err != nil {
			return Result{}, fmt.Errorf("failed to insert %s: %w", m.Name(), err)
		}
		e.isNew = false
		e.attrs[pk] = id
		m.logger.Debug("inserted", slog.Any("id", id))
		return Result{Op: OpInsert, ID: id}, nil

	case e.isDirty:
		where := core.Assignments{{Column: desc.PrimaryKey(), Value: e.PrimaryKey()}}
		types := desc.ParamTypes(values.Concat(where))

		n, err := db.Update(ctx, desc.Table(), values, where, types)
		if err != nil {
			return Result{}, fmt.Errorf("failed to update %s #%v: %w", m.Name(), e.PrimaryKey(), err)
		}
		e.isDirty = false
		m.logger.Debug("updated", slog.Any("id", e.PrimaryKey()), slog.Int64("rows", n))
		return Result{Op: OpUpdate, RowsAffected: n}, nil

	default:
		return Result{}, nil
	}
}

// Delete removes the entity's row. It is a no-op for new entities and when
// the BeforeDelete hook refuses. Once the statement has been issued the
// entity is marked new, whether or not a row was affected or the call failed.
func (e *Entity) Delete(ctx context.Context) (Result, error) {
	m := e.model
	if e.isNew || !m.hooks.beforeDelete(e) {
		return Result{}, nil
	}

	desc := m.desc
	where := core.Assignments{{Column: desc.PrimaryKey(), Value: e.PrimaryKey()}}
	n, err := m.reg.db.Delete(ctx, desc.Table(), where, desc.ParamTypes(where))
	e.isNew = true
	if err != nil {
		return Result{}, fmt.Errorf("failed to delete %s #%v: %w", m.Name(), e.PrimaryKey(), err)
	}
	m.logger.Debug("deleted", slog.Any("id", e.PrimaryKey()), slog.Int64("rows", n))
	return Result{Op: OpDelete, RowsAffected: n}, nil
}

// columnValues collects every declared non-key field present in the
// attribute store, in descriptor order. Serialized fields holding a non-nil
// value are encoded with the model codec.
func (e *Entity) columnValues() (core.Assignments, error) {
	desc := e.model.desc
	pk := desc.PrimaryKey()

	var values core.Assignments
	for _, field := range desc.FieldNames() {
		if field == pk {
			continue
		}
		v, ok := e.attrs[field]
		if !ok {
			continue
		}
		if desc.IsSerialized(field) && v != nil {
			encoded, err := e.model.codec.Encode(v)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize %s.%s: %w", e.model.Name(), field, err)
			}
			v = encoded
		}
		values = append(values, core.Assignment{Column: field, Value: v})
	}
	return values, nil
}

// newKey generates a client-side primary key.
func newKey(strategy schema.KeyStrategy) string {
	if strategy == schema.KeyULID {
		return ulid.Make().String()
	}
	return uuid.NewString()
}
