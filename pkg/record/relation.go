package record

import (
	"context"
	"errors"

	"github.com/leapstack-labs/leaprecord/pkg/inflect"
	"github.com/leapstack-labs/leaprecord/pkg/query"
	"github.com/leapstack-labs/leaprecord/pkg/schema"
)

// Relation is a lazily resolved link from an owning entity to related
// entities.
type Relation interface {
	// Resolve runs the relation query. Single-valued relations yield a
	// *Entity (absent when nothing matches), many-valued ones a []*Entity.
	Resolve(ctx context.Context) (Value, error)
	// Describe returns the relation kind and the related type name.
	Describe() (schema.RelationKind, string)
}

// BelongsTo returns the handle for a relation whose key lives on e.
// otherKey defaults to the related table's foreign key ("user_id" for User).
// The first call for a related type wins; later calls return the cached
// handle whatever their arguments.
func (e *Entity) BelongsTo(related, otherKey string) Relation {
	return e.relation(schema.BelongsTo, related, func() Relation {
		if otherKey == "" {
			otherKey = inflect.ForeignKey(e.tableOf(related))
		}
		return &belongsTo{owner: e, related: related, key: otherKey}
	})
}

// HasOne returns the handle for a one-to-one relation whose key lives on the
// related table. foreignKey defaults to "<singular table>_id" of e's table.
func (e *Entity) HasOne(related, foreignKey string) Relation {
	return e.relation(schema.HasOne, related, func() Relation {
		return &hasOne{owner: e, related: related, key: e.foreignKey(foreignKey)}
	})
}

// HasMany returns the handle for a one-to-many relation whose key lives on
// the related table.
func (e *Entity) HasMany(related, foreignKey string) Relation {
	return e.relation(schema.HasMany, related, func() Relation {
		return &hasMany{owner: e, related: related, key: e.foreignKey(foreignKey)}
	})
}

// BelongsToMany returns the handle for a many-to-many relation through
// joinTable, which defaults to both table names sorted and joined by "_".
// foreignKey references e, otherKey the related entity.
func (e *Entity) BelongsToMany(related, joinTable, foreignKey, otherKey string) Relation {
	return e.relation(schema.BelongsToMany, related, func() Relation {
		relatedTable := e.tableOf(related)
		if joinTable == "" {
			joinTable = inflect.JoinTable(e.model.desc.Table(), relatedTable)
		}
		if otherKey == "" {
			otherKey = inflect.ForeignKey(relatedTable)
		}
		return &belongsToMany{
			owner:     e,
			related:   related,
			joinTable: joinTable,
			key:       e.foreignKey(foreignKey),
			otherKey:  otherKey,
		}
	})
}

func (e *Entity) relation(kind schema.RelationKind, related string, build func() Relation) Relation {
	token := string(kind) + "_" + related
	if rel, ok := e.relations[token]; ok {
		return rel
	}
	rel := build()
	e.relations[token] = rel
	return rel
}

func (e *Entity) foreignKey(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return inflect.ForeignKey(e.model.desc.Table())
}

// tableOf returns the table of a registered type, or the tableized name
// when the type is not registered yet.
func (e *Entity) tableOf(typeName string) string {
	if m, err := e.model.reg.Model(typeName); err == nil {
		return m.desc.Table()
	}
	return inflect.Tableize(typeName)
}

func (e *Entity) relatedModel(typeName string) (*Model, error) {
	return e.model.reg.Model(typeName)
}

// firstOrAbsent maps ErrNotFound to an absent Value.
func firstOrAbsent(ctx context.Context, f *Finder) (Value, error) {
	found, err := f.First(ctx)
	if errors.Is(err, query.ErrNotFound) {
		return Value{}, nil
	}
	if err != nil {
		return Value{}, err
	}
	return present(found), nil
}

type belongsTo struct {
	owner   *Entity
	related string
	key     string
}

func (r *belongsTo) Describe() (schema.RelationKind, string) { return schema.BelongsTo, r.related }

func (r *belongsTo) Resolve(ctx context.Context) (Value, error) {
	m, err := r.owner.relatedModel(r.related)
	if err != nil {
		return Value{}, err
	}
	fk, ok := r.owner.attrs[r.key]
	if !ok || fk == nil {
		return Value{}, nil
	}
	return firstOrAbsent(ctx, m.Query().Where(eqKey(m, fk)))
}

type hasOne struct {
	owner   *Entity
	related string
	key     string
}

func (r *hasOne) Describe() (schema.RelationKind, string) { return schema.HasOne, r.related }

func (r *hasOne) Resolve(ctx context.Context) (Value, error) {
	m, err := r.owner.relatedModel(r.related)
	if err != nil {
		return Value{}, err
	}
	id := r.owner.PrimaryKey()
	if id == nil {
		return Value{}, nil
	}
	return firstOrAbsent(ctx, m.Query().Where(query.Eq(r.key, id)))
}

type hasMany struct {
	owner   *Entity
	related string
	key     string
}

func (r *hasMany) Describe() (schema.RelationKind, string) { return schema.HasMany, r.related }

func (r *hasMany) Resolve(ctx context.Context) (Value, error) {
	m, err := r.owner.relatedModel(r.related)
	if err != nil {
		return Value{}, err
	}
	id := r.owner.PrimaryKey()
	if id == nil {
		return present([]*Entity{}), nil
	}
	all, err := m.Query().Where(query.Eq(r.key, id)).OrderBy(m.desc.PrimaryKey(), query.Asc).All(ctx)
	if err != nil {
		return Value{}, err
	}
	return present(all), nil
}

type belongsToMany struct {
	owner     *Entity
	related   string
	joinTable string
	key       string
	otherKey  string
}

func (r *belongsToMany) Describe() (schema.RelationKind, string) {
	return schema.BelongsToMany, r.related
}

func (r *belongsToMany) Resolve(ctx context.Context) (Value, error) {
	m, err := r.owner.relatedModel(r.related)
	if err != nil {
		return Value{}, err
	}
	id := r.owner.PrimaryKey()
	if id == nil {
		return present([]*Entity{}), nil
	}
	table := m.desc.Table()
	pk := table + "." + m.desc.PrimaryKey()
	all, err := m.Query().
		Join(r.joinTable, r.joinTable+"."+r.otherKey, pk).
		Where(query.Eq(r.joinTable+"."+r.key, id)).
		OrderBy(pk, query.Asc).
		All(ctx)
	if err != nil {
		return Value{}, err
	}
	return present(all), nil
}
