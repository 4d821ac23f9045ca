package schema

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaprecord/pkg/inflect"
)

// RelationKind identifies one of the four relation variants.
type RelationKind string

const (
	// BelongsTo is an owning one-to-one / many-to-one: this table holds the key.
	BelongsTo RelationKind = "belongsTo"
	// HasOne is an owned one-to-one: the related table holds the key.
	HasOne RelationKind = "hasOne"
	// HasMany is a one-to-many: the related table holds the key.
	HasMany RelationKind = "hasMany"
	// BelongsToMany is a many-to-many through a join table.
	BelongsToMany RelationKind = "belongsToMany"
)

// ParseRelationKind accepts "belongsTo", "belongs_to", "belongs-to" and so on.
func ParseRelationKind(s string) (RelationKind, error) {
	switch inflect.Underscore(s) {
	case "belongs_to":
		return BelongsTo, nil
	case "has_one":
		return HasOne, nil
	case "has_many":
		return HasMany, nil
	case "belongs_to_many":
		return BelongsToMany, nil
	default:
		return "", fmt.Errorf("unknown relation kind: %s", s)
	}
}

// RelationSpec declares a named relation of an entity type. Empty key fields
// are filled with the engine defaults when the relation is constructed.
type RelationSpec struct {
	Name      string       `koanf:"name"`
	Kind      RelationKind `koanf:"kind"`
	Type      string       `koanf:"type"`
	Key       string       `koanf:"key"`
	OtherKey  string       `koanf:"other_key"`
	JoinTable string       `koanf:"join_table"`
}

func (r RelationSpec) normalize() (RelationSpec, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	if r.Name == "" {
		return r, fmt.Errorf("relation with empty name")
	}
	if r.Type == "" {
		return r, fmt.Errorf("relation %q: related type is required", r.Name)
	}
	kind, err := ParseRelationKind(string(r.Kind))
	if err != nil {
		return r, fmt.Errorf("relation %q: %w", r.Name, err)
	}
	r.Kind = kind
	return r, nil
}
