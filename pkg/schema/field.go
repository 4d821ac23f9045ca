package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leaprecord/pkg/core"
)

// FieldType is the abstract storage type of a field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeTime   FieldType = "time"
	TypeBytes  FieldType = "bytes"
	TypeJSON   FieldType = "json"
)

// Field describes a single column of an entity.
type Field struct {
	Name       string    `koanf:"name"`
	Type       FieldType `koanf:"type"`
	Nullable   bool      `koanf:"nullable"`
	Serialized bool      `koanf:"serialized"`
}

var fieldTypeAliases = map[string]FieldType{
	"":          TypeString,
	"string":    TypeString,
	"text":      TypeString,
	"varchar":   TypeString,
	"int":       TypeInt,
	"integer":   TypeInt,
	"bigint":    TypeInt,
	"serial":    TypeInt,
	"float":     TypeFloat,
	"double":    TypeFloat,
	"real":      TypeFloat,
	"numeric":   TypeFloat,
	"decimal":   TypeFloat,
	"bool":      TypeBool,
	"boolean":   TypeBool,
	"time":      TypeTime,
	"timestamp": TypeTime,
	"datetime":  TypeTime,
	"date":      TypeTime,
	"bytes":     TypeBytes,
	"blob":      TypeBytes,
	"bytea":     TypeBytes,
	"json":      TypeJSON,
	"jsonb":     TypeJSON,
}

// ParseFieldType resolves a type name or SQL alias to a FieldType.
// An empty name means TypeString.
func ParseFieldType(s string) (FieldType, error) {
	ft, ok := fieldTypeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown field type: %s", s)
	}
	return ft, nil
}

// ParamType returns the bind type used for values of this field type.
func (t FieldType) ParamType() core.ParamType {
	switch t {
	case TypeInt:
		return core.ParamInt
	case TypeFloat:
		return core.ParamFloat
	case TypeBool:
		return core.ParamBool
	case TypeTime:
		return core.ParamTime
	case TypeBytes:
		return core.ParamBytes
	default:
		return core.ParamString
	}
}

// ParamTypeOf infers a bind type from a Go value.
func ParamTypeOf(v any) core.ParamType {
	switch v.(type) {
	case nil:
		return core.ParamNull
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return core.ParamInt
	case float32, float64:
		return core.ParamFloat
	case bool:
		return core.ParamBool
	case time.Time, *time.Time:
		return core.ParamTime
	case []byte:
		return core.ParamBytes
	default:
		return core.ParamString
	}
}
