package adapter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leaprecord/pkg/core"
)

// timeLayouts are tried in order when a string is bound as ParamTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// BindValue coerces v to the Go type database/sql drivers expect for t.
// Values that cannot be converted are returned unchanged and left for the
// driver to reject.
func BindValue(v any, t core.ParamType) any {
	if v == nil || t == core.ParamNull {
		return nil
	}
	switch t {
	case core.ParamInt:
		return toInt64(v)
	case core.ParamFloat:
		return toFloat64(v)
	case core.ParamBool:
		return toBool(v)
	case core.ParamTime:
		return toTime(v)
	case core.ParamBytes:
		if s, ok := v.(string); ok {
			return []byte(s)
		}
		return v
	case core.ParamString:
		switch s := v.(type) {
		case string:
			return s
		case []byte:
			return string(s)
		case fmt.Stringer:
			return s.String()
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
			return fmt.Sprint(s)
		}
		return v
	default:
		return v
	}
}

func toInt64(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n) //nolint:gosec // ids fit in int64
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n) //nolint:gosec // ids fit in int64
	case float64:
		if n == float64(int64(n)) {
			return int64(n)
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	case []byte:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i
		}
	case bool:
		if n {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

func toFloat64(v any) any {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	case []byte:
		if f, err := strconv.ParseFloat(string(n), 64); err == nil {
			return f
		}
	}
	return v
}

func toBool(v any) any {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return v
}

func toTime(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv
	case *time.Time:
		if tv == nil {
			return nil
		}
		return *tv
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, tv); err == nil {
				return parsed
			}
		}
	}
	return v
}
