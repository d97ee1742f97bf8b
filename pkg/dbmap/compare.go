package dbmap

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Normalize reduces a column value to one of: nil, string, bool,
// decimal.Decimal, time.Time. Pointers are dereferenced, UUIDs become their
// canonical string and named string types lose their name.
func Normalize(v any) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case decimal.Decimal:
		return x
	case time.Time:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromUint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float())
	}
	return v
}

// Compare orders two normalized values. ok is false when they are not comparable.
func Compare(a, b any) (cmp int, ok bool) {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case string:
		y, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(x, y), true
	case decimal.Decimal:
		y, isDec := b.(decimal.Decimal)
		if !isDec {
			if s, isStr := b.(string); isStr {
				parsed, err := decimal.NewFromString(s)
				if err != nil {
					return 0, false
				}
				y = parsed
			} else {
				return 0, false
			}
		}
		return x.Cmp(y), true
	case time.Time:
		y, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, isBool := b.(bool)
		switch {
		case !isBool:
			return 0, false
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

// Equal reports whether two column values are equal after normalization.
func Equal(a, b any) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nil || nb == nil {
		return na == nil && nb == nil
	}
	c, ok := Compare(na, nb)
	return ok && c == 0
}
