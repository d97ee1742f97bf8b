package memory

import (
	"fmt"
	"reflect"
	"strings"

	"erpledger/internal/core/apperror"
	"erpledger/internal/domain/filter"
	"erpledger/pkg/dbmap"
)

func matchAll(cols map[string]any, items []filter.Item) (bool, error) {
	for _, item := range items {
		ok, err := matchItem(cols, item)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchItem(cols map[string]any, item filter.Item) (bool, error) {
	value, known := cols[item.Field]
	if !known {
		return false, apperror.NewValidation("unknown filter field").WithDetail("field", item.Field)
	}

	switch item.Operator {
	case filter.Equal:
		return dbmap.Equal(value, item.Value), nil
	case filter.NotEqual:
		return !dbmap.Equal(value, item.Value), nil
	case filter.IsNull:
		return dbmap.Normalize(value) == nil, nil
	case filter.IsNotNull:
		return dbmap.Normalize(value) != nil, nil
	case filter.InList, filter.NotInList:
		found := false
		for _, candidate := range asList(item.Value) {
			if dbmap.Equal(value, candidate) {
				found = true
				break
			}
		}
		if item.Operator == filter.InList {
			return found, nil
		}
		return !found, nil
	case filter.Contains:
		s, ok := dbmap.Normalize(value).(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(item.Value))), nil
	case filter.Less, filter.LessOrEqual, filter.Greater, filter.GreaterOrEqual:
		c, ok := dbmap.Compare(value, item.Value)
		if !ok {
			return false, nil
		}
		switch item.Operator {
		case filter.Less:
			return c < 0, nil
		case filter.LessOrEqual:
			return c <= 0, nil
		case filter.Greater:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	}
	return false, apperror.NewValidation("unsupported filter operator").WithDetail("operator", string(item.Operator))
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
