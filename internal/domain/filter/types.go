// Package filter describes field-level predicates understood by every Record Store.
package filter

// ComparisonType определяет виды сравнения.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains" // ILIKE %val%

	IsNull    ComparisonType = "null"
	IsNotNull ComparisonType = "not_null"
)

// Item is a single predicate on a column (snake_case db name).
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq builds an equality predicate.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// In builds a membership predicate. Values are passed as []any so every
// store sees the same shape.
func In[V any](field string, values ...V) Item {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	return Item{Field: field, Operator: InList, Value: list}
}

// Valid reports whether the operator is known.
func (i Item) Valid() bool {
	switch i.Operator {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		InList, NotInList, Contains, IsNull, IsNotNull:
		return true
	}
	return false
}
