package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names a customer attribute a criterion can test.
type Field string

const (
	FieldAge                 Field = "age"
	FieldLocation            Field = "location"
	FieldInterests           Field = "interests"
	FieldPurchaseTotal       Field = "purchase_total"
	FieldPurchaseCount       Field = "purchase_count"
	FieldLastPurchaseAgeDays Field = "last_purchase_age_days"
)

// Operator names a comparison applied between a field and a criterion value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpInSet       Operator = "in_set"
	OpContains    Operator = "contains"
)

// ValueKind tags the shape of a criterion value.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindSet    ValueKind = "set"
)

// Value is a tagged criterion comparison value.
//
// In JSON a number encodes KindNumber, a string KindText and an array of
// strings KindSet.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Set    []string
}

// Number returns a numeric criterion value.
func Number(v float64) Value { return Value{Kind: KindNumber, Number: v} }

// Text returns a textual criterion value.
func Text(v string) Value { return Value{Kind: KindText, Text: v} }

// Set returns a set criterion value.
func Set(items ...string) Value {
	return Value{Kind: KindSet, Set: append([]string(nil), items...)}
}

// asNumber coerces the value to a number. Text values must parse as a
// decimal number.
func (v Value) asNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindText:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String renders the value for logs and error messages.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return strconv.Quote(v.Text)
	case KindSet:
		return "[" + strings.Join(v.Set, ",") + "]"
	default:
		return "<empty>"
	}
}

// MarshalJSON encodes the value by kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Number)
	case KindText:
		return json.Marshal(v.Text)
	case KindSet:
		if v.Set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Set)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a number, string or string array.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("criterion set value must be an array of strings: %w", err)
		}
		*v = Set(items...)
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("criterion value must be a number, string or string array: %w", err)
		}
		*v = Number(n)
	}
	return nil
}

// Criterion is a single membership condition.
type Criterion struct {
	Field    Field    `json:"field"`
	Operator Operator `json:"op"`
	Value    Value    `json:"value"`
}

func (c Criterion) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value)
}

// valueRule checks that a value has the shape an operator needs.
type valueRule func(Value) bool

func numericValue(v Value) bool {
	_, ok := v.asNumber()
	return ok
}

func textValue(v Value) bool { return v.Kind == KindText }

func setValue(v Value) bool { return v.Kind == KindSet }

var numericOperators = map[Operator]valueRule{
	OpEquals:      numericValue,
	OpNotEquals:   numericValue,
	OpGreaterThan: numericValue,
	OpLessThan:    numericValue,
}

// supported is the closed table of field/operator combinations.
var supported = map[Field]map[Operator]valueRule{
	FieldAge:                 numericOperators,
	FieldPurchaseTotal:       numericOperators,
	FieldPurchaseCount:       numericOperators,
	FieldLastPurchaseAgeDays: numericOperators,
	FieldLocation: {
		OpEquals:    textValue,
		OpNotEquals: textValue,
		OpInSet:     setValue,
	},
	FieldInterests: {
		OpContains: textValue,
		OpInSet:    setValue,
	},
}

// Validate reports whether the criterion is a supported combination with a
// well-typed value. It returns ErrUnsupportedCriterion or
// ErrInvalidCriterionValue.
func (c Criterion) Validate() error {
	operators, ok := supported[c.Field]
	if !ok {
		return unsupported(c)
	}
	rule, ok := operators[c.Operator]
	if !ok {
		return unsupported(c)
	}
	if !rule(c.Value) {
		return invalidValue(c, fmt.Sprintf("value %s does not fit operator", c.Value))
	}
	return nil
}

// ValidateAll validates every criterion, returning the first failure.
func ValidateAll(criteria []Criterion) error {
	for i, c := range criteria {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("criterion %d: %w", i, err)
		}
	}
	return nil
}
