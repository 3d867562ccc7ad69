package segment

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseFilterConjunction(t *testing.T) {
	t.Parallel()

	criteria, err := ParseFilter(`age > 30 AND location = "Ankara" AND interests:"sports" AND purchase_count != 0`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if len(criteria) != 4 {
		t.Fatalf("len(criteria) = %d, want 4", len(criteria))
	}

	assertNumeric(t, criteria[0], FieldAge, OpGreaterThan, 30)
	if !reflect.DeepEqual(criteria[1], Criterion{Field: FieldLocation, Operator: OpEquals, Value: Text("Ankara")}) {
		t.Fatalf("criteria[1] = %v", criteria[1])
	}
	if !reflect.DeepEqual(criteria[2], Criterion{Field: FieldInterests, Operator: OpContains, Value: Text("sports")}) {
		t.Fatalf("criteria[2] = %v", criteria[2])
	}
	assertNumeric(t, criteria[3], FieldPurchaseCount, OpNotEquals, 0)
}

func TestParseFilterMatchesStructuredDefinition(t *testing.T) {
	t.Parallel()

	criteria, err := ParseFilter(`age > 30`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	seg, err := Materialize(Definition{Criteria: criteria}, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(seg.MemberIDs) != 1 || seg.MemberIDs[0] != "2" {
		t.Fatalf("MemberIDs = %v, want [2]", seg.MemberIDs)
	}
}

func TestParseFilterEmpty(t *testing.T) {
	t.Parallel()

	criteria, err := ParseFilter("   ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if criteria == nil || len(criteria) != 0 {
		t.Fatalf("criteria = %#v, want empty", criteria)
	}
}

func TestParseFilterRejects(t *testing.T) {
	t.Parallel()

	tests := []string{
		`age > 30 OR age < 10`,
		`NOT age > 30`,
		`shoe_size = 42`,
		`location > "A"`,
		`age >`,
	}
	for _, filter := range tests {
		if _, err := ParseFilter(filter); !errors.Is(err, ErrUnsupportedCriterion) {
			t.Fatalf("ParseFilter(%q) err = %v, want ErrUnsupportedCriterion", filter, err)
		}
	}
}

func TestParseFilterRejectsNonNumericAge(t *testing.T) {
	t.Parallel()

	if _, err := ParseFilter(`age = "old"`); !errors.Is(err, ErrInvalidCriterionValue) {
		t.Fatalf("err = %v, want ErrInvalidCriterionValue", err)
	}
}

func assertNumeric(t *testing.T, c Criterion, field Field, op Operator, want float64) {
	t.Helper()
	if c.Field != field || c.Operator != op {
		t.Fatalf("criterion = %v, want %s %s", c, field, op)
	}
	got, ok := c.Value.asNumber()
	if !ok || got != want {
		t.Fatalf("value = %v, want %v", c.Value, want)
	}
}
