package segment

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func scenarioCustomers() []Customer {
	return []Customer{
		{ID: "1", Age: 25, Interests: []string{"sports"}},
		{ID: "2", Age: 40, Interests: []string{"tech"}},
	}
}

func TestMaterializeSelectsByAge(t *testing.T) {
	t.Parallel()

	definition := Definition{ID: "seg-1", Criteria: []Criterion{{FieldAge, OpGreaterThan, Number(30)}}}
	seg, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !reflect.DeepEqual(seg.MemberIDs, []string{"2"}) {
		t.Fatalf("MemberIDs = %v, want [2]", seg.MemberIDs)
	}
	if !seg.MaterializedAt.Equal(evalAsOf) {
		t.Fatalf("MaterializedAt = %v, want %v", seg.MaterializedAt, evalAsOf)
	}
}

func TestMaterializeEmptyDefinitionMatchesAllInOrder(t *testing.T) {
	t.Parallel()

	customers := []Customer{{ID: "b"}, {ID: "a"}, {ID: "b", Age: 99}, {ID: "c"}}
	seg, err := Materialize(Definition{}, customers, evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !reflect.DeepEqual(seg.MemberIDs, []string{"b", "a", "c"}) {
		t.Fatalf("MemberIDs = %v, want [b a c]", seg.MemberIDs)
	}
}

func TestMaterializeDuplicateKeepsFirstRecord(t *testing.T) {
	t.Parallel()

	customers := []Customer{{ID: "x", Age: 20}, {ID: "y", Age: 50}, {ID: "x", Age: 60}}
	definition := Definition{Criteria: []Criterion{{FieldAge, OpGreaterThan, Number(30)}}}
	seg, err := Materialize(definition, customers, evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if !reflect.DeepEqual(seg.MemberIDs, []string{"y"}) {
		t.Fatalf("MemberIDs = %v, want [y]", seg.MemberIDs)
	}
}

func TestMaterializeNoMatchIsEmptyNotError(t *testing.T) {
	t.Parallel()

	definition := Definition{Criteria: []Criterion{{FieldAge, OpGreaterThan, Number(200)}}}
	seg, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if seg.MemberIDs == nil || len(seg.MemberIDs) != 0 {
		t.Fatalf("MemberIDs = %#v, want empty non-nil list", seg.MemberIDs)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	t.Parallel()

	definition := Definition{Criteria: []Criterion{
		{FieldInterests, OpInSet, Set("sports", "tech")},
		{FieldAge, OpLessThan, Number(50)},
	}}
	first, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("first materialize: %v", err)
	}
	second, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("materialize not idempotent: %#v vs %#v", first, second)
	}
}

func TestMaterializeAllOrNothing(t *testing.T) {
	t.Parallel()

	definition := Definition{Criteria: []Criterion{
		{FieldAge, OpGreaterThan, Number(30)},
		{FieldPurchaseTotal, OpGreaterThan, Text("many")},
	}}
	seg, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if !errors.Is(err, ErrInvalidCriterionValue) {
		t.Fatalf("err = %v, want ErrInvalidCriterionValue", err)
	}
	if seg.MemberIDs != nil {
		t.Fatalf("expected no partial segment, got %v", seg.MemberIDs)
	}

	if _, err := Materialize(definition, nil, evalAsOf); !errors.Is(err, ErrInvalidCriterionValue) {
		t.Fatalf("empty customer set err = %v, want ErrInvalidCriterionValue", err)
	}
}

func TestMaterializeRecencyUsesAsOf(t *testing.T) {
	t.Parallel()

	purchasedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	customers := []Customer{{ID: "r", Purchases: []Purchase{{Amount: 10, At: purchasedAt}}}}
	definition := Definition{Criteria: []Criterion{{FieldLastPurchaseAgeDays, OpLessThan, Number(7)}}}

	early, err := Materialize(definition, customers, purchasedAt.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("materialize early: %v", err)
	}
	late, err := Materialize(definition, customers, purchasedAt.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("materialize late: %v", err)
	}
	if len(early.MemberIDs) != 1 || len(late.MemberIDs) != 0 {
		t.Fatalf("early = %v late = %v, want [r] and []", early.MemberIDs, late.MemberIDs)
	}
}

func TestMaterializeCopiesDefinition(t *testing.T) {
	t.Parallel()

	definition := Definition{Criteria: []Criterion{{FieldInterests, OpInSet, Set("sports")}}}
	seg, err := Materialize(definition, scenarioCustomers(), evalAsOf)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	definition.Criteria[0].Value.Set[0] = "changed"
	if seg.Definition.Criteria[0].Value.Set[0] != "sports" {
		t.Fatal("expected segment definition to be isolated from caller mutation")
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	ok, err := Matches(buyer(), []Criterion{{FieldLocation, OpEquals, Text("ISTANBUL")}, {FieldAge, OpGreaterThan, Number(18)}}, evalAsOf)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if !ok {
		t.Fatal("expected buyer to match")
	}
}
