package segment

import (
	"fmt"
	"time"
)

// Definition is an operator-authored, persisted list of criteria combined
// with logical AND. An empty list matches every customer.
type Definition struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Criteria  []Criterion `json:"criteria"`
	Filter    string      `json:"filter,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Segment is the membership of a definition materialized at one instant.
type Segment struct {
	Definition     Definition `json:"definition"`
	MemberIDs      []string   `json:"member_ids"`
	MaterializedAt time.Time  `json:"materialized_at"`
}

// Materialize evaluates definition against customers as of asOf.
//
// Members keep the input order. When an identifier repeats, only its first
// record is considered. Any criterion error aborts the whole call and no
// partial segment is returned.
func Materialize(definition Definition, customers []Customer, asOf time.Time) (Segment, error) {
	if err := ValidateAll(definition.Criteria); err != nil {
		return Segment{}, err
	}

	members := make([]string, 0, len(customers))
	seen := make(map[string]struct{}, len(customers))
	for _, customer := range customers {
		if _, dup := seen[customer.ID]; dup {
			continue
		}
		seen[customer.ID] = struct{}{}

		matched, err := matchesAll(customer, definition.Criteria, asOf)
		if err != nil {
			return Segment{}, fmt.Errorf("evaluate customer %s: %w", customer.ID, err)
		}
		if matched {
			members = append(members, customer.ID)
		}
	}

	return Segment{
		Definition:     cloneDefinition(definition),
		MemberIDs:      members,
		MaterializedAt: asOf,
	}, nil
}

// Matches reports whether customer satisfies every criterion.
func Matches(customer Customer, criteria []Criterion, asOf time.Time) (bool, error) {
	if err := ValidateAll(criteria); err != nil {
		return false, err
	}
	return matchesAll(customer, criteria, asOf)
}

func matchesAll(customer Customer, criteria []Criterion, asOf time.Time) (bool, error) {
	for _, criterion := range criteria {
		ok, err := Evaluate(customer, criterion, asOf)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func cloneDefinition(definition Definition) Definition {
	criteria := make([]Criterion, len(definition.Criteria))
	for i, c := range definition.Criteria {
		if c.Value.Kind == KindSet {
			c.Value.Set = append([]string(nil), c.Value.Set...)
		}
		criteria[i] = c
	}
	definition.Criteria = criteria
	return definition
}
