package segment

import (
	"math"
	"time"

	"golang.org/x/text/cases"
)

const floatTolerance = 1e-9

// foldCase applies Unicode case folding. A Caser is stateful, so each call
// builds its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Evaluate reports whether customer satisfies criterion. Time-based fields are
// measured relative to asOf. Purchase-based criteria are false for customers
// without purchases.
func Evaluate(customer Customer, criterion Criterion, asOf time.Time) (bool, error) {
	if err := criterion.Validate(); err != nil {
		return false, err
	}

	switch criterion.Field {
	case FieldAge:
		return compareNumber(float64(customer.Age), criterion), nil
	case FieldLocation:
		return matchLocation(customer.Location, criterion), nil
	case FieldInterests:
		return matchInterests(customer, criterion), nil
	}

	if len(customer.Purchases) == 0 {
		return false, nil
	}
	switch criterion.Field {
	case FieldPurchaseTotal:
		return compareNumber(customer.PurchaseTotal(), criterion), nil
	case FieldPurchaseCount:
		return compareNumber(float64(len(customer.Purchases)), criterion), nil
	case FieldLastPurchaseAgeDays:
		last, _ := customer.LastPurchaseAt()
		return compareNumber(DaysBetween(last, asOf), criterion), nil
	default:
		return false, unsupported(criterion)
	}
}

// DaysBetween returns the whole days elapsed from since to asOf.
func DaysBetween(since, asOf time.Time) float64 {
	return math.Floor(asOf.Sub(since).Hours() / 24)
}

func compareNumber(actual float64, criterion Criterion) bool {
	want, _ := criterion.Value.asNumber()
	switch criterion.Operator {
	case OpEquals:
		return math.Abs(actual-want) < floatTolerance
	case OpNotEquals:
		return math.Abs(actual-want) >= floatTolerance
	case OpGreaterThan:
		return actual > want
	case OpLessThan:
		return actual < want
	default:
		return false
	}
}

func matchLocation(location string, criterion Criterion) bool {
	folded := foldCase(location)
	switch criterion.Operator {
	case OpEquals:
		return folded == foldCase(criterion.Value.Text)
	case OpNotEquals:
		return folded != foldCase(criterion.Value.Text)
	case OpInSet:
		for _, candidate := range criterion.Value.Set {
			if folded == foldCase(candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchInterests(customer Customer, criterion Criterion) bool {
	switch criterion.Operator {
	case OpContains:
		return customer.HasInterest(criterion.Value.Text)
	case OpInSet:
		for _, candidate := range criterion.Value.Set {
			if customer.HasInterest(candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
