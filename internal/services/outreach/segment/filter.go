package segment

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ParseFilter compiles an AIP-160 filter expression into criteria.
//
// Only conjunctions are accepted, e.g.
//
//	age > 30 AND location = "Ankara" AND interests:"sports"
//
// Comparisons map to equals, not_equals, greater_than and less_than; the has
// operator (:) maps to contains. An empty filter compiles to no criteria.
func ParseFilter(filter string) ([]Criterion, error) {
	if strings.TrimSpace(filter) == "" {
		return []Criterion{}, nil
	}

	var parser filtering.Parser
	parser.Init(filter)
	parsed, err := parser.Parse()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCriterionUnsupported, "parse filter: "+err.Error(), err)
	}

	var criteria []Criterion
	if err := collectConjunction(parsed.GetExpr(), &criteria); err != nil {
		return nil, err
	}
	if err := ValidateAll(criteria); err != nil {
		return nil, err
	}
	return criteria, nil
}

func collectConjunction(e *expr.Expr, out *[]Criterion) error {
	call := e.GetCallExpr()
	if call == nil {
		return filterError("expected a comparison, got %T", e.GetExprKind())
	}
	switch call.GetFunction() {
	case "AND", "FUZZY", "_&&_":
		for _, arg := range call.GetArgs() {
			if err := collectConjunction(arg, out); err != nil {
				return err
			}
		}
		return nil
	case "=", "_==_":
		return appendComparison(call.GetArgs(), OpEquals, out)
	case "!=", "_!=_":
		return appendComparison(call.GetArgs(), OpNotEquals, out)
	case ">", "_>_":
		return appendComparison(call.GetArgs(), OpGreaterThan, out)
	case "<", "_<_":
		return appendComparison(call.GetArgs(), OpLessThan, out)
	case ":":
		return appendComparison(call.GetArgs(), OpContains, out)
	default:
		return filterError("unsupported filter function %q", call.GetFunction())
	}
}

func appendComparison(args []*expr.Expr, op Operator, out *[]Criterion) error {
	if len(args) != 2 {
		return filterError("comparison requires 2 arguments, got %d", len(args))
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return filterError("left side of a comparison must be a field name")
	}
	value, err := filterValue(args[1])
	if err != nil {
		return err
	}
	*out = append(*out, Criterion{
		Field:    Field(ident.GetName()),
		Operator: op,
		Value:    value,
	})
	return nil
}

func filterValue(e *expr.Expr) (Value, error) {
	if ident := e.GetIdentExpr(); ident != nil {
		return Text(ident.GetName()), nil
	}
	constant := e.GetConstExpr()
	if constant == nil {
		return Value{}, filterError("right side of a comparison must be a literal")
	}
	switch kind := constant.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return Text(kind.StringValue), nil
	case *expr.Constant_Int64Value:
		return Number(float64(kind.Int64Value)), nil
	case *expr.Constant_Uint64Value:
		return Number(float64(kind.Uint64Value)), nil
	case *expr.Constant_DoubleValue:
		return Number(kind.DoubleValue), nil
	case *expr.Constant_BoolValue:
		return Text(strconv.FormatBool(kind.BoolValue)), nil
	default:
		return Value{}, filterError("unsupported literal %T", kind)
	}
}

func filterError(format string, args ...any) error {
	return apperrors.New(apperrors.CodeCriterionUnsupported, "filter: "+fmt.Sprintf(format, args...))
}
