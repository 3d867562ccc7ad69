package segment

import (
	"fmt"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
)

var (
	// ErrInvalidCriterionValue indicates a criterion value does not fit its field and operator.
	ErrInvalidCriterionValue = apperrors.New(apperrors.CodeCriterionInvalidValue, "invalid criterion value")
	// ErrUnsupportedCriterion indicates an unknown field or a field/operator pair outside the supported set.
	ErrUnsupportedCriterion = apperrors.New(apperrors.CodeCriterionUnsupported, "unsupported criterion")
	// ErrEmptyName indicates a segment definition name is missing.
	ErrEmptyName = apperrors.New(apperrors.CodeSegmentNameEmpty, "segment name is required")
	// ErrDefinitionNotFound indicates a segment definition does not exist.
	ErrDefinitionNotFound = apperrors.New(apperrors.CodeSegmentNotFound, "segment definition not found")
)

func invalidValue(c Criterion, reason string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCriterionInvalidValue,
		fmt.Sprintf("criterion %s %s: %s", c.Field, c.Operator, reason),
		map[string]string{"Field": string(c.Field), "Operator": string(c.Operator)},
	)
}

func unsupported(c Criterion) error {
	return apperrors.WithMetadata(
		apperrors.CodeCriterionUnsupported,
		fmt.Sprintf("unsupported criterion %q %q", c.Field, c.Operator),
		map[string]string{"Field": string(c.Field), "Operator": string(c.Operator)},
	)
}
