// Package errors provides structured domain errors with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Criterion errors
	CodeCriterionInvalidValue Code = "CRITERION_INVALID_VALUE"
	CodeCriterionUnsupported  Code = "CRITERION_UNSUPPORTED"

	// Segment errors
	CodeSegmentNameEmpty Code = "SEGMENT_NAME_EMPTY"
	CodeSegmentNotFound  Code = "SEGMENT_NOT_FOUND"

	// Campaign errors
	CodeCampaignNameEmpty        Code = "CAMPAIGN_NAME_EMPTY"
	CodeCampaignContentEmpty     Code = "CAMPAIGN_CONTENT_EMPTY"
	CodeCampaignSegmentRequired  Code = "CAMPAIGN_SEGMENT_REQUIRED"
	CodeCampaignInvalidState     Code = "CAMPAIGN_INVALID_STATE"
	CodeCampaignUnknown          Code = "CAMPAIGN_UNKNOWN"
	CodeCampaignUnknownRecipient Code = "CAMPAIGN_UNKNOWN_RECIPIENT"

	// Outcome errors
	CodeOutcomeInvalidEvent Code = "OUTCOME_INVALID_EVENT"

	// Analytics errors
	CodeAnalyticsInvalidGranularity Code = "ANALYTICS_INVALID_GRANULARITY"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeCriterionInvalidValue,
		CodeCriterionUnsupported,
		CodeSegmentNameEmpty,
		CodeCampaignNameEmpty,
		CodeCampaignContentEmpty,
		CodeCampaignSegmentRequired,
		CodeOutcomeInvalidEvent,
		CodeAnalyticsInvalidGranularity,
		CodeInvalidRequest:
		return http.StatusBadRequest

	// Conflict - state doesn't allow operation
	case CodeCampaignInvalidState:
		return http.StatusConflict

	// Unprocessable - well-formed request naming a customer outside the snapshot
	case CodeCampaignUnknownRecipient:
		return http.StatusUnprocessableEntity

	// Not found
	case CodeCampaignUnknown,
		CodeSegmentNotFound,
		CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
