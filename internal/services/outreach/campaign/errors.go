package campaign

import (
	"fmt"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
)

var (
	// ErrInvalidState indicates the campaign status does not allow the operation.
	ErrInvalidState = apperrors.New(apperrors.CodeCampaignInvalidState, "campaign status does not allow operation")
	// ErrUnknownCampaign indicates the campaign does not exist.
	ErrUnknownCampaign = apperrors.New(apperrors.CodeCampaignUnknown, "campaign not found")
	// ErrUnknownRecipient indicates the customer is not in the campaign's recipient snapshot.
	ErrUnknownRecipient = apperrors.New(apperrors.CodeCampaignUnknownRecipient, "customer is not a campaign recipient")
	// ErrInvalidEvent indicates an outcome event outside the supported set.
	ErrInvalidEvent = apperrors.New(apperrors.CodeOutcomeInvalidEvent, "invalid outcome event")
	// ErrEmptyName indicates a campaign name is missing.
	ErrEmptyName = apperrors.New(apperrors.CodeCampaignNameEmpty, "campaign name is required")
	// ErrEmptyContent indicates a campaign content template is missing.
	ErrEmptyContent = apperrors.New(apperrors.CodeCampaignContentEmpty, "campaign content template is required")
	// ErrSegmentRequired indicates a campaign has no segment definition.
	ErrSegmentRequired = apperrors.New(apperrors.CodeCampaignSegmentRequired, "campaign segment definition is required")
)

func invalidTransition(campaignID string, from, to Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeCampaignInvalidState,
		fmt.Sprintf("campaign %s cannot move from %s to %s", campaignID, from, to),
		map[string]string{"CampaignID": campaignID, "From": string(from), "To": string(to)},
	)
}

func unknownCampaign(campaignID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCampaignUnknown,
		fmt.Sprintf("campaign %s not found", campaignID),
		map[string]string{"CampaignID": campaignID},
	)
}

func unknownRecipient(campaignID, customerID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeCampaignUnknownRecipient,
		fmt.Sprintf("customer %s is not a recipient of campaign %s", customerID, campaignID),
		map[string]string{"CampaignID": campaignID, "CustomerID": customerID},
	)
}
