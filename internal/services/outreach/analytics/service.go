package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/outreach/internal/services/outreach/analytics"

// CampaignReader reads campaigns and their outcomes.
type CampaignReader interface {
	GetCampaign(ctx context.Context, campaignID string) (campaign.Campaign, error)
	ListCampaigns(ctx context.Context) ([]campaign.Campaign, error)
	ListOutcomes(ctx context.Context, campaignID string) ([]campaign.Outcome, error)
}

// Service summarizes stored campaigns.
type Service struct {
	reader CampaignReader
	tracer trace.Tracer
	opts   []Option
}

// NewService builds an analytics service over reader.
func NewService(reader CampaignReader, opts ...Option) *Service {
	return &Service{reader: reader, tracer: otel.Tracer(tracerName), opts: opts}
}

// SummarizeByIDs summarizes the named campaigns, or every stored campaign when
// no ids are given. Repeated ids are summarized once. Any unknown id fails the
// whole call.
func (s *Service) SummarizeByIDs(ctx context.Context, campaignIDs []string, granularity Granularity) (Report, error) {
	if s == nil || s.reader == nil {
		return Report{}, fmt.Errorf("campaign reader is not configured")
	}
	if !granularity.valid() {
		return Report{}, invalidGranularity(string(granularity))
	}
	ctx, span := s.tracer.Start(ctx, "analytics.Summarize", trace.WithAttributes(
		attribute.String("analytics.granularity", string(granularity)),
	))
	defer span.End()

	campaigns, err := s.load(ctx, campaignIDs)
	if err != nil {
		span.RecordError(err)
		return Report{}, err
	}
	data := make([]CampaignData, 0, len(campaigns))
	for _, c := range campaigns {
		outcomes, err := s.reader.ListOutcomes(ctx, c.ID)
		if err != nil {
			span.RecordError(err)
			return Report{}, fmt.Errorf("list outcomes for %s: %w", c.ID, err)
		}
		data = append(data, CampaignData{Campaign: c, Outcomes: outcomes})
	}
	span.SetAttributes(attribute.Int("analytics.campaigns", len(data)))
	return Summarize(data, granularity, s.opts...)
}

func (s *Service) load(ctx context.Context, campaignIDs []string) ([]campaign.Campaign, error) {
	if len(campaignIDs) == 0 {
		campaigns, err := s.reader.ListCampaigns(ctx)
		if err != nil {
			return nil, fmt.Errorf("list campaigns: %w", err)
		}
		return campaigns, nil
	}
	seen := make(map[string]struct{}, len(campaignIDs))
	campaigns := make([]campaign.Campaign, 0, len(campaignIDs))
	for _, campaignID := range campaignIDs {
		campaignID = strings.TrimSpace(campaignID)
		if _, ok := seen[campaignID]; ok {
			continue
		}
		seen[campaignID] = struct{}{}
		c, err := s.reader.GetCampaign(ctx, campaignID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.WithMetadata(
				apperrors.CodeCampaignUnknown,
				fmt.Sprintf("campaign %s not found", campaignID),
				map[string]string{"CampaignID": campaignID},
			)
		}
		if err != nil {
			return nil, fmt.Errorf("get campaign %s: %w", campaignID, err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}
