package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/outreach/internal/platform/id"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/rs/zerolog"
)

// Segments resolves segment definitions and materializes them.
type Segments interface {
	GetDefinition(ctx context.Context, definitionID string) (segment.Definition, error)
	MaterializeByID(ctx context.Context, definitionID string, asOf time.Time) (segment.Segment, []segment.Customer, error)
}

// CreateInput describes a new draft campaign.
type CreateInput struct {
	Name                string    `json:"name"`
	Subject             string    `json:"subject"`
	ContentTemplate     string    `json:"content_template"`
	SegmentDefinitionID string    `json:"segment_definition_id"`
	ScheduledAt         time.Time `json:"scheduled_at"`
}

// Service exposes campaign use-cases over stored campaigns.
type Service struct {
	store        Store
	segments     Segments
	orchestrator *Orchestrator
	strategy     DeliveryStrategy
	clock        func() time.Time
	newID        func() (string, error)
	logger       zerolog.Logger
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Store        Store
	Segments     Segments
	Orchestrator *Orchestrator
	Strategy     DeliveryStrategy
	Clock        func() time.Time
	NewID        func() (string, error)
	Logger       *zerolog.Logger
}

// NewService constructs campaign use-cases.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		store:        cfg.Store,
		segments:     cfg.Segments,
		orchestrator: cfg.Orchestrator,
		strategy:     cfg.Strategy,
		clock:        cfg.Clock,
		newID:        cfg.NewID,
		logger:       zerolog.Nop(),
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = id.NewID
	}
	if cfg.Logger != nil {
		s.logger = *cfg.Logger
	}
	if s.orchestrator == nil && s.store != nil {
		s.orchestrator = NewOrchestrator(s.store, OrchestratorConfig{Clock: s.clock, Logger: cfg.Logger})
	}
	return s
}

// CreateCampaign validates input and stores a draft campaign.
func (s *Service) CreateCampaign(ctx context.Context, input CreateInput) (Campaign, error) {
	if s == nil || s.store == nil {
		return Campaign{}, fmt.Errorf("campaign store is not configured")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Campaign{}, ErrEmptyName
	}
	content := strings.TrimSpace(input.ContentTemplate)
	if content == "" {
		return Campaign{}, ErrEmptyContent
	}
	definitionID := strings.TrimSpace(input.SegmentDefinitionID)
	if definitionID == "" {
		return Campaign{}, ErrSegmentRequired
	}
	if s.segments != nil {
		if _, err := s.segments.GetDefinition(ctx, definitionID); err != nil {
			return Campaign{}, err
		}
	}

	campaignID, err := s.newID()
	if err != nil {
		return Campaign{}, fmt.Errorf("generate campaign id: %w", err)
	}
	now := s.clock().UTC()
	c := Campaign{
		ID:                  campaignID,
		Name:                name,
		Subject:             strings.TrimSpace(input.Subject),
		ContentTemplate:     content,
		SegmentDefinitionID: definitionID,
		Recipients:          []string{},
		Status:              StatusDraft,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if !input.ScheduledAt.IsZero() {
		c.ScheduledAt = input.ScheduledAt.UTC()
	}
	if err := s.store.PutCampaign(ctx, c); err != nil {
		return Campaign{}, fmt.Errorf("put campaign: %w", err)
	}
	s.logger.Info().Str("campaign_id", c.ID).Str("segment_id", definitionID).Msg("campaign created")
	return c, nil
}

// GetCampaign loads one campaign.
func (s *Service) GetCampaign(ctx context.Context, campaignID string) (Campaign, error) {
	if s == nil || s.orchestrator == nil {
		return Campaign{}, fmt.Errorf("campaign store is not configured")
	}
	return s.orchestrator.load(ctx, strings.TrimSpace(campaignID))
}

// ListCampaigns returns every stored campaign.
func (s *Service) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("campaign store is not configured")
	}
	return s.store.ListCampaigns(ctx)
}

// ListOutcomes returns the outcomes of one campaign in timestamp order.
func (s *Service) ListOutcomes(ctx context.Context, campaignID string) ([]Outcome, error) {
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return s.store.ListOutcomes(ctx, c.ID)
}

// LaunchCampaign materializes the campaign's segment as of asOf and launches
// it with the configured delivery strategy.
func (s *Service) LaunchCampaign(ctx context.Context, campaignID string, asOf time.Time) (Campaign, error) {
	if s == nil || s.segments == nil {
		return Campaign{}, fmt.Errorf("segment service is not configured")
	}
	c, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return Campaign{}, err
	}
	if c.Status != StatusDraft {
		return c, invalidTransition(c.ID, c.Status, StatusScheduled)
	}
	seg, customers, err := s.segments.MaterializeByID(ctx, c.SegmentDefinitionID, asOf)
	if err != nil {
		if errors.Is(err, segment.ErrDefinitionNotFound) {
			return c, fmt.Errorf("campaign %s: %w", c.ID, err)
		}
		return c, err
	}
	return s.orchestrator.Launch(ctx, c, seg, customers, s.strategy, asOf)
}

// RecordOutcome appends an externally reported outcome.
func (s *Service) RecordOutcome(ctx context.Context, campaignID string, customerID string, event Event, at time.Time) error {
	if s == nil || s.orchestrator == nil {
		return fmt.Errorf("campaign store is not configured")
	}
	return s.orchestrator.RecordOutcome(ctx, campaignID, customerID, event, at)
}

// CancelCampaign moves a non-terminal campaign to failed.
func (s *Service) CancelCampaign(ctx context.Context, campaignID string) (Campaign, error) {
	if s == nil || s.orchestrator == nil {
		return Campaign{}, fmt.Errorf("campaign store is not configured")
	}
	return s.orchestrator.Cancel(ctx, campaignID)
}
