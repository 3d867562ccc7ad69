package delivery

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/rs/zerolog"
)

const (
	minOpenRate  = 0.25
	maxOpenRate  = 0.65
	minClickRate = 0.05
	maxClickRate = 0.20
)

// CampaignOutcomes reads a campaign with its outcomes and records new ones.
type CampaignOutcomes interface {
	GetCampaign(ctx context.Context, campaignID string) (campaign.Campaign, error)
	ListOutcomes(ctx context.Context, campaignID string) ([]campaign.Outcome, error)
	RecordOutcome(ctx context.Context, campaignID string, customerID string, event campaign.Event, at time.Time) error
}

// SimulationResult summarizes one engagement simulation.
type SimulationResult struct {
	CampaignID string `json:"campaign_id"`
	Sent       int    `json:"sent"`
	Opened     int    `json:"opened"`
	Clicked    int    `json:"clicked"`
	// Skipped is set when the campaign already had engagement or no sends.
	Skipped bool `json:"skipped"`
}

// EngagementSimulator records randomized opens and clicks for demo campaigns.
type EngagementSimulator struct {
	campaigns CampaignOutcomes
	logger    zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngagementSimulator builds a simulator whose choices are reproducible for
// a given seed.
func NewEngagementSimulator(campaigns CampaignOutcomes, seed uint64, logger zerolog.Logger) *EngagementSimulator {
	return &EngagementSimulator{
		campaigns: campaigns,
		logger:    logger,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Simulate opens 25-65% of the customers that were sent the campaign and
// clicks 5-20% of those openers, recording every outcome at at. Campaigns
// with no sends or with existing engagement are left untouched.
func (e *EngagementSimulator) Simulate(ctx context.Context, campaignID string, at time.Time) (SimulationResult, error) {
	c, err := e.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return SimulationResult{}, err
	}
	outcomes, err := e.campaigns.ListOutcomes(ctx, c.ID)
	if err != nil {
		return SimulationResult{}, fmt.Errorf("list outcomes: %w", err)
	}

	result := SimulationResult{CampaignID: c.ID}
	var sent []string
	seen := map[string]struct{}{}
	for _, outcome := range outcomes {
		switch outcome.Event {
		case campaign.EventSent:
			if _, ok := seen[outcome.CustomerID]; !ok {
				seen[outcome.CustomerID] = struct{}{}
				sent = append(sent, outcome.CustomerID)
			}
		case campaign.EventOpened, campaign.EventClicked:
			result.Skipped = true
		}
	}
	result.Sent = len(sent)
	if result.Skipped || len(sent) == 0 {
		result.Skipped = true
		return result, nil
	}

	openers, clickers := e.pick(sent)
	for _, customerID := range openers {
		if err := e.campaigns.RecordOutcome(ctx, c.ID, customerID, campaign.EventOpened, at); err != nil {
			return result, fmt.Errorf("record open for %s: %w", customerID, err)
		}
		result.Opened++
	}
	for _, customerID := range clickers {
		if err := e.campaigns.RecordOutcome(ctx, c.ID, customerID, campaign.EventClicked, at); err != nil {
			return result, fmt.Errorf("record click for %s: %w", customerID, err)
		}
		result.Clicked++
	}
	e.logger.Info().
		Str("campaign_id", c.ID).
		Int("sent", result.Sent).
		Int("opened", result.Opened).
		Int("clicked", result.Clicked).
		Msg("engagement simulated")
	return result, nil
}

func (e *EngagementSimulator) pick(sent []string) (openers []string, clickers []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	shuffled := append([]string(nil), sent...)
	e.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	openRate := minOpenRate + e.rng.Float64()*(maxOpenRate-minOpenRate)
	clickRate := minClickRate + e.rng.Float64()*(maxClickRate-minClickRate)

	openers = shuffled[:int(float64(len(shuffled))*openRate)]
	clickers = openers[:int(float64(len(openers))*clickRate)]
	return openers, clickers
}
