package campaign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/outreach/internal/platform/timeouts"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/louisbranch/outreach/internal/services/outreach/campaign"

// Receipt is what a delivery strategy reports for a successful send.
type Receipt struct {
	MessageID string
	Detail    string
}

// DeliveryStrategy sends one campaign message to one customer.
type DeliveryStrategy interface {
	Send(ctx context.Context, customer segment.Customer, c Campaign) (Receipt, error)
}

// DeliveryFunc adapts a function to DeliveryStrategy.
type DeliveryFunc func(ctx context.Context, customer segment.Customer, c Campaign) (Receipt, error)

// Send calls f.
func (f DeliveryFunc) Send(ctx context.Context, customer segment.Customer, c Campaign) (Receipt, error) {
	return f(ctx, customer, c)
}

// Store persists campaigns and their append-only outcomes.
type Store interface {
	GetCampaign(ctx context.Context, campaignID string) (Campaign, error)
	PutCampaign(ctx context.Context, c Campaign) error
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	AppendOutcome(ctx context.Context, outcome Outcome) error
	ListOutcomes(ctx context.Context, campaignID string) ([]Outcome, error)
}

// Metrics receives delivery measurements.
type Metrics interface {
	DeliveryAttempted(event Event, elapsed time.Duration)
	CampaignCompleted(status Status)
	OutcomeRecorded(event Event)
}

type nopMetrics struct{}

func (nopMetrics) DeliveryAttempted(Event, time.Duration) {}
func (nopMetrics) CampaignCompleted(Status)               {}
func (nopMetrics) OutcomeRecorded(Event)                  {}

// OrchestratorConfig tunes delivery.
type OrchestratorConfig struct {
	// DeliveryTimeout bounds each recipient's send attempt.
	DeliveryTimeout time.Duration
	// Concurrency is the number of recipients delivered in parallel. Values
	// below 2 deliver sequentially in recipient order.
	Concurrency int
	Clock       func() time.Time
	Logger      *zerolog.Logger
	Metrics     Metrics
}

// Orchestrator launches campaigns and records their outcomes.
type Orchestrator struct {
	store       Store
	timeout     time.Duration
	concurrency int
	clock       func() time.Time
	logger      zerolog.Logger
	metrics     Metrics
	tracer      trace.Tracer
	locks       *keyedMutex
}

// NewOrchestrator builds an orchestrator over store.
func NewOrchestrator(store Store, cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		timeout:     cfg.DeliveryTimeout,
		concurrency: cfg.Concurrency,
		clock:       cfg.Clock,
		logger:      zerolog.Nop(),
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer(tracerName),
		locks:       newKeyedMutex(),
	}
	if o.timeout <= 0 {
		o.timeout = timeouts.Delivery
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if cfg.Logger != nil {
		o.logger = *cfg.Logger
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	return o
}

// Launch freezes seg's members as the recipient snapshot of the stored draft
// campaign and delivers to each recipient through strategy.
//
// Per-recipient failures are recorded as failed outcomes and never abort the
// batch. After every recipient has been attempted the campaign becomes sent
// when at least one delivery succeeded and failed otherwise. Recipients are
// resolved against customers; ids missing from it are recorded as failures.
func (o *Orchestrator) Launch(ctx context.Context, draft Campaign, seg segment.Segment, customers []segment.Customer, strategy DeliveryStrategy, asOf time.Time) (Campaign, error) {
	if o == nil || o.store == nil {
		return Campaign{}, fmt.Errorf("campaign store is not configured")
	}
	if strategy == nil {
		return Campaign{}, fmt.Errorf("delivery strategy is required")
	}
	campaignID := strings.TrimSpace(draft.ID)
	ctx, span := o.tracer.Start(ctx, "campaign.Launch", trace.WithAttributes(
		attribute.String("campaign.id", campaignID),
	))
	defer span.End()

	unlock := o.locks.Lock(campaignID)
	defer unlock()

	c, err := o.load(ctx, campaignID)
	if err != nil {
		span.RecordError(err)
		return Campaign{}, err
	}
	if c.Status != StatusDraft {
		err := invalidTransition(c.ID, c.Status, StatusScheduled)
		span.RecordError(err)
		return c, err
	}

	c.Recipients = dedupe(seg.MemberIDs)
	if c.SegmentDefinitionID == "" {
		c.SegmentDefinitionID = seg.Definition.ID
	}
	if c.ScheduledAt.IsZero() {
		c.ScheduledAt = asOf.UTC()
	}
	if c, err = o.advance(ctx, c, StatusScheduled); err != nil {
		return c, err
	}
	launchedAt := asOf.UTC()
	c.LaunchedAt = &launchedAt
	if c, err = o.advance(ctx, c, StatusSending); err != nil {
		return c, err
	}
	span.SetAttributes(attribute.Int("campaign.recipients", len(c.Recipients)))
	o.logger.Info().Str("campaign_id", c.ID).Int("recipients", len(c.Recipients)).Msg("campaign sending")

	// Once sending starts the batch runs to completion even if the caller goes
	// away. Each recipient is still bounded by the delivery timeout.
	batchCtx := context.WithoutCancel(ctx)
	sent, failed, deliverErr := o.deliver(batchCtx, c, customers, strategy, asOf)
	c.SentCount = sent
	c.FailedCount = failed

	final := StatusFailed
	if sent > 0 && deliverErr == nil {
		final = StatusSent
	}
	completedAt := o.clock().UTC()
	c.CompletedAt = &completedAt
	c, err = o.advance(batchCtx, c, final)
	if err == nil {
		o.metrics.CampaignCompleted(c.Status)
	}
	if deliverErr != nil {
		span.RecordError(deliverErr)
		span.SetStatus(codes.Error, "delivery aborted")
		return c, fmt.Errorf("deliver campaign %s: %w", c.ID, deliverErr)
	}
	if err != nil {
		return c, err
	}
	span.SetAttributes(attribute.Int("campaign.sent", sent), attribute.Int("campaign.failed", failed))
	o.logger.Info().
		Str("campaign_id", c.ID).
		Str("status", string(c.Status)).
		Int("sent", sent).
		Int("failed", failed).
		Msg("campaign delivery finished")
	return c, nil
}

// deliver attempts every recipient and appends one outcome per attempt. It
// only returns an error when an outcome cannot be persisted.
func (o *Orchestrator) deliver(ctx context.Context, c Campaign, customers []segment.Customer, strategy DeliveryStrategy, asOf time.Time) (sent int, failed int, err error) {
	directory := make(map[string]segment.Customer, len(customers))
	for _, customer := range customers {
		if _, ok := directory[customer.ID]; !ok {
			directory[customer.ID] = customer
		}
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)
	for _, recipientID := range c.Recipients {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return nil
			}
			outcome := o.attempt(groupCtx, c, directory, recipientID, strategy, asOf)

			mu.Lock()
			defer mu.Unlock()
			if err := o.store.AppendOutcome(groupCtx, outcome); err != nil {
				return fmt.Errorf("append outcome for %s: %w", recipientID, err)
			}
			o.metrics.OutcomeRecorded(outcome.Event)
			if outcome.Event == EventSent {
				sent++
			} else {
				failed++
			}
			return nil
		})
	}
	err = group.Wait()
	return sent, failed, err
}

func (o *Orchestrator) attempt(ctx context.Context, c Campaign, directory map[string]segment.Customer, recipientID string, strategy DeliveryStrategy, asOf time.Time) Outcome {
	outcome := Outcome{CampaignID: c.ID, CustomerID: recipientID, At: asOf.UTC()}
	customer, ok := directory[recipientID]
	if !ok {
		outcome.Event = EventFailed
		outcome.Detail = "customer not found"
		o.metrics.DeliveryAttempted(EventFailed, 0)
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	started := time.Now()
	receipt, err := strategy.Send(sendCtx, customer, c)
	elapsed := time.Since(started)
	if err == nil {
		// A strategy that ignores its context may return after the deadline.
		err = sendCtx.Err()
	}
	if err != nil {
		outcome.Event = EventFailed
		outcome.Detail = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			outcome.Detail = "delivery timed out"
		}
		o.logger.Warn().Err(err).Str("campaign_id", c.ID).Str("customer_id", recipientID).Msg("delivery failed")
	} else {
		outcome.Event = EventSent
		outcome.Detail = receipt.MessageID
	}
	o.metrics.DeliveryAttempted(outcome.Event, elapsed)
	return outcome
}

// RecordOutcome appends an externally reported outcome for a recipient of a
// launched campaign.
func (o *Orchestrator) RecordOutcome(ctx context.Context, campaignID string, customerID string, event Event, at time.Time) error {
	if o == nil || o.store == nil {
		return fmt.Errorf("campaign store is not configured")
	}
	if _, err := ParseEvent(string(event)); err != nil {
		return err
	}
	campaignID = strings.TrimSpace(campaignID)
	customerID = strings.TrimSpace(customerID)

	unlock := o.locks.Lock(campaignID)
	defer unlock()

	c, err := o.load(ctx, campaignID)
	if err != nil {
		return err
	}
	if !c.HasRecipient(customerID) {
		return unknownRecipient(campaignID, customerID)
	}
	if err := o.store.AppendOutcome(ctx, Outcome{
		CampaignID: campaignID,
		CustomerID: customerID,
		Event:      event,
		At:         at.UTC(),
	}); err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}
	o.metrics.OutcomeRecorded(event)
	return nil
}

// Cancel moves a non-terminal campaign to failed.
func (o *Orchestrator) Cancel(ctx context.Context, campaignID string) (Campaign, error) {
	if o == nil || o.store == nil {
		return Campaign{}, fmt.Errorf("campaign store is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	unlock := o.locks.Lock(campaignID)
	defer unlock()

	c, err := o.load(ctx, campaignID)
	if err != nil {
		return Campaign{}, err
	}
	if c.Status.Terminal() {
		return c, invalidTransition(c.ID, c.Status, StatusFailed)
	}
	completedAt := o.clock().UTC()
	c.CompletedAt = &completedAt
	c, err = o.advance(ctx, c, StatusFailed)
	if err != nil {
		return c, err
	}
	o.metrics.CampaignCompleted(c.Status)
	o.logger.Info().Str("campaign_id", c.ID).Msg("campaign cancelled")
	return c, nil
}

func (o *Orchestrator) load(ctx context.Context, campaignID string) (Campaign, error) {
	if campaignID == "" {
		return Campaign{}, unknownCampaign(campaignID)
	}
	c, err := o.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, storage.ErrNotFound) {
		return Campaign{}, unknownCampaign(campaignID)
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("load campaign %s: %w", campaignID, err)
	}
	return c, nil
}

func (o *Orchestrator) advance(ctx context.Context, c Campaign, to Status) (Campaign, error) {
	next, err := Transition(c, to, o.clock())
	if err != nil {
		return c, err
	}
	if err := o.store.PutCampaign(ctx, next); err != nil {
		return c, fmt.Errorf("save campaign %s as %s: %w", c.ID, to, err)
	}
	return next, nil
}
