package campaign

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
)

var testAsOf = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return time.Date(2026, 3, 2, 15, 5, 0, 0, time.UTC) }

type memoryStore struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
	outcomes  []Outcome
	puts      []Status
	appendErr error
}

func newMemoryStore(campaigns ...Campaign) *memoryStore {
	store := &memoryStore{campaigns: map[string]Campaign{}}
	for _, c := range campaigns {
		store.campaigns[c.ID] = c
	}
	return store
}

func (m *memoryStore) GetCampaign(_ context.Context, campaignID string) (Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignID]
	if !ok {
		return Campaign{}, storage.ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) PutCampaign(_ context.Context, c Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns[c.ID] = c
	m.puts = append(m.puts, c.Status)
	return nil
}

func (m *memoryStore) ListCampaigns(context.Context) ([]Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Campaign, 0, len(m.campaigns))
	for _, c := range m.campaigns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) AppendOutcome(_ context.Context, outcome Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *memoryStore) ListOutcomes(_ context.Context, campaignID string) ([]Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Outcome
	for _, o := range m.outcomes {
		if o.CampaignID == campaignID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryStore) eventsFor(customerID string) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []Event
	for _, o := range m.outcomes {
		if o.CustomerID == customerID {
			events = append(events, o.Event)
		}
	}
	return events
}

type countingMetrics struct {
	mu        sync.Mutex
	attempts  map[Event]int
	completed []Status
	recorded  map[Event]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{attempts: map[Event]int{}, recorded: map[Event]int{}}
}

func (c *countingMetrics) DeliveryAttempted(event Event, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[event]++
}

func (c *countingMetrics) CampaignCompleted(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, status)
}

func (c *countingMetrics) OutcomeRecorded(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorded[event]++
}

func draftCampaign(campaignID string) Campaign {
	return Campaign{
		ID:                  campaignID,
		Name:                "Spring sale",
		ContentTemplate:     "Hello {name}",
		SegmentDefinitionID: "seg-1",
		Status:              StatusDraft,
		CreatedAt:           testAsOf.Add(-time.Hour),
		UpdatedAt:           testAsOf.Add(-time.Hour),
	}
}

func customers(ids ...string) []segment.Customer {
	out := make([]segment.Customer, 0, len(ids))
	for _, customerID := range ids {
		out = append(out, segment.Customer{ID: customerID, Email: customerID + "@example.com"})
	}
	return out
}

func segmentOf(ids ...string) segment.Segment {
	return segment.Segment{
		Definition:     segment.Definition{ID: "seg-1"},
		MemberIDs:      ids,
		MaterializedAt: testAsOf,
	}
}

func succeed() DeliveryStrategy {
	return DeliveryFunc(func(_ context.Context, customer segment.Customer, _ Campaign) (Receipt, error) {
		return Receipt{MessageID: "msg-" + customer.ID}, nil
	})
}
