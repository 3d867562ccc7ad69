// Package campaign binds segment snapshots to campaigns, drives delivery and
// records per-recipient outcomes.
package campaign

import (
	"strings"
	"time"
)

// Campaign is one outreach message sent to a frozen set of recipients.
type Campaign struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Subject             string     `json:"subject"`
	ContentTemplate     string     `json:"content_template"`
	SegmentDefinitionID string     `json:"segment_definition_id"`
	Recipients          []string   `json:"recipients"`
	ScheduledAt         time.Time  `json:"scheduled_at"`
	Status              Status     `json:"status"`
	SentCount           int        `json:"sent_count"`
	FailedCount         int        `json:"failed_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	LaunchedAt          *time.Time `json:"launched_at,omitempty"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

// HasRecipient reports whether customerID is in the frozen recipient snapshot.
func (c Campaign) HasRecipient(customerID string) bool {
	for _, recipient := range c.Recipients {
		if recipient == customerID {
			return true
		}
	}
	return false
}

// Event is the kind of a delivery outcome.
type Event string

const (
	EventSent         Event = "sent"
	EventOpened       Event = "opened"
	EventClicked      Event = "clicked"
	EventBounced      Event = "bounced"
	EventUnsubscribed Event = "unsubscribed"
	// EventFailed records a delivery attempt that did not reach the recipient.
	EventFailed Event = "failed"
)

// FollowsSend reports whether the event can only be observed after the
// message was sent to the customer.
func (e Event) FollowsSend() bool {
	switch e {
	case EventOpened, EventClicked, EventBounced, EventUnsubscribed:
		return true
	default:
		return false
	}
}

// ParseEvent normalizes an externally reported outcome event. Delivery
// failures are recorded by the orchestrator only.
func ParseEvent(raw string) (Event, error) {
	switch event := Event(strings.ToLower(strings.TrimSpace(raw))); event {
	case EventSent, EventOpened, EventClicked, EventBounced, EventUnsubscribed:
		return event, nil
	default:
		return "", ErrInvalidEvent
	}
}

// Outcome is a single recorded event for one (customer, campaign) pair.
type Outcome struct {
	CampaignID string    `json:"campaign_id"`
	CustomerID string    `json:"customer_id"`
	Event      Event     `json:"event"`
	At         time.Time `json:"timestamp"`
	Detail     string    `json:"detail,omitempty"`
}

// dedupe returns ids without repeats, keeping first occurrences.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
