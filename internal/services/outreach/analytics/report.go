// Package analytics aggregates campaign delivery outcomes into engagement
// summaries and time-bucketed series.
package analytics

import (
	"math"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
)

// Counts are distinct-customer tallies for one or more campaigns.
type Counts struct {
	Recipients   int `json:"recipient_count"`
	Sent         int `json:"sent_count"`
	Failed       int `json:"failed_count"`
	Opened       int `json:"opened_count"`
	Clicked      int `json:"clicked_count"`
	Bounced      int `json:"bounced_count"`
	Unsubscribed int `json:"unsubscribed_count"`
}

func (c Counts) add(other Counts) Counts {
	return Counts{
		Recipients:   c.Recipients + other.Recipients,
		Sent:         c.Sent + other.Sent,
		Failed:       c.Failed + other.Failed,
		Opened:       c.Opened + other.Opened,
		Clicked:      c.Clicked + other.Clicked,
		Bounced:      c.Bounced + other.Bounced,
		Unsubscribed: c.Unsubscribed + other.Unsubscribed,
	}
}

// Rates are ratios derived from Counts. Every rate is zero when its
// denominator is zero.
type Rates struct {
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	BounceRate      float64 `json:"bounce_rate"`
	UnsubscribeRate float64 `json:"unsubscribe_rate"`
	DeliveryRate    float64 `json:"delivery_rate"`
	ClickToOpenRate float64 `json:"click_to_open_rate"`
	EngagementScore float64 `json:"engagement_score"`
	ROIPrediction   float64 `json:"roi_prediction"`
}

// Rates computes the ratios of c. ROIPrediction is distinct clicks valued at
// valuePerClick each.
func (c Counts) Rates(valuePerClick float64) Rates {
	r := Rates{
		OpenRate:        ratio(c.Opened, c.Sent),
		ClickRate:       ratio(c.Clicked, c.Sent),
		BounceRate:      ratio(c.Bounced, c.Sent),
		UnsubscribeRate: ratio(c.Unsubscribed, c.Sent),
		DeliveryRate:    ratio(c.Sent, c.Sent+c.Failed),
		ClickToOpenRate: ratio(c.Clicked, c.Opened),
	}
	r.EngagementScore = math.Min(100, r.OpenRate*100*0.6+r.ClickRate*100*4)
	r.ROIPrediction = float64(c.Clicked) * valuePerClick
	return r
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// EventCounts are raw outcome counts per event.
type EventCounts struct {
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	Opened       int `json:"opened"`
	Clicked      int `json:"clicked"`
	Bounced      int `json:"bounced"`
	Unsubscribed int `json:"unsubscribed"`
}

func (e *EventCounts) inc(event campaign.Event) {
	switch event {
	case campaign.EventSent:
		e.Sent++
	case campaign.EventFailed:
		e.Failed++
	case campaign.EventOpened:
		e.Opened++
	case campaign.EventClicked:
		e.Clicked++
	case campaign.EventBounced:
		e.Bounced++
	case campaign.EventUnsubscribed:
		e.Unsubscribed++
	}
}

func (e EventCounts) add(other EventCounts) EventCounts {
	return EventCounts{
		Sent:         e.Sent + other.Sent,
		Failed:       e.Failed + other.Failed,
		Opened:       e.Opened + other.Opened,
		Clicked:      e.Clicked + other.Clicked,
		Bounced:      e.Bounced + other.Bounced,
		Unsubscribed: e.Unsubscribed + other.Unsubscribed,
	}
}

// Bucket is one time-series interval starting at Start.
type Bucket struct {
	Start  time.Time   `json:"start"`
	Events EventCounts `json:"events"`
}

// Anomaly is an opened, clicked, bounced or unsubscribed outcome that has no
// preceding sent outcome for its customer.
type Anomaly struct {
	CampaignID string         `json:"campaign_id"`
	CustomerID string         `json:"customer_id"`
	Event      campaign.Event `json:"event"`
	At         time.Time      `json:"timestamp"`
	Reason     string         `json:"reason"`
}

// CampaignSummary is the analytics for one campaign.
type CampaignSummary struct {
	CampaignID string          `json:"campaign_id"`
	Name       string          `json:"name"`
	Status     campaign.Status `json:"status"`
	Counts     Counts          `json:"counts"`
	Rates      Rates           `json:"rates"`
	Series     []Bucket        `json:"series"`
	Anomalies  []Anomaly       `json:"anomalies"`
}

// Report aggregates one or more campaigns.
type Report struct {
	Granularity Granularity       `json:"granularity"`
	Campaigns   []CampaignSummary `json:"campaigns"`
	Totals      Counts            `json:"totals"`
	Rates       Rates             `json:"rates"`
	Series      []Bucket          `json:"series"`
	Anomalies   []Anomaly         `json:"anomalies"`
}
