package analytics

import (
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
)

const (
	reasonNoSent       = "no sent outcome for customer"
	reasonBeforeSent   = "recorded before first sent outcome"
	reasonNotRecipient = "customer is not a campaign recipient"
)

// CampaignData is a campaign with its recorded outcomes.
type CampaignData struct {
	Campaign campaign.Campaign
	Outcomes []campaign.Outcome
}

// DefaultValuePerClick is the revenue attributed to one distinct click when
// predicting campaign ROI.
const DefaultValuePerClick = 15.0

type settings struct {
	valuePerClick float64
}

// Option tunes how reports are computed.
type Option func(*settings)

// WithValuePerClick sets the revenue attributed to one distinct click.
// Negative values are ignored.
func WithValuePerClick(value float64) Option {
	return func(s *settings) {
		if value >= 0 {
			s.valuePerClick = value
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{valuePerClick: DefaultValuePerClick}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Summarize computes per-campaign and combined analytics. Combined rates are
// recomputed from summed counts. Inputs are not modified.
func Summarize(data []CampaignData, granularity Granularity, opts ...Option) (Report, error) {
	if !granularity.valid() {
		return Report{}, invalidGranularity(string(granularity))
	}
	cfg := newSettings(opts)

	report := Report{
		Granularity: granularity,
		Campaigns:   make([]CampaignSummary, 0, len(data)),
		Anomalies:   []Anomaly{},
	}
	combined := map[time.Time]EventCounts{}
	var first, last time.Time
	for _, item := range data {
		summary, buckets := summarizeCampaign(item, granularity, cfg)
		report.Campaigns = append(report.Campaigns, summary)
		report.Totals = report.Totals.add(summary.Counts)
		report.Anomalies = append(report.Anomalies, summary.Anomalies...)
		for start, counts := range buckets {
			combined[start] = combined[start].add(counts)
		}
		if len(summary.Series) > 0 {
			if first.IsZero() || summary.Series[0].Start.Before(first) {
				first = summary.Series[0].Start
			}
			if end := summary.Series[len(summary.Series)-1].Start; end.After(last) {
				last = end
			}
		}
	}
	report.Rates = report.Totals.Rates(cfg.valuePerClick)
	report.Series = series(combined, first, last, granularity)
	return report, nil
}

func summarizeCampaign(data CampaignData, granularity Granularity, cfg settings) (CampaignSummary, map[time.Time]EventCounts) {
	c := data.Campaign
	summary := CampaignSummary{
		CampaignID: c.ID,
		Name:       c.Name,
		Status:     c.Status,
		Anomalies:  []Anomaly{},
	}
	summary.Counts.Recipients = len(c.Recipients)

	firstSent := map[string]time.Time{}
	for _, outcome := range data.Outcomes {
		if outcome.Event != campaign.EventSent {
			continue
		}
		if at, ok := firstSent[outcome.CustomerID]; !ok || outcome.At.Before(at) {
			firstSent[outcome.CustomerID] = outcome.At
		}
	}
	summary.Counts.Sent = len(firstSent)

	failed := map[string]struct{}{}
	followed := map[campaign.Event]map[string]struct{}{
		campaign.EventOpened:       {},
		campaign.EventClicked:      {},
		campaign.EventBounced:      {},
		campaign.EventUnsubscribed: {},
	}
	buckets := map[time.Time]EventCounts{}
	var first, last time.Time
	for _, outcome := range data.Outcomes {
		start := granularity.Truncate(outcome.At)
		counts := buckets[start]
		counts.inc(outcome.Event)
		buckets[start] = counts
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if start.After(last) {
			last = start
		}

		switch {
		case outcome.Event == campaign.EventFailed:
			failed[outcome.CustomerID] = struct{}{}
		case outcome.Event.FollowsSend():
			if reason := anomalyReason(c, firstSent, outcome); reason != "" {
				summary.Anomalies = append(summary.Anomalies, Anomaly{
					CampaignID: c.ID,
					CustomerID: outcome.CustomerID,
					Event:      outcome.Event,
					At:         outcome.At,
					Reason:     reason,
				})
				continue
			}
			followed[outcome.Event][outcome.CustomerID] = struct{}{}
		}
	}
	for customerID := range failed {
		if _, ok := firstSent[customerID]; !ok {
			summary.Counts.Failed++
		}
	}
	summary.Counts.Opened = len(followed[campaign.EventOpened])
	summary.Counts.Clicked = len(followed[campaign.EventClicked])
	summary.Counts.Bounced = len(followed[campaign.EventBounced])
	summary.Counts.Unsubscribed = len(followed[campaign.EventUnsubscribed])
	summary.Rates = summary.Counts.Rates(cfg.valuePerClick)
	summary.Series = series(buckets, first, last, granularity)
	return summary, buckets
}

func anomalyReason(c campaign.Campaign, firstSent map[string]time.Time, outcome campaign.Outcome) string {
	if len(c.Recipients) > 0 && !c.HasRecipient(outcome.CustomerID) {
		return reasonNotRecipient
	}
	sentAt, ok := firstSent[outcome.CustomerID]
	if !ok {
		return reasonNoSent
	}
	if outcome.At.Before(sentAt) {
		return reasonBeforeSent
	}
	return ""
}

// series expands buckets into a contiguous zero-filled slice from first to
// last inclusive.
func series(buckets map[time.Time]EventCounts, first, last time.Time, granularity Granularity) []Bucket {
	out := []Bucket{}
	if len(buckets) == 0 {
		return out
	}
	for start := first; !start.After(last); start = granularity.Next(start) {
		out = append(out, Bucket{Start: start, Events: buckets[start]})
	}
	return out
}
