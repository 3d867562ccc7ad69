package app

import (
	"testing"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordDeliveryAndOutcomes(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.DeliveryAttempted(campaign.EventSent, 10*time.Millisecond)
	m.DeliveryAttempted(campaign.EventSent, 20*time.Millisecond)
	m.DeliveryAttempted(campaign.EventFailed, time.Second)
	m.CampaignCompleted(campaign.StatusSent)
	m.OutcomeRecorded(campaign.EventOpened)
	m.ObserveMaterialize(12, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.deliveryAttempts.WithLabelValues("sent")); got != 2 {
		t.Fatalf("sent attempts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.deliveryAttempts.WithLabelValues("failed")); got != 1 {
		t.Fatalf("failed attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.campaignsCompleted.WithLabelValues("sent")); got != 1 {
		t.Fatalf("completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.outcomesRecorded.WithLabelValues("opened")); got != 1 {
		t.Fatalf("opened outcomes = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.materializeLatency); got != 1 {
		t.Fatalf("materialize latency series = %d, want 1", got)
	}
}
