package delivery

import (
	"context"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
)

// WithTimeout bounds every Send of next by d. A non-positive d returns next.
func WithTimeout(next campaign.DeliveryStrategy, d time.Duration) campaign.DeliveryStrategy {
	if d <= 0 || next == nil {
		return next
	}
	return campaign.DeliveryFunc(func(ctx context.Context, customer segment.Customer, c campaign.Campaign) (campaign.Receipt, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Send(ctx, customer, c)
	})
}
