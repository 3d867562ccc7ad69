package delivery

import (
	"context"

	"github.com/louisbranch/outreach/internal/platform/id"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/render"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/rs/zerolog"
)

const previewRunes = 50

// Simulated pretends to deliver every message and logs what would be sent.
type Simulated struct {
	logger    zerolog.Logger
	localizer render.Localizer
	newID     func() (string, error)
}

// NewSimulated builds a simulated sender.
func NewSimulated(logger zerolog.Logger, localizer render.Localizer) *Simulated {
	return &Simulated{logger: logger, localizer: localizer, newID: id.NewID}
}

// Send renders the message and reports success unless ctx is already done.
func (s *Simulated) Send(ctx context.Context, customer segment.Customer, c campaign.Campaign) (campaign.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return campaign.Receipt{}, err
	}
	out := render.Message(s.localizer, c, customer)
	messageID, err := s.newID()
	if err != nil {
		return campaign.Receipt{}, err
	}
	s.logger.Debug().
		Str("campaign_id", c.ID).
		Str("to", customer.Email).
		Str("subject", out.Subject).
		Str("preview", preview(out.Body)).
		Msg("simulated delivery")
	return campaign.Receipt{MessageID: messageID, Detail: "simulated"}, nil
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewRunes {
		return body
	}
	return string(runes[:previewRunes]) + "..."
}
