package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/delivery"
	"github.com/louisbranch/outreach/internal/services/outreach/render"
	"github.com/rs/zerolog"
)

// Delivery strategy modes.
const (
	StrategySimulated = "simulated"
	StrategySMTP      = "smtp"
	StrategyKafka     = "kafka"
)

type strategyConfig struct {
	Mode         string
	KafkaBrokers []string
	KafkaTopic   string
	SMTP         delivery.SMTPConfig
}

// builtStrategy is the selected delivery strategy plus whatever must be
// released on shutdown.
type builtStrategy struct {
	strategy  campaign.DeliveryStrategy
	closer    io.Closer
	simulated bool
}

func buildStrategy(cfg strategyConfig, localizer render.Localizer, logger zerolog.Logger) (builtStrategy, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = StrategySimulated
	}
	switch mode {
	case StrategySimulated:
		return builtStrategy{strategy: delivery.NewSimulated(logger, localizer), simulated: true}, nil
	case StrategySMTP:
		sender, err := delivery.NewSMTP(cfg.SMTP, localizer, logger)
		if err != nil {
			return builtStrategy{}, fmt.Errorf("configure smtp delivery: %w", err)
		}
		return builtStrategy{strategy: sender}, nil
	case StrategyKafka:
		brokers := nonEmpty(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return builtStrategy{}, fmt.Errorf("configure kafka delivery: at least one broker is required")
		}
		topic := strings.TrimSpace(cfg.KafkaTopic)
		if topic == "" {
			return builtStrategy{}, fmt.Errorf("configure kafka delivery: topic is required")
		}
		writer := delivery.NewKafkaWriter(brokers, topic)
		return builtStrategy{strategy: delivery.NewKafka(writer, localizer), closer: writer}, nil
	default:
		return builtStrategy{}, fmt.Errorf("unknown delivery strategy %q", cfg.Mode)
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
