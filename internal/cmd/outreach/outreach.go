// Package outreach parses outreach command flags and launches the runtime.
package outreach

import (
	"context"
	"flag"
	"os"
	"time"

	entrypoint "github.com/louisbranch/outreach/internal/platform/cmd"
	"github.com/louisbranch/outreach/internal/platform/logging"
	"github.com/louisbranch/outreach/internal/services/outreach/app"
	"github.com/louisbranch/outreach/internal/services/outreach/delivery"
)

// Config holds outreach command configuration.
type Config struct {
	HTTPPort         int                 `env:"HTTP_PORT" envDefault:"8095"`
	HealthPort       int                 `env:"HEALTH_PORT" envDefault:"8096"`
	DBPath           string              `env:"DB_PATH" envDefault:"data/outreach.db"`
	Strategy         string              `env:"DELIVERY_STRATEGY" envDefault:"simulated"`
	Concurrency      int                 `env:"DELIVERY_CONCURRENCY" envDefault:"1"`
	DeliveryTimeout  time.Duration       `env:"DELIVERY_TIMEOUT" envDefault:"10s"`
	ActiveWindowDays int                 `env:"ACTIVE_WINDOW_DAYS" envDefault:"90"`
	ValuePerClick    float64             `env:"VALUE_PER_CLICK" envDefault:"15"`
	Locale           string              `env:"LOCALE" envDefault:"en"`
	SimulationSeed   uint64              `env:"SIMULATION_SEED"`
	KafkaBrokers     []string            `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic       string              `env:"KAFKA_TOPIC" envDefault:"outreach.deliveries"`
	LogLevel         string              `env:"LOG_LEVEL" envDefault:"info"`
	SMTP             delivery.SMTPConfig
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "The HTTP API port")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The outreach SQLite database path")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "Delivery strategy (simulated, smtp, kafka)")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Recipients delivered in parallel")
	fs.DurationVar(&cfg.DeliveryTimeout, "delivery-timeout", cfg.DeliveryTimeout, "Per-recipient delivery timeout")
	fs.IntVar(&cfg.ActiveWindowDays, "active-window-days", cfg.ActiveWindowDays, "Recency window for active segment members")
	fs.Float64Var(&cfg.ValuePerClick, "value-per-click", cfg.ValuePerClick, "Revenue per distinct click used for ROI prediction")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Message locale (BCP 47)")
	fs.Uint64Var(&cfg.SimulationSeed, "simulation-seed", cfg.SimulationSeed, "Engagement simulation seed (0 = random)")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "Kafka delivery topic")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the outreach runtime.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.New(os.Stderr, entrypoint.ServiceOutreach, cfg.LogLevel)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOutreach, func(ctx context.Context) error {
		return app.Run(ctx, app.RuntimeConfig{
			HTTPPort:        cfg.HTTPPort,
			HealthPort:      cfg.HealthPort,
			DBPath:          cfg.DBPath,
			Strategy:        cfg.Strategy,
			Concurrency:     cfg.Concurrency,
			DeliveryTimeout: cfg.DeliveryTimeout,
			ActiveWindow:    cfg.ActiveWindowDays,
			ValuePerClick:   cfg.ValuePerClick,
			Locale:          cfg.Locale,
			SimulationSeed:  cfg.SimulationSeed,
			KafkaBrokers:    cfg.KafkaBrokers,
			KafkaTopic:      cfg.KafkaTopic,
			SMTP:            cfg.SMTP,
			Logger:          &logger,
		})
	})
}
