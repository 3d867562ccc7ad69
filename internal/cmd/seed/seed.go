// Package seed parses seed command flags and loads seed data into the
// outreach store.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/outreach/internal/platform/cmd"
	"github.com/louisbranch/outreach/internal/services/outreach/fixture"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	outreachsqlite "github.com/louisbranch/outreach/internal/services/outreach/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath   string `env:"DB_PATH" envDefault:"data/outreach.db"`
	Fixture  string `env:"SEED_FIXTURE"`
	Generate bool
	Preset   string
	Seed     uint64
	// AsOf anchors generated purchase history. Zero means now.
	AsOf time.Time
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	var asOf string
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The outreach SQLite database path")
	fs.StringVar(&cfg.Fixture, "fixture", cfg.Fixture, "YAML fixture with customers and segments")
	fs.BoolVar(&cfg.Generate, "generate", false, "generate demo customers instead of loading a fixture")
	fs.StringVar(&cfg.Preset, "preset", string(fixture.PresetDemo), "generation preset (demo, stress-test)")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "random seed for reproducibility (0 = random)")
	fs.StringVar(&asOf, "as-of", "", "RFC 3339 anchor for generated purchase history (default: now)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(asOf) != "" {
		parsed, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			return Config{}, fmt.Errorf("parse -as-of: %w", err)
		}
		cfg.AsOf = parsed.UTC()
	}
	if !cfg.Generate && strings.TrimSpace(cfg.Fixture) == "" {
		return Config{}, errors.New("either -fixture or -generate is required")
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	var data fixture.Fixture
	if cfg.Generate {
		presetCfg, err := fixture.GetPresetConfig(fixture.Preset(cfg.Preset))
		if err != nil {
			return err
		}
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
			fmt.Fprintf(out, "Using seed: %d\n", seed)
		}
		asOf := cfg.AsOf
		if asOf.IsZero() {
			asOf = time.Now().UTC()
		}
		data.Customers = fixture.NewGenerator(seed).Customers(presetCfg, asOf)
	}
	if strings.TrimSpace(cfg.Fixture) != "" {
		loaded, err := fixture.LoadFile(cfg.Fixture)
		if err != nil {
			return err
		}
		data.Customers = append(data.Customers, loaded.Customers...)
		data.Definitions = loaded.Definitions
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create outreach storage dir: %w", err)
		}
	}
	store, err := outreachsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open outreach sqlite store: %w", err)
	}
	defer store.Close()

	result, err := fixture.Apply(ctx, store, segment.NewService(store, store), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d customers into %s\n", result.Customers, cfg.DBPath)
	for _, d := range result.Definitions {
		fmt.Fprintf(out, "  segment %s  %s\n", d.ID, d.Name)
	}
	return nil
}
