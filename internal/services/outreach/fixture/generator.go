package fixture

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/louisbranch/outreach/internal/services/outreach/segment"
)

// Preset names a generated data shape.
type Preset string

const (
	// PresetDemo is a small customer set spread evenly over the cities.
	PresetDemo Preset = "demo"
	// PresetStressTest is a large customer set for load testing.
	PresetStressTest Preset = "stress-test"
)

// PresetConfig holds the generation parameters for a preset.
type PresetConfig struct {
	Customers    int
	PurchasesMax int
	// HistoryDays bounds how far back purchases are placed.
	HistoryDays int
}

// GetPresetConfig returns the configuration for a preset.
func GetPresetConfig(preset Preset) (PresetConfig, error) {
	switch preset {
	case PresetDemo:
		return PresetConfig{Customers: 50, PurchasesMax: 6, HistoryDays: 365}, nil
	case PresetStressTest:
		return PresetConfig{Customers: 5000, PurchasesMax: 12, HistoryDays: 730}, nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset %q (valid presets: demo, stress-test)", preset)
	}
}

var (
	firstNames = []string{
		"Mehmet", "Ahmet", "Mustafa", "Ali", "Hüseyin", "Hasan", "İbrahim", "Yusuf", "Osman", "Fatma",
		"Ayşe", "Emine", "Hatice", "Zeynep", "Elif", "Meryem", "Sultan", "Özge", "Deniz", "Can",
		"Cem", "Berk", "Ege", "Doruk", "Arda", "Burak", "Emre", "Selin", "Merve", "Gizem",
	}
	lastNames = []string{
		"Yılmaz", "Kaya", "Demir", "Şahin", "Çelik", "Aydın", "Öztürk", "Arslan", "Doğan", "Kılıç",
		"Aslan", "Çetin", "Kara", "Koç", "Kurt", "Özdemir", "Şimşek", "Aksoy", "Yıldız", "Bulut",
	}
	// Cities receive an equal share of generated customers.
	Cities       = []string{"Ankara", "Istanbul", "Izmir", "Bursa", "Antalya", "Adana", "Gaziantep", "Konya"}
	interests    = []string{"electronics", "fashion", "books", "sports", "travel", "home", "beauty", "gaming"}
	emailDomains = []string{"gmail.com", "hotmail.com", "outlook.com", "yahoo.com", "mynet.com"}
)

var asciiFold = strings.NewReplacer(
	"ı", "i", "İ", "i", "ğ", "g", "ü", "u", "ş", "s", "ö", "o", "ç", "c",
	"Ğ", "g", "Ü", "u", "Ş", "s", "Ö", "o", "Ç", "c",
)

// Generator builds reproducible customer sets.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. Equal seeds produce
// equal customer sets.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// Customers generates cfg.Customers customers whose purchases all fall in
// the cfg.HistoryDays before asOf.
func (g *Generator) Customers(cfg PresetConfig, asOf time.Time) []segment.Customer {
	customers := make([]segment.Customer, 0, cfg.Customers)
	for i := 0; i < cfg.Customers; i++ {
		city := Cities[i%len(Cities)]
		customers = append(customers, g.customer(i+1, city, cfg, asOf.UTC()))
	}
	g.rng.Shuffle(len(customers), func(i, j int) { customers[i], customers[j] = customers[j], customers[i] })
	return customers
}

func (g *Generator) customer(n int, city string, cfg PresetConfig, asOf time.Time) segment.Customer {
	first := pick(g.rng, firstNames)
	last := pick(g.rng, lastNames)
	local := strings.ToLower(asciiFold.Replace(first + "." + last))

	c := segment.Customer{
		ID:        fmt.Sprintf("cust-%05d", n),
		Name:      first + " " + last,
		Email:     fmt.Sprintf("%s%d@%s", local, 1+g.rng.IntN(999), pick(g.rng, emailDomains)),
		Age:       18 + g.rng.IntN(48),
		Location:  city,
		Interests: g.interests(),
	}
	if cfg.PurchasesMax > 0 {
		for range g.rng.IntN(cfg.PurchasesMax + 1) {
			c.Purchases = append(c.Purchases, g.purchase(c.Interests, cfg.HistoryDays, asOf))
		}
	}
	return c
}

func (g *Generator) interests() []string {
	count := 1 + g.rng.IntN(3)
	order := g.rng.Perm(len(interests))
	out := make([]string, 0, count)
	for _, idx := range order[:count] {
		out = append(out, interests[idx])
	}
	return out
}

func (g *Generator) purchase(categories []string, historyDays int, asOf time.Time) segment.Purchase {
	if historyDays < 1 {
		historyDays = 1
	}
	offset := time.Duration(g.rng.Int64N(int64(historyDays) * int64(24*time.Hour)))
	amount := 100 + g.rng.Float64()*4900
	return segment.Purchase{
		Amount:   math.Round(amount*100) / 100,
		At:       asOf.Add(-offset).Truncate(time.Second),
		Category: pick(g.rng, categories),
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
