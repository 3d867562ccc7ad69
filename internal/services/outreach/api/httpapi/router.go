// Package httpapi exposes the outreach engine as a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/louisbranch/outreach/internal/services/outreach/analytics"
	"github.com/louisbranch/outreach/internal/services/outreach/campaign"
	"github.com/louisbranch/outreach/internal/services/outreach/delivery"
	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/rs/zerolog"
)

// Customers lists the customer set.
type Customers interface {
	ListCustomers(ctx context.Context) ([]segment.Customer, error)
}

// Segments manages and materializes segment definitions.
type Segments interface {
	CreateDefinition(ctx context.Context, input segment.DefinitionInput) (segment.Definition, error)
	UpdateDefinition(ctx context.Context, definitionID string, input segment.DefinitionInput) (segment.Definition, error)
	GetDefinition(ctx context.Context, definitionID string) (segment.Definition, error)
	ListDefinitions(ctx context.Context) ([]segment.Definition, error)
	DeleteDefinition(ctx context.Context, definitionID string) error
	MaterializeByID(ctx context.Context, definitionID string, asOf time.Time) (segment.Segment, []segment.Customer, error)
}

// Campaigns manages campaign lifecycles.
type Campaigns interface {
	CreateCampaign(ctx context.Context, input campaign.CreateInput) (campaign.Campaign, error)
	GetCampaign(ctx context.Context, campaignID string) (campaign.Campaign, error)
	ListCampaigns(ctx context.Context) ([]campaign.Campaign, error)
	LaunchCampaign(ctx context.Context, campaignID string, asOf time.Time) (campaign.Campaign, error)
	RecordOutcome(ctx context.Context, campaignID string, customerID string, event campaign.Event, at time.Time) error
	CancelCampaign(ctx context.Context, campaignID string) (campaign.Campaign, error)
}

// Analytics summarizes campaigns.
type Analytics interface {
	SummarizeByIDs(ctx context.Context, campaignIDs []string, granularity analytics.Granularity) (analytics.Report, error)
}

// Simulator records randomized engagement for demo campaigns.
type Simulator interface {
	Simulate(ctx context.Context, campaignID string, at time.Time) (delivery.SimulationResult, error)
}

// Config wires the handler dependencies. Simulator is optional.
type Config struct {
	Customers Customers
	Segments  Segments
	Campaigns Campaigns
	Analytics Analytics
	Simulator Simulator

	// ActiveWindowDays is the recency window for segment statistics.
	ActiveWindowDays int
	Logger           zerolog.Logger
}

type handler struct {
	customers    Customers
	segments     Segments
	campaigns    Campaigns
	analytics    Analytics
	simulator    Simulator
	activeWindow int
	logger       zerolog.Logger
}

// NewRouter builds the HTTP router for the outreach service.
func NewRouter(cfg Config) http.Handler {
	h := &handler{
		customers:    cfg.Customers,
		segments:     cfg.Segments,
		campaigns:    cfg.Campaigns,
		analytics:    cfg.Analytics,
		simulator:    cfg.Simulator,
		activeWindow: cfg.ActiveWindowDays,
		logger:       cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Logger))

	r.Get("/customers", h.listCustomers)

	r.Route("/segments", func(r chi.Router) {
		r.Get("/", h.listSegments)
		r.Post("/", h.createSegment)
		r.Route("/{segmentID}", func(r chi.Router) {
			r.Get("/", h.getSegment)
			r.Put("/", h.updateSegment)
			r.Delete("/", h.deleteSegment)
			r.Post("/materialize", h.materializeSegment)
		})
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", h.listCampaigns)
		r.Post("/", h.createCampaign)
		r.Route("/{campaignID}", func(r chi.Router) {
			r.Get("/", h.getCampaign)
			r.Post("/launch", h.launchCampaign)
			r.Post("/cancel", h.cancelCampaign)
			r.Post("/outcomes", h.recordOutcome)
			r.Post("/simulate", h.simulateEngagement)
		})
	})

	r.Get("/analytics", h.summarize)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
