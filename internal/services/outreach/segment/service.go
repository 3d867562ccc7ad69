package segment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/outreach/internal/platform/id"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/outreach/internal/services/outreach/segment"

// CustomerStore supplies the read-only customer set.
type CustomerStore interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
}

// DefinitionStore persists segment definitions.
type DefinitionStore interface {
	PutDefinition(ctx context.Context, definition Definition) error
	GetDefinition(ctx context.Context, id string) (Definition, error)
	ListDefinitions(ctx context.Context) ([]Definition, error)
	DeleteDefinition(ctx context.Context, id string) error
}

// Observer receives materialization measurements.
type Observer interface {
	ObserveMaterialize(members int, elapsed time.Duration)
}

// DefinitionInput is the operator-supplied content of a definition. When
// Filter is set it is compiled and replaces Criteria.
type DefinitionInput struct {
	Name     string      `json:"name"`
	Criteria []Criterion `json:"criteria"`
	Filter   string      `json:"filter"`
}

// Service manages segment definitions and materializes them against the
// customer store.
type Service struct {
	definitions DefinitionStore
	customers   CustomerStore
	clock       func() time.Time
	newID       func() (string, error)
	logger      zerolog.Logger
	observer    Observer
	tracer      trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for definition timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides definition id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithObserver sets the materialization observer.
func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

// NewService constructs segment use-cases.
func NewService(definitions DefinitionStore, customers CustomerStore, opts ...Option) *Service {
	s := &Service{
		definitions: definitions,
		customers:   customers,
		clock:       time.Now,
		newID:       id.NewID,
		logger:      zerolog.Nop(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDefinition validates and stores a new definition.
func (s *Service) CreateDefinition(ctx context.Context, input DefinitionInput) (Definition, error) {
	if err := s.ready(); err != nil {
		return Definition{}, err
	}
	definition, err := buildDefinition(input)
	if err != nil {
		return Definition{}, err
	}
	definitionID, err := s.newID()
	if err != nil {
		return Definition{}, fmt.Errorf("generate segment id: %w", err)
	}
	now := s.clock().UTC()
	definition.ID = definitionID
	definition.CreatedAt = now
	definition.UpdatedAt = now
	if err := s.definitions.PutDefinition(ctx, definition); err != nil {
		return Definition{}, fmt.Errorf("put segment definition: %w", err)
	}
	s.logger.Info().Str("segment_id", definition.ID).Int("criteria", len(definition.Criteria)).Msg("segment definition created")
	return definition, nil
}

// UpdateDefinition replaces the name and criteria of an existing definition.
func (s *Service) UpdateDefinition(ctx context.Context, definitionID string, input DefinitionInput) (Definition, error) {
	if err := s.ready(); err != nil {
		return Definition{}, err
	}
	existing, err := s.GetDefinition(ctx, definitionID)
	if err != nil {
		return Definition{}, err
	}
	updated, err := buildDefinition(input)
	if err != nil {
		return Definition{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.clock().UTC()
	if err := s.definitions.PutDefinition(ctx, updated); err != nil {
		return Definition{}, fmt.Errorf("put segment definition: %w", err)
	}
	return updated, nil
}

// GetDefinition loads one definition.
func (s *Service) GetDefinition(ctx context.Context, definitionID string) (Definition, error) {
	if err := s.ready(); err != nil {
		return Definition{}, err
	}
	definitionID = strings.TrimSpace(definitionID)
	if definitionID == "" {
		return Definition{}, ErrDefinitionNotFound
	}
	definition, err := s.definitions.GetDefinition(ctx, definitionID)
	if errors.Is(err, storage.ErrNotFound) {
		return Definition{}, ErrDefinitionNotFound
	}
	if err != nil {
		return Definition{}, fmt.Errorf("get segment definition: %w", err)
	}
	return definition, nil
}

// ListDefinitions returns all stored definitions.
func (s *Service) ListDefinitions(ctx context.Context) ([]Definition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.definitions.ListDefinitions(ctx)
}

// DeleteDefinition removes a definition.
func (s *Service) DeleteDefinition(ctx context.Context, definitionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	err := s.definitions.DeleteDefinition(ctx, strings.TrimSpace(definitionID))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrDefinitionNotFound
	}
	return err
}

// MaterializeByID loads a definition and the current customer set and
// materializes the segment as of asOf.
func (s *Service) MaterializeByID(ctx context.Context, definitionID string, asOf time.Time) (Segment, []Customer, error) {
	definition, err := s.GetDefinition(ctx, definitionID)
	if err != nil {
		return Segment{}, nil, err
	}
	return s.Materialize(ctx, definition, asOf)
}

// Materialize evaluates definition against the current customer set. The
// customers read are returned alongside the segment so callers act on the
// same snapshot.
func (s *Service) Materialize(ctx context.Context, definition Definition, asOf time.Time) (Segment, []Customer, error) {
	if s == nil || s.customers == nil {
		return Segment{}, nil, fmt.Errorf("customer store is not configured")
	}
	ctx, span := s.tracer.Start(ctx, "segment.Materialize", trace.WithAttributes(
		attribute.String("segment.id", definition.ID),
		attribute.Int("segment.criteria", len(definition.Criteria)),
	))
	defer span.End()

	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		span.RecordError(err)
		return Segment{}, nil, fmt.Errorf("list customers: %w", err)
	}
	started := time.Now()
	seg, err := Materialize(definition, customers, asOf)
	if err != nil {
		span.RecordError(err)
		return Segment{}, nil, err
	}
	if s.observer != nil {
		s.observer.ObserveMaterialize(len(seg.MemberIDs), time.Since(started))
	}
	span.SetAttributes(attribute.Int("segment.members", len(seg.MemberIDs)))
	s.logger.Debug().
		Str("segment_id", definition.ID).
		Int("customers", len(customers)).
		Int("members", len(seg.MemberIDs)).
		Time("as_of", asOf).
		Msg("segment materialized")
	return seg, customers, nil
}

func (s *Service) ready() error {
	if s == nil || s.definitions == nil {
		return fmt.Errorf("segment store is not configured")
	}
	return nil
}

func buildDefinition(input DefinitionInput) (Definition, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Definition{}, ErrEmptyName
	}
	filter := strings.TrimSpace(input.Filter)
	criteria := input.Criteria
	if filter != "" {
		parsed, err := ParseFilter(filter)
		if err != nil {
			return Definition{}, err
		}
		criteria = parsed
	}
	if criteria == nil {
		criteria = []Criterion{}
	}
	if err := ValidateAll(criteria); err != nil {
		return Definition{}, err
	}
	return Definition{Name: name, Criteria: criteria, Filter: filter}, nil
}
