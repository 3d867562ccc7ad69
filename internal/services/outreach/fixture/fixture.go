// Package fixture loads and generates customer and segment seed data.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML seed document.
type Fixture struct {
	Customers   []segment.Customer `yaml:"customers"`
	Definitions []Definition       `yaml:"segments"`
}

// Definition is a segment definition as written in a fixture: either a
// criteria list or a filter string.
type Definition struct {
	Name     string      `yaml:"name"`
	Filter   string      `yaml:"filter"`
	Criteria []Criterion `yaml:"criteria"`
}

// Criterion mirrors segment.Criterion with a loosely typed value.
type Criterion struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"op"`
	Value    any    `yaml:"value"`
}

// Load decodes a fixture document from r.
func Load(r io.Reader) (Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Fixture{}, nil
		}
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// LoadFile decodes the fixture at path.
func LoadFile(path string) (Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()
	return Load(file)
}

// Input converts d into the input accepted by the segment service.
func (d Definition) Input() (segment.DefinitionInput, error) {
	input := segment.DefinitionInput{Name: d.Name, Filter: d.Filter}
	for i, c := range d.Criteria {
		value, err := toValue(c.Value)
		if err != nil {
			return segment.DefinitionInput{}, fmt.Errorf("segment %q criterion %d: %w", d.Name, i, err)
		}
		input.Criteria = append(input.Criteria, segment.Criterion{
			Field:    segment.Field(strings.TrimSpace(c.Field)),
			Operator: segment.Operator(strings.TrimSpace(c.Operator)),
			Value:    value,
		})
	}
	return input, nil
}

func toValue(raw any) (segment.Value, error) {
	switch v := raw.(type) {
	case nil:
		return segment.Value{}, nil
	case int:
		return segment.Number(float64(v)), nil
	case float64:
		return segment.Number(v), nil
	case string:
		return segment.Text(v), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			text, ok := item.(string)
			if !ok {
				return segment.Value{}, fmt.Errorf("set items must be strings, got %T", item)
			}
			items = append(items, text)
		}
		return segment.Set(items...), nil
	default:
		return segment.Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// CustomerWriter stores customers.
type CustomerWriter interface {
	PutCustomers(ctx context.Context, customers []segment.Customer) error
}

// DefinitionCreator creates segment definitions.
type DefinitionCreator interface {
	CreateDefinition(ctx context.Context, input segment.DefinitionInput) (segment.Definition, error)
}

// Result reports what Apply stored.
type Result struct {
	Customers   int
	Definitions []segment.Definition
}

// Apply stores the fixture's customers, then creates its definitions.
// Definitions go through the segment service so they are validated like
// operator input.
func Apply(ctx context.Context, customers CustomerWriter, definitions DefinitionCreator, f Fixture) (Result, error) {
	var result Result
	if len(f.Customers) > 0 {
		if err := customers.PutCustomers(ctx, f.Customers); err != nil {
			return result, fmt.Errorf("put customers: %w", err)
		}
		result.Customers = len(f.Customers)
	}
	for _, d := range f.Definitions {
		input, err := d.Input()
		if err != nil {
			return result, err
		}
		created, err := definitions.CreateDefinition(ctx, input)
		if err != nil {
			return result, fmt.Errorf("create segment %q: %w", d.Name, err)
		}
		result.Definitions = append(result.Definitions, created)
	}
	return result, nil
}
