package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/segment"
	"github.com/louisbranch/outreach/internal/services/outreach/storage"
)

// PutDefinition inserts or replaces one segment definition.
func (s *Store) PutDefinition(ctx context.Context, definition segment.Definition) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	definitionID := strings.TrimSpace(definition.ID)
	if definitionID == "" {
		return fmt.Errorf("definition id is required")
	}
	criteria := definition.Criteria
	if criteria == nil {
		criteria = []segment.Criterion{}
	}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO segment_definitions (id, name, criteria_json, filter, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   criteria_json = excluded.criteria_json,
		   filter = excluded.filter,
		   updated_at = excluded.updated_at`,
		definitionID,
		definition.Name,
		string(criteriaJSON),
		definition.Filter,
		toMillis(definition.CreatedAt),
		toMillis(definition.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put definition: %w", err)
	}
	return nil
}

// GetDefinition returns one segment definition by id.
func (s *Store) GetDefinition(ctx context.Context, definitionID string) (segment.Definition, error) {
	if err := s.ready(ctx); err != nil {
		return segment.Definition{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, name, criteria_json, filter, created_at, updated_at
		   FROM segment_definitions
		  WHERE id = ?`,
		strings.TrimSpace(definitionID),
	)
	definition, err := scanDefinition(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return segment.Definition{}, storage.ErrNotFound
	}
	if err != nil {
		return segment.Definition{}, fmt.Errorf("get definition: %w", err)
	}
	return definition, nil
}

// ListDefinitions returns every definition ordered by creation time.
func (s *Store) ListDefinitions(ctx context.Context) ([]segment.Definition, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, criteria_json, filter, created_at, updated_at
		   FROM segment_definitions
		  ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	definitions := []segment.Definition{}
	for rows.Next() {
		definition, err := scanDefinition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list definitions: %w", err)
		}
		definitions = append(definitions, definition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return definitions, nil
}

// DeleteDefinition removes one definition.
func (s *Store) DeleteDefinition(ctx context.Context, definitionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM segment_definitions WHERE id = ?`, strings.TrimSpace(definitionID))
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanDefinition(scan scanner) (segment.Definition, error) {
	var definition segment.Definition
	var criteriaJSON string
	var createdAt, updatedAt int64
	if err := scan(
		&definition.ID,
		&definition.Name,
		&criteriaJSON,
		&definition.Filter,
		&createdAt,
		&updatedAt,
	); err != nil {
		return segment.Definition{}, err
	}
	if err := json.Unmarshal([]byte(criteriaJSON), &definition.Criteria); err != nil {
		return segment.Definition{}, fmt.Errorf("decode criteria for %s: %w", definition.ID, err)
	}
	definition.CreatedAt = fromMillis(createdAt)
	definition.UpdatedAt = fromMillis(updatedAt)
	return definition, nil
}

var _ segment.DefinitionStore = (*Store)(nil)
