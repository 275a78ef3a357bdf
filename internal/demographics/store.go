// Package demographics reads municipal census rows from Postgres and rolls
// them up into the population summary reports embed.
package demographics

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads from a configurable schema and table. Census datasets differ
// in their columns, so rows come back as generic maps instead of a struct.
type Store struct {
	db     *sql.DB
	schema string
	table  string
}

func NewStore(db *sql.DB, schema, table string) *Store {
	if schema == "" {
		schema = "public"
	}
	if table == "" {
		table = "demographics"
	}
	return &Store{db: db, schema: schema, table: table}
}

// MunicipalityRows returns rows whose Municipality column contains the given
// name, case-insensitive and with Ñ folded to N on both sides so spellings
// like "Las Piñas" and "LAS PINAS" match each other.
func (s *Store) MunicipalityRows(ctx context.Context, municipality string) ([]map[string]any, error) {
	query := fmt.Sprintf(
		`SELECT * FROM %q.%q WHERE translate("Municipality", 'Ññ', 'Nn') ILIKE translate($1, 'Ññ', 'Nn') LIMIT 1000`,
		s.schema, s.table,
	)

	rows, err := s.db.QueryContext(ctx, query, "%"+municipality+"%")
	if err != nil {
		return nil, fmt.Errorf("query demographics: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
