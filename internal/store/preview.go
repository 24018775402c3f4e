package store

import (
	"context"
	"fmt"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/querysql"
)

// PreviewResult holds the rows a filter matched, in rowid order.
type PreviewResult struct {
	SQL     string
	Columns []string
	Rows    [][]any
}

// Preview runs root against table in the store's database and returns at
// most limit rows. A limit of zero or less returns every match.
//
// Columns are scanned generically; []byte values are returned as strings.
func (s *Store) Preview(ctx context.Context, table string, root *filter.Group, limit int) (*PreviewResult, error) {
	query, params, err := querysql.NewSQLCompiler().CompileSelect(table, root, limit)
	if err != nil {
		return nil, fmt.Errorf("compile preview: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("run preview on %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("preview columns: %w", err)
	}

	result := &PreviewResult{SQL: query, Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan preview row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preview rows: %w", err)
	}
	return result, nil
}
