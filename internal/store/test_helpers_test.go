package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filter"
	"github.com/TencentBlueKing/bk-audit-sub000/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedEvents creates an audit_event table with four rows.
func seedEvents(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE audit_event (
			username TEXT,
			action_id TEXT,
			access_source_ip TEXT,
			result_code INTEGER
		)`,
		`INSERT INTO audit_event VALUES ('alice', 'login', '10.0.0.1', 0)`,
		`INSERT INTO audit_event VALUES ('bob', 'delete_host', '10.0.0.2', 403)`,
		`INSERT INTO audit_event VALUES ('alice', 'delete_host', NULL, 0)`,
		`INSERT INTO audit_event VALUES ('carol_x', 'view', '10.0.0.9', 500)`,
	}
	for _, stmt := range stmts {
		if err := s.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

// cond builds a leaf over the test catalog.
func cond(field string, op filter.OperatorID, text string) *filter.Condition {
	return &filter.Condition{Field: testutil.Field(field), Operator: op, Text: text}
}

// tree builds a group from children.
func tree(c filter.Connector, children ...filter.Node) *filter.Group {
	g := filter.NewGroup(c)
	for _, child := range children {
		g.Append(child)
	}
	return g
}
