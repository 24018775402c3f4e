package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TencentBlueKing/bk-audit-sub000/internal/filtercodec"
)

// ErrNotFound is returned when no saved filter has the requested name.
var ErrNotFound = errors.New("saved filter not found")

// Source records which editor view produced a saved payload.
type Source string

const (
	SourceStructured Source = "structured"
	SourceTextual    Source = "textual"
)

// SavedFilter is one row of saved_filters.
type SavedFilter struct {
	Name        string
	Payload     string
	Source      Source
	Fingerprint string // empty when the payload does not decode
	Seq         int64
}

// Save stores payload under name, replacing any previous version.
// Every save takes the next seq, so List reflects save order.
//
// The payload is stored verbatim. It is fingerprinted only if it decodes.
func (s *Store) Save(ctx context.Context, name, payload string, source Source) (SavedFilter, error) {
	if name == "" {
		return SavedFilter{}, fmt.Errorf("filter name is required")
	}
	if source == "" {
		source = SourceStructured
	}

	fingerprint := ""
	if root, err := filtercodec.Decode([]byte(payload)); err == nil {
		fingerprint, err = filtercodec.Fingerprint(root)
		if err != nil {
			return SavedFilter{}, fmt.Errorf("fingerprint %q: %w", name, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM saved_filters",
	).Scan(&seq); err != nil {
		return SavedFilter{}, fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_filters (name, payload, source, fingerprint, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			source = excluded.source,
			fingerprint = excluded.fingerprint,
			seq = excluded.seq
	`, name, payload, string(source), fingerprint, seq)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return SavedFilter{}, fmt.Errorf("commit transaction: %w", err)
	}

	return SavedFilter{
		Name:        name,
		Payload:     payload,
		Source:      source,
		Fingerprint: fingerprint,
		Seq:         seq,
	}, nil
}

// Load returns the saved filter with the given name, or ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (SavedFilter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, payload, source, fingerprint, seq
		FROM saved_filters
		WHERE name = ?
	`, name)

	f, err := scanSavedFilter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedFilter{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return SavedFilter{}, err
	}
	return f, nil
}

// List returns all saved filters ordered by seq ASC, name COLLATE BINARY ASC.
// Returns an empty slice (not nil) when nothing has been saved.
func (s *Store) List(ctx context.Context) ([]SavedFilter, error) {
	return s.query(ctx, `
		SELECT name, payload, source, fingerprint, seq
		FROM saved_filters
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
}

// FindByFingerprint returns every saved filter whose decoded tree has the
// given fingerprint. Different spellings of the same tree share one.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) ([]SavedFilter, error) {
	if fingerprint == "" {
		return []SavedFilter{}, nil
	}
	return s.query(ctx, `
		SELECT name, payload, source, fingerprint, seq
		FROM saved_filters
		WHERE fingerprint = ?
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`, fingerprint)
}

// Delete removes the saved filter with the given name.
// Returns ErrNotFound if there was nothing to delete.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saved_filters WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete filter %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete filter %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved filters: %w", err)
	}
	defer rows.Close()

	filters := []SavedFilter{}
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved filters: %w", err)
	}
	return filters, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSavedFilter(row scanner) (SavedFilter, error) {
	var f SavedFilter
	var source string
	if err := row.Scan(&f.Name, &f.Payload, &source, &f.Fingerprint, &f.Seq); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedFilter{}, err
		}
		return SavedFilter{}, fmt.Errorf("scan saved filter: %w", err)
	}
	f.Source = Source(source)
	return f, nil
}
