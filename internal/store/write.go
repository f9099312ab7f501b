package store

import (
	"context"
	"fmt"
)

// SaveQuery inserts a saved query and returns the stored record.
// Uses ON CONFLICT(name, query_hash) DO NOTHING for idempotency: saving
// the same compiled query under the same name returns the existing record
// and its original ID.
func (s *Store) SaveQuery(ctx context.Context, q SavedQuery) (SavedQuery, error) {
	if err := q.validate(); err != nil {
		return SavedQuery{}, fmt.Errorf("save query: %w", err)
	}
	warnings := string(q.Warnings)
	if warnings == "" {
		warnings = "[]"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (id, name, tree, query, query_hash, warnings)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, query_hash) DO NOTHING
	`,
		s.ids.Generate(),
		q.Name,
		q.Tree,
		string(q.Query),
		q.QueryHash,
		warnings,
	)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("save query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+savedQueryColumns+`
		FROM saved_queries
		WHERE name = ? AND query_hash = ?
	`, q.Name, q.QueryHash)
	saved, err := scanSavedQuery(row)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("save query: %w", err)
	}
	return saved, nil
}

// DeleteQuery removes a saved query by ID.
// Returns ErrNotFound if no record has that ID.
func (s *Store) DeleteQuery(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete query %s: %w", id, ErrNotFound)
	}
	return nil
}
