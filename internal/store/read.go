package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const savedQueryColumns = `seq, id, name, tree, query, query_hash, warnings`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSavedQuery(row scanner) (SavedQuery, error) {
	var (
		q        SavedQuery
		query    string
		warnings string
	)
	err := row.Scan(&q.Seq, &q.ID, &q.Name, &q.Tree, &query, &q.QueryHash, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, ErrNotFound
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("scan saved query: %w", err)
	}
	q.Query = []byte(query)
	q.Warnings = []byte(warnings)
	return q, nil
}

// GetQuery retrieves a saved query by ID.
// Returns ErrNotFound if no record has that ID.
func (s *Store) GetQuery(ctx context.Context, id string) (SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+savedQueryColumns+`
		FROM saved_queries
		WHERE id = ?
	`, id)
	q, err := scanSavedQuery(row)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get query %s: %w", id, err)
	}
	return q, nil
}

// LatestByName returns the most recently saved query with the given name.
// Returns ErrNotFound if the name was never saved.
func (s *Store) LatestByName(ctx context.Context, name string) (SavedQuery, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+savedQueryColumns+`
		FROM saved_queries
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name)
	q, err := scanSavedQuery(row)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("get query named %q: %w", name, err)
	}
	return q, nil
}

// ListQueries returns all saved queries ordered by seq ASC, id COLLATE
// BINARY ASC. Returns an empty slice (not nil) when the store is empty.
func (s *Store) ListQueries(ctx context.Context) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+savedQueryColumns+`
		FROM saved_queries
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query saved queries: %w", err)
	}
	defer rows.Close()

	queries := []SavedQuery{}
	for rows.Next() {
		q, err := scanSavedQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved queries: %w", err)
	}
	return queries, nil
}
