package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/querydsl"
)

// ErrNotFound is returned when no saved query matches.
var ErrNotFound = errors.New("saved query not found")

// SavedQuery is one stored compile. Query and Warnings hold canonical JSON;
// an absent query is stored as null.
type SavedQuery struct {
	Seq       int64           `json:"seq"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Tree      string          `json:"tree"`
	Query     json.RawMessage `json:"query"`
	QueryHash string          `json:"query_hash"`
	Warnings  json.RawMessage `json:"warnings"`
}

// FromResult builds a SavedQuery from a tree's source text and its compile
// result. ID and Seq are assigned by SaveQuery.
func FromResult(name string, tree []byte, res *compiler.Result) (SavedQuery, error) {
	query, err := querydsl.MarshalCanonical(res.Query)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("marshal query: %w", err)
	}
	hash, err := res.Hash()
	if err != nil {
		return SavedQuery{}, fmt.Errorf("hash query: %w", err)
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = compiler.Warnings{}
	}
	warningsJSON, err := querydsl.MarshalCanonical(warnings)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("marshal warnings: %w", err)
	}
	return SavedQuery{
		Name:      name,
		Tree:      string(tree),
		Query:     query,
		QueryHash: hash,
		Warnings:  warningsJSON,
	}, nil
}

// DecodeWarnings parses the stored warnings.
func (q SavedQuery) DecodeWarnings() (compiler.Warnings, error) {
	out := compiler.Warnings{}
	if len(q.Warnings) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(q.Warnings, &out); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return out, nil
}

func (q SavedQuery) validate() error {
	if q.Name == "" {
		return errors.New("name is required")
	}
	if q.QueryHash == "" {
		return errors.New("query hash is required")
	}
	if !json.Valid(q.Query) {
		return errors.New("query is not valid JSON")
	}
	if len(q.Warnings) > 0 && !json.Valid(q.Warnings) {
		return errors.New("warnings are not valid JSON")
	}
	return nil
}
