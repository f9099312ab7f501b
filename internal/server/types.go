package server

import (
	"encoding/json"

	"github.com/roach88/qbdsl/internal/compiler"
)

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	// Tree is the rule tree in the builder's JSON form.
	Tree json.RawMessage `json:"tree" binding:"required"`

	// Strict turns any warning into a 422 response.
	Strict bool `json:"strict"`
}

// CompileResponse is the answer to a compile.
type CompileResponse struct {
	// Query is the compiled query as canonical JSON; null when absent.
	Query json.RawMessage `json:"query"`

	Warnings compiler.Warnings `json:"warnings"`

	// Hash is the query's content hash.
	Hash string `json:"hash"`
}

// HealthResponse is the answer to GET /v1/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Operators int    `json:"operators"`
	Widgets   int    `json:"widgets"`
	Fields    int    `json:"fields"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`

	// Warnings are set when a strict compile failed.
	Warnings compiler.Warnings `json:"warnings,omitempty"`
}
