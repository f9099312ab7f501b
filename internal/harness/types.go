package harness

import (
	"encoding/json"

	"github.com/roach88/qbdsl/internal/compiler"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and all assertions hold.
	Pass bool `json:"pass"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Query is the compiled query as canonical JSON; null when absent.
	Query json.RawMessage `json:"query"`

	// Hash is the query's content hash.
	Hash string `json:"hash"`

	// Warnings are the compile warnings.
	Warnings compiler.Warnings `json:"warnings"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	compiled *compiler.Result
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Pass:     true,
		Scenario: name,
		Warnings: compiler.Warnings{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Compiled returns the compiler's result the scenario produced.
func (r *Result) Compiled() *compiler.Result {
	return r.compiled
}
