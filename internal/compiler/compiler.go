package compiler

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/querydsl"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// Compiler compiles rule trees against one configuration. It is immutable
// after New and safe for concurrent use.
type Compiler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger warnings are reported to. The default logger
// discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a compiler for cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Compiler {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Compiler{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the configuration the compiler was built with.
func (c *Compiler) Config() *config.Config {
	return c.cfg
}

// Result is the outcome of one compile.
type Result struct {
	// Query is nil when the tree produced nothing.
	Query    querydsl.Clause
	Warnings Warnings
}

// Absent reports whether the compile produced no query.
func (r *Result) Absent() bool {
	return r.Query == nil
}

// Hash returns the content hash of the query.
func (r *Result) Hash() (string, error) {
	return querydsl.Hash(r.Query)
}

// MarshalJSON renders {"query": ..., "warnings": [...]}; an absent query is
// null.
func (r *Result) MarshalJSON() ([]byte, error) {
	warnings := r.Warnings
	if warnings == nil {
		warnings = Warnings{}
	}
	return json.Marshal(struct {
		Query    querydsl.Clause `json:"query"`
		Warnings Warnings        `json:"warnings"`
	}{r.Query, warnings})
}

// Compile compiles a tree. It never fails: rules that cannot be expressed
// are skipped and reported in Result.Warnings.
func (c *Compiler) Compile(tree ruletree.Node) *Result {
	start := time.Now()
	meta := newCompileMeta(c.logger)

	clauses := c.compileNode(tree, false, meta)

	var query querydsl.Clause
	switch len(clauses) {
	case 0:
	case 1:
		query = clauses[0]
	default:
		// A rule at the root can emit several clauses; they must all hold.
		query = querydsl.NewBool(querydsl.Must, clauses...)
	}

	c.logger.Debug("tree compiled",
		"absent", query == nil,
		"warnings", len(meta.warnings),
		"duration", time.Since(start),
	)
	return &Result{Query: query, Warnings: meta.warnings}
}

// Canonical renders the result as canonical JSON, {"query", "warnings"}
// with sorted keys. Golden files and stored results use this form.
func (r *Result) Canonical() ([]byte, error) {
	warnings := r.Warnings
	if warnings == nil {
		warnings = Warnings{}
	}
	return querydsl.MarshalCanonical(map[string]any{
		"query":    r.Query,
		"warnings": warnings,
	})
}
