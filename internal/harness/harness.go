package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/querydsl"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// Harness runs scenarios. Configurations are loaded once per path.
type Harness struct {
	logger  *slog.Logger
	configs map[string]*config.Config
}

// New returns a harness that reports compile warnings to logger. A nil
// logger discards them.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger, configs: map[string]*config.Config{}}
}

// Run executes a scenario with a fresh harness.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the scenario's configuration (built-in when empty)
// 2. Decode and compile the tree
// 3. Check the expectation
// 4. Evaluate assertions
//
// An error means the scenario could not run; failed expectations are
// reported in Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	cfg, err := h.config(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tree, err := ruletree.Decode(&scenario.Tree)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}

	c := compiler.New(cfg, compiler.WithLogger(h.logger.With("scenario", scenario.Name)))
	compiled := c.Compile(tree)

	result := NewResult(scenario.Name)
	result.compiled = compiled
	if compiled.Warnings != nil {
		result.Warnings = compiled.Warnings
	}
	if result.Query, err = querydsl.MarshalCanonical(compiled.Query); err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}
	if result.Hash, err = compiled.Hash(); err != nil {
		return nil, fmt.Errorf("failed to hash query: %w", err)
	}

	for _, msg := range checkExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) config(path string) (*config.Config, error) {
	if cfg, ok := h.configs[path]; ok {
		return cfg, nil
	}
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, config.AsError(errs)
	}
	h.configs[path] = cfg
	return cfg, nil
}
