package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/config"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// CLI error codes (E300-E399). Configuration load errors keep the codes
// of the config package (E001-E006) and validation errors theirs (E2xx).
const (
	ErrCodeGeneric       = "E300" // Generic/unknown error
	ErrCodeTreeRead      = "E301" // Tree file could not be read
	ErrCodeTreeParse     = "E302" // Tree file is malformed
	ErrCodeWriteFailed   = "E303" // File write error
	ErrCodeStore         = "E304" // Store open/read/write failed
	ErrCodeNotFound      = "E305" // Saved query not found
	ErrCodeScenarios     = "E306" // Scenario directory error
	ErrCodeWarnings      = "E307" // Strict compile produced warnings
	ErrCodeServe         = "E308" // HTTP service failed
	ErrCodeInvalidConfig = "E309" // Configuration failed validation
)

// loadConfig loads and validates the configuration named by --config.
func loadConfig(opts *RootOptions) (*config.Config, []config.ValidationError, error) {
	cfg, err := config.LoadPath(opts.Config)
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.Validate(cfg), nil
}

// loadCompiler builds a compiler from --config, failing on any load or
// validation problem.
func loadCompiler(opts *RootOptions, formatter *OutputFormatter) (*compiler.Compiler, error) {
	cfg, verrs, err := loadConfig(opts)
	if err != nil {
		return nil, outputConfigError(formatter, err)
	}
	if len(verrs) > 0 {
		_ = formatter.Error(ErrCodeInvalidConfig, "configuration is invalid", verrs)
		return nil, WrapExitError(ExitCommandError, "configuration is invalid", config.AsError(verrs))
	}
	formatter.VerboseLog("Loaded configuration: %d operator(s), %d widget(s), %d field(s)",
		len(cfg.Operators), len(cfg.Widgets), len(cfg.Fields))
	return compiler.New(cfg, compiler.WithLogger(newLogger(opts, formatter.GetErrWriter()))), nil
}

// outputConfigError reports a configuration load error (exit code 2).
func outputConfigError(formatter *OutputFormatter, err error) error {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "loading config", err)
}

// readTree reads and parses a tree file, reporting failures (exit code 2).
func readTree(formatter *OutputFormatter, path string) (ruletree.Node, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeTreeRead, fmt.Sprintf("reading tree: %v", err), nil)
		return nil, nil, WrapExitError(ExitCommandError, "reading tree", err)
	}
	tree, err := ruletree.Parse(data)
	if err != nil {
		var perr *ruletree.ParseError
		var details any
		if errors.As(err, &perr) {
			details = map[string]any{"path": perr.Path, "line": perr.Line}
		}
		_ = formatter.Error(ErrCodeTreeParse, fmt.Sprintf("parsing %s: %v", path, err), details)
		return nil, nil, WrapExitError(ExitCommandError, "parsing tree", err)
	}
	return tree, data, nil
}
