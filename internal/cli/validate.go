package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qbdsl/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                     `json:"valid"`
	Config    string                   `json:"config"`
	Operators int                      `json:"operators"`
	Widgets   int                      `json:"widgets"`
	Fields    int                      `json:"fields"`
	Errors    []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-path]",
		Short: "Validate a configuration",
		Long: `Load a CUE configuration and check it for inconsistencies:
inverses that do not exist or do not point back, operators without a
primitive, fields without a type or widget.

The path defaults to --config; without either the built-in configuration
is checked.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := *rootOpts
			if len(args) == 1 {
				opts.Config = args[0]
			}
			return runValidate(cmd, &opts)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts *RootOptions) error {
	formatter := newFormatter(cmd, opts)

	name := opts.Config
	if name == "" {
		name = "built-in"
	}

	cfg, verrs, err := loadConfig(opts)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) && loadErr.Code == config.ErrCodeNotFound {
			return outputConfigError(formatter, err)
		}
		// A config that does not load is invalid, not a command error.
		verrs = []config.ValidationError{loadValidationError(err)}
	}

	result := ValidationResult{
		Valid:  len(verrs) == 0,
		Config: name,
		Errors: verrs,
	}
	if cfg != nil {
		result.Operators = len(cfg.Operators)
		result.Widgets = len(cfg.Widgets)
		result.Fields = len(cfg.Fields)
	}

	if !result.Valid {
		if opts.Format == "json" {
			_ = formatter.Error(ErrCodeInvalidConfig,
				fmt.Sprintf("%d validation error(s)", len(verrs)), verrs)
		} else {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✗ %s: %d validation error(s)\n", name, len(verrs))
			for _, e := range verrs {
				fmt.Fprintf(w, "  %s\n", e.Error())
			}
		}
		return NewExitError(ExitFailure, "configuration is invalid")
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s: %d operator(s), %d widget(s), %d field(s)",
		name, result.Operators, result.Widgets, result.Fields))
}

// loadValidationError reports a load failure as a validation error,
// keeping the load error's code and position.
func loadValidationError(err error) config.ValidationError {
	var loadErr *config.LoadError
	if !errors.As(err, &loadErr) {
		return config.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
	}
	field := loadErr.Path
	if field == "" {
		field = "load"
	}
	msg := loadErr.Message
	if loadErr.Pos.IsValid() {
		msg = fmt.Sprintf("%s (line %d)", msg, loadErr.Pos.Line())
	}
	return config.ValidationError{Field: field, Message: msg, Code: loadErr.Code}
}
