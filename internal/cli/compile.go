package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/querydsl"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
	Strict bool
}

// CompileOutput is the JSON payload of a compile.
type CompileOutput struct {
	Query    json.RawMessage   `json:"query"`
	Warnings compiler.Warnings `json:"warnings"`
	Hash     string            `json:"hash"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <tree-file>",
		Short: "Compile a rule tree into a search query",
		Long: `Compile a JSON rule tree into a boolean search query.

Rules that cannot be expressed are skipped and reported as warnings.
With --strict any warning makes the command fail.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled query to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when the compile reports warnings")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, treePath string) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	c, err := loadCompiler(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	tree, _, err := readTree(formatter, treePath)
	if err != nil {
		return err
	}

	result := c.Compile(tree)
	out, err := newCompileOutput(result)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "rendering query", err)
	}
	formatter.VerboseLog("Compiled %s: %d warning(s), hash %s", treePath, len(out.Warnings), out.Hash)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(indent(out.Query), '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing %s: %v", opts.Output, err), nil)
			return WrapExitError(ExitCommandError, "writing output", err)
		}
	}

	if opts.Strict && len(out.Warnings) > 0 {
		_ = formatter.Error(ErrCodeWarnings,
			fmt.Sprintf("compile reported %d warning(s)", len(out.Warnings)), out.Warnings)
		return NewExitError(ExitFailure, "compile reported warnings")
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}

	for _, w := range out.Warnings {
		formatter.Warn("%s", w.Error())
	}
	if opts.Output != "" {
		return formatter.Success(fmt.Sprintf("✓ Wrote %s", opts.Output))
	}
	return formatter.Success(string(indent(out.Query)))
}

// newCompileOutput renders a compile result with its canonical query.
func newCompileOutput(result *compiler.Result) (CompileOutput, error) {
	hash, err := result.Hash()
	if err != nil {
		return CompileOutput{}, err
	}
	query, err := querydsl.MarshalCanonical(result.Query)
	if err != nil {
		return CompileOutput{}, err
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = compiler.Warnings{}
	}
	return CompileOutput{Query: json.RawMessage(query), Warnings: warnings, Hash: hash}, nil
}

// indent pretty-prints JSON for humans, returning the input unchanged if
// it cannot.
func indent(data []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}
	return buf.Bytes()
}
