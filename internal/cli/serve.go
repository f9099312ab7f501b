package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/qbdsl/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr            string
	ShutdownTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP compile service",
		Long: `Serve POST /v1/compile, GET /v1/health and GET /metrics.

The service stops gracefully on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight requests")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	c, err := loadCompiler(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())
	srv := server.New(c,
		server.WithLogger(logger),
		server.WithShutdownTimeout(opts.ShutdownTimeout),
	)

	formatter.VerboseLog("Listening on %s", opts.Addr)
	if err := srv.Run(ctx, opts.Addr); err != nil && !errors.Is(err, context.Canceled) {
		_ = formatter.Error(ErrCodeServe, err.Error(), nil)
		return WrapExitError(ExitCommandError, "serving", err)
	}
	return nil
}
