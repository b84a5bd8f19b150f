package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/samwire/internal/journal"
	"github.com/roach88/samwire/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Manifest string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve server-rendered pages over HTTP",
		Long: `Start the HTTP front end.

Every GET renders the page for its path. POST /render accepts proposals
before rendering, /metrics exposes loop metrics, and with --db every
request's loop events are journaled and readable at /trace/<run>.

Example:
  samwire serve --addr :8080 --manifest ./app.cue --db ./samwire.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "CUE manifest file or package directory")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (journaling disabled if empty)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.newLogger(os.Stderr)

	m, err := loadManifest(opts.Manifest)
	if err != nil {
		return err
	}

	cfg := server.Config{Addr: opts.Addr, Manifest: m, Logger: logger}
	if opts.Database != "" {
		logger.Info("opening journal", "path", opts.Database)
		j, err := journal.Open(opts.Database, journal.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		cfg.Journal = j
	}

	// Use the command's context if set (tests), otherwise background.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
