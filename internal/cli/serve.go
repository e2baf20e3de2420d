package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jujulu67/djlarian-react-sub002/internal/server"
	"github.com/Jujulu67/djlarian-react-sub002/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
	Token    string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reference batch endpoint",
		Long: `Serve the SQLite-backed reference batch endpoint until interrupted.

Routes:
  POST /api/inventory/batch
  GET  /api/inventory/{ownerId}
  GET  /api/admin/inventory
  GET  /api/admin/batches
  GET  /health

Example:
  batchsim serve --addr 127.0.0.1:8080 --db ./inventory.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "required bearer token (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.Server.DBPath = opts.Database
	}
	if opts.Token != "" {
		cfg.Server.Token = opts.Token
	}

	slog.Info("opening database", "path", cfg.Server.DBPath)
	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, server.Config{
		Token:        cfg.Server.Token,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       slog.Default(),
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving batch endpoint on %s. Press Ctrl-C to stop.\n", cfg.Server.Addr)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
