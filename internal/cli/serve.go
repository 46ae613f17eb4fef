package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pravshot/nhutils/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve datasets over HTTP",
		Long: `Serve dataset assembly over HTTP until interrupted.

Routes:
  GET /datasets?vars=DIQ010,RIDAGEYR&years=2015-2016&join=outer   CSV dataset
  GET /catalog/years                                              supported cycles
  GET /healthz                                                    liveness

Example:
  nhutils serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, addr, cmd)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $SERVER_ADDR or :8080)")
	return cmd
}

func runServe(opts *RootOptions, addr string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config
	if addr == "" {
		addr = cfg.Server.Addr
	}

	st, err := opts.openStack(formatter)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger.Error("error closing ledger", "error", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(st.engine, opts.logger)
	err = srv.ListenAndServe(ctx, addr, cfg.Server.ReadHeaderTimeout, cfg.Server.ShutdownTimeout)
	if err != nil && err != context.Canceled {
		return fail(formatter, ExitFailure, ErrCodeGeneric, "server error", err)
	}
	opts.logger.Info("server stopped gracefully")
	return nil
}
