package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/financeai/internal/logging"
	"github.com/nhle/financeai/internal/mockapi"
)

func newMockServerCommand(flags *globalFlags) *cobra.Command {
	var addr string
	var latency time.Duration

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local stand-in for the FinanceAI backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			logger := logging.Console(cmd.ErrOrStderr(), level)

			cfg := mockapi.DefaultConfig()
			cfg.Latency = latency
			srv, err := mockapi.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Demo account: %s / %s\n", cfg.DemoUser.Email, cfg.DemoUser.Password)

			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().DurationVar(&latency, "latency", 0, "delay every response")

	return cmd
}
