package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/lattice"
	httpAdapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the evaluation stub server",
		Long:  `Starts a local stub of the evaluation service. It validates and summarizes expressions and issues map ids, without evaluating anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := httpAdapter.NewServer(httpAdapter.ServerConfig{
				Addr:     cfg.Serve.Addr,
				Version:  strings.TrimSpace(lattice.Version),
				Logger:   logger,
				Gatherer: reg,
			})
			if err := server.Serve(ctx); err != nil {
				return err
			}
			logger.Info("evaluation stub stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	return cmd
}
