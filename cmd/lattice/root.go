package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/lattice/internal/config"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/graphdoc"
	"github.com/spf13/cobra"
)

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lattice",
		Short:         "Lattice builds expression graphs and sends them to an evaluation service",
		Long:          `Lattice reads graph documents (YAML or JSON), encodes them into the deduplicated wire format and requests maps or values from a remote evaluation service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("config", config.DefaultFile, "Configuration file (YAML or JSON)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("endpoint", "", "Base URL of the evaluation service (empty uses the offline fake)")

	root.AddCommand(
		newEncodeCmd(),
		newGetMapCmd(),
		newValueCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig layers the configuration file, the environment and the command's flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.NewWithWriter(cmd.ErrOrStderr(), level), nil
}

// readDocument parses the graph document at path, or stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) (*graphdoc.Document, error) {
	if path != "-" {
		return graphdoc.Load(path)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return graphdoc.Parse(data)
}
