package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fortuna/livescore/internal/config"
	"github.com/fortuna/livescore/internal/logging"
)

const (
	serviceName    = "livescore"
	serviceVersion = "1.0.0"
)

var (
	cfg    config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:     serviceName,
		Short:   "Multi-source live score ingestion service",
		Version: serviceVersion,
		Long: `livescore pulls scores from ESPN and CBS Sports, reconciles them into
canonical games, persists them to Postgres and broadcasts changes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			logCfg := cfg.Logging()
			// Commands that print JSON keep stdout clean.
			if cmd.Name() != "serve" {
				logCfg.Output = os.Stderr
			}
			logger = logging.New(logCfg).With("service", serviceName)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, ingestCmd, reconcileCmd, backfillCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
