package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/spf13/cobra"

	"github.com/soderasen-au/go-sheetmerge/config"
	"github.com/soderasen-au/go-sheetmerge/server"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "sheetmerge",
		Short:        "Merge spreadsheets on a key column and print paginated reports",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")

	rootCmd.AddCommand(serveCmd(), renderCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(logName string) (*config.Config, *zerolog.Logger, error) {
	cfg, res := config.Load(configPath)
	if res != nil {
		return nil, nil, res
	}
	if err := os.MkdirAll(cfg.System.LogFolder, 0o755); err != nil {
		return nil, nil, err
	}
	logger, err := loggers.GetLogger(filepath.Join(cfg.System.LogFolder, logName))
	if err != nil {
		return nil, nil, fmt.Errorf("GetLogger: %w", err)
	}
	if !cfg.System.Debug {
		l := logger.Level(zerolog.InfoLevel)
		logger = &l
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup("sheetmerge.log")
			if err != nil {
				return err
			}
			srv, res := server.New(cfg, logger)
			if res != nil {
				return res
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.OutOrStdout(), "sheetmerge listening on http://%s\n", cfg.Server.Addr())
			if res = srv.Run(ctx); res != nil {
				return res
			}
			return nil
		},
	}
}
