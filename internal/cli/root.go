// Package cli defines the spotify-etl command tree.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/config"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/logging"
)

// app carries state shared by every subcommand once the root has loaded it.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	logLevel  string
	logPretty bool
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "spotify-etl",
		Short: "spotify-etl - Spotify playlist ETL pipeline",
		Long: `spotify-etl extracts a Spotify playlist listing into object storage,
normalizes pending snapshots into songs, albums and artists tables, and loads
those tables into a PostgreSQL warehouse.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "Human-readable console logs (overrides LOG_PRETTY)")

	rootCmd.AddCommand(
		newExtractCmd(a),
		newNormalizeCmd(a),
		newLoadCmd(a),
		newRunCmd(a),
		newMigrateCmd(a),
		newServeCmd(a),
	)

	return rootCmd
}

// init loads configuration and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.LogPretty = a.logPretty
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
