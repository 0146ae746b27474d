package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/lock"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/metrics"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/pipeline"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/warehouse"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/web"
)

type ExtractOptions struct {
	Playlist string
	MaxPages int
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Store the playlist's current track listing as a pending snapshot",
		RunE: func(c *cobra.Command, args []string) error {
			if c.Flags().Changed("max-pages") {
				a.cfg.Spotify.MaxPages = opts.MaxPages
			}
			return a.runStage(c, pipeline.StageExtract, func(ctx context.Context, p *pipeline.Pipeline, runID string) (any, error) {
				return p.Extract(ctx, runID, opts.Playlist)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Playlist, "playlist", "p", "", "Playlist ID, URL or URI (overrides SPOTIFY_PLAYLIST)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Maximum listing pages to fetch, 0 for all (overrides SPOTIFY_MAX_PAGES)")
	return cmd
}

type NormalizeOptions struct {
	Parquet bool
}

func newNormalizeCmd(a *app) *cobra.Command {
	opts := &NormalizeOptions{}

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Derive songs, albums and artists tables from pending snapshots",
		RunE: func(c *cobra.Command, args []string) error {
			if c.Flags().Changed("parquet") {
				a.cfg.WriteParquet = opts.Parquet
			}
			return a.runStage(c, pipeline.StageNormalize, func(ctx context.Context, p *pipeline.Pipeline, runID string) (any, error) {
				return p.Normalize(ctx, runID)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Parquet, "parquet", false, "Also write Parquet copies of each table (overrides WRITE_PARQUET)")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load new table files into the warehouse",
		RunE: func(c *cobra.Command, args []string) error {
			return a.runStage(c, pipeline.StageLoad, func(ctx context.Context, p *pipeline.Pipeline, runID string) (any, error) {
				return p.Load(ctx, runID)
			})
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, normalize and load in sequence",
		Long: `Run extract, normalize and load under one run ID. The load stage is
skipped when DATABASE_URL is not set.`,
		RunE: func(c *cobra.Command, args []string) error {
			if c.Flags().Changed("max-pages") {
				a.cfg.Spotify.MaxPages = opts.MaxPages
			}
			return a.runStage(c, "run", func(ctx context.Context, p *pipeline.Pipeline, runID string) (any, error) {
				return p.Run(ctx, runID, opts.Playlist)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Playlist, "playlist", "p", "", "Playlist ID, URL or URI (overrides SPOTIFY_PLAYLIST)")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "Maximum listing pages to fetch, 0 for all (overrides SPOTIFY_MAX_PAGES)")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply warehouse schema migrations",
		RunE: func(c *cobra.Command, args []string) error {
			return warehouse.Migrate(a.cfg.DatabaseURL, a.logger.Named("migrate"))
		},
	}
}

type ServeOptions struct {
	Addr string
}

func newServeCmd(a *app) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger API and Prometheus metrics",
		RunE: func(c *cobra.Command, args []string) error {
			if c.Flags().Changed("addr") {
				a.cfg.ServeAddr = opts.Addr
			}

			p, err := pipeline.Open(c.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer p.Close()

			server := web.NewServer(web.ServerConfig{
				Addr:   a.cfg.ServeAddr,
				Runner: p,
				Logger: a.logger.Named("web"),
			})
			return server.Run(c.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", web.DefaultAddr, "Listen address (overrides SERVE_ADDR)")
	return cmd
}

// runStage opens a pipeline, runs fn under a fresh run ID and prints the
// result as JSON. A held normalize lock is not an error. Metrics are pushed
// when a Pushgateway is configured.
func (a *app) runStage(c *cobra.Command, stage string, fn func(context.Context, *pipeline.Pipeline, string) (any, error)) error {
	ctx := c.Context()
	runID := pipeline.NewRunID()
	logger := a.logger.With(zap.String("run_id", runID), zap.String("stage", stage))

	p, err := pipeline.Open(ctx, a.cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := fn(ctx, p, runID)
	a.pushMetrics(stage)

	if errors.Is(err, lock.ErrNotAcquired) {
		logger.Info("another normalize run holds the lock, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

func (a *app) pushMetrics(stage string) {
	if a.cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.Push(a.cfg.PushgatewayURL, "spotify-etl-"+stage); err != nil {
		a.logger.Warn("failed to push metrics", zap.Error(err))
	}
}
