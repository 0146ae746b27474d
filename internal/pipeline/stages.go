package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/events"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/extract"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/load"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/lock"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/metrics"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/normalize"
)

// Metric status labels.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusSkipped = "skipped"
)

// RunResult collects the results of a full run. Load is nil when no
// warehouse is configured.
type RunResult struct {
	RunID     string            `json:"run_id"`
	Extract   *extract.Result   `json:"extract"`
	Normalize *normalize.Result `json:"normalize"`
	Load      *load.Result      `json:"load,omitempty"`
}

// Extract stores one raw snapshot of playlistRef, or of the configured
// playlist when playlistRef is empty.
func (p *Pipeline) Extract(ctx context.Context, runID, playlistRef string) (*extract.Result, error) {
	if playlistRef == "" {
		playlistRef = p.playlist
	}

	var result *extract.Result
	err := p.observe(StageExtract, func() error {
		extractor, err := p.extractor(ctx)
		if err != nil {
			return err
		}
		result, err = extractor.Run(ctx, playlistRef, runID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.SnapshotsExtracted.Inc()
	p.publish(ctx, events.Event{
		Type:      events.TypeSnapshotExtracted,
		RunID:     runID,
		Key:       result.Key,
		Timestamp: result.ExtractedAt,
	})

	return result, nil
}

// Normalize processes every pending snapshot. When a locker is configured
// the run holds the normalize lock and returns lock.ErrNotAcquired if
// another run owns it.
func (p *Pipeline) Normalize(ctx context.Context, runID string) (*normalize.Result, error) {
	var result *normalize.Result
	err := p.observe(StageNormalize, func() error {
		run := func(ctx context.Context) error {
			var err error
			result, err = p.normalizer.Run(ctx)
			return err
		}
		if p.locker == nil {
			return run(ctx)
		}
		return p.locker.WithLock(ctx, NormalizeLockKey, p.lockTTL, run)
	})
	if err != nil {
		return nil, err
	}

	metrics.SnapshotsNormalized.Add(float64(len(result.Snapshots)))
	metrics.SnapshotsVanished.Add(float64(len(result.Vanished)))
	metrics.RelocationFailures.WithLabelValues("delete").Add(float64(len(result.DeleteFailures)))

	now := p.now()
	evs := make([]events.Event, 0, len(result.Snapshots))
	for _, snap := range result.Snapshots {
		rows := make(map[string]int64, len(snap.Rows))
		for table, n := range snap.Rows {
			rows[table] = int64(n)
			metrics.RowsDerived.WithLabelValues(table).Add(float64(n))
		}
		evs = append(evs, events.Event{
			Type:      events.TypeSnapshotNormalized,
			RunID:     runID,
			Key:       snap.Key,
			Outputs:   snap.Outputs,
			Rows:      rows,
			Timestamp: now,
		})
	}
	p.publish(ctx, evs...)

	return result, nil
}

// Load copies new table files into the warehouse.
// Returns ErrNoWarehouse when no warehouse is configured.
func (p *Pipeline) Load(ctx context.Context, runID string) (*load.Result, error) {
	if p.loader == nil {
		return nil, ErrNoWarehouse
	}

	var result *load.Result
	err := p.observe(StageLoad, func() error {
		var err error
		result, err = p.loader.Run(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	evs := make([]events.Event, 0, len(result.Files))
	for _, f := range result.Files {
		metrics.RowsLoaded.WithLabelValues(f.Table).Add(float64(f.Rows))
		evs = append(evs, events.Event{
			Type:      events.TypeFileLoaded,
			RunID:     runID,
			Key:       f.Key,
			Rows:      map[string]int64{f.Table: f.Rows},
			Timestamp: result.LoadedAt,
		})
	}
	p.publish(ctx, evs...)

	return result, nil
}

// Run executes extract, normalize and, when a warehouse is configured, load
// under a single run ID. The first failing stage stops the run.
func (p *Pipeline) Run(ctx context.Context, runID, playlistRef string) (*RunResult, error) {
	result := &RunResult{RunID: runID}

	var err error
	if result.Extract, err = p.Extract(ctx, runID, playlistRef); err != nil {
		return result, err
	}
	if result.Normalize, err = p.Normalize(ctx, runID); err != nil {
		return result, err
	}
	if !p.HasWarehouse() {
		p.logger.Info("no warehouse configured, skipping load", zap.String("run_id", runID))
		return result, nil
	}
	if result.Load, err = p.Load(ctx, runID); err != nil {
		return result, err
	}
	return result, nil
}

// observe times fn and records the stage outcome.
func (p *Pipeline) observe(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RunDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())

	status := statusSuccess
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		status = statusSkipped
	case err != nil:
		status = statusError
	}
	metrics.RunsTotal.WithLabelValues(stage, status).Inc()

	switch status {
	case statusSkipped:
		p.logger.Info("stage skipped, lock held by another run", zap.String("stage", stage))
	case statusError:
		p.logger.Error("stage failed", zap.String("stage", stage), zap.Error(err))
	}
	return err
}
