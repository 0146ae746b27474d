// Package normalize turns pending raw snapshots into songs, albums and
// artists tables and moves the snapshots to the processed prefix.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/layout"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/storage"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/tables"
)

// Service normalizes every pending snapshot in one pass.
type Service struct {
	store   storage.Store
	layout  layout.Layout
	now     func() time.Time
	logger  *zap.Logger
	parquet bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to name table files.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithParquet also writes a Parquet copy of each table.
func WithParquet(enabled bool) Option {
	return func(s *Service) {
		s.parquet = enabled
	}
}

// New creates a normalize service.
func New(store storage.Store, l layout.Layout, opts ...Option) *Service {
	s := &Service{
		store:  store,
		layout: l,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SnapshotResult describes the tables derived from one snapshot.
type SnapshotResult struct {
	Key          string         `json:"key"`
	ProcessedKey string         `json:"processed_key"`
	Rows         map[string]int `json:"rows"`
	Outputs      []string       `json:"outputs"`
	Relocated    bool           `json:"relocated"`
}

// Result summarizes a normalize run.
type Result struct {
	Snapshots []SnapshotResult `json:"snapshots"`
	// Skipped lists pending keys that are not snapshots.
	Skipped []string `json:"skipped,omitempty"`
	// Vanished lists snapshots removed by someone else before relocation.
	Vanished []string `json:"vanished,omitempty"`
	// DeleteFailures lists snapshots copied to processed but not deleted.
	DeleteFailures []string `json:"delete_failures,omitempty"`
}

// Run processes every snapshot under the pending prefix, then relocates them
// in listing order. A snapshot that fails to parse aborts the run before any
// relocation; table files already written stay in place. Delete failures
// during relocation are reported in the result, not as errors.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	objects, err := s.store.List(ctx, s.layout.Pending)
	if err != nil {
		return nil, fmt.Errorf("listing pending snapshots: %w", err)
	}

	result := &Result{Snapshots: []SnapshotResult{}}
	var last time.Time

	for _, obj := range objects {
		if !s.layout.IsSnapshot(obj.Key) {
			s.logger.Debug("skipping non-snapshot object", zap.String("key", obj.Key))
			result.Skipped = append(result.Skipped, obj.Key)
			continue
		}

		ts := s.now()
		if !ts.After(last) {
			ts = last.Add(time.Microsecond)
		}
		last = ts

		snap, err := s.process(ctx, obj.Key, ts)
		if err != nil {
			return nil, err
		}
		result.Snapshots = append(result.Snapshots, *snap)
	}

	for i := range result.Snapshots {
		snap := &result.Snapshots[i]
		if err := s.relocate(ctx, snap, result); err != nil {
			return nil, err
		}
	}

	s.logger.Info("normalize run complete",
		zap.Int("snapshots", len(result.Snapshots)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("delete_failures", len(result.DeleteFailures)),
	)

	return result, nil
}

// process derives and writes the three tables for one snapshot.
func (s *Service) process(ctx context.Context, key string, ts time.Time) (*SnapshotResult, error) {
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	snap, err := playlist.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", key, err)
	}

	set := tables.Derive(snap)
	res := &SnapshotResult{
		Key:  key,
		Rows: make(map[string]int, len(tables.All)),
	}

	for _, t := range tables.All {
		data, err := tables.EncodeCSV(set, t)
		if err != nil {
			return nil, fmt.Errorf("encoding %s table: %w", t, err)
		}

		outKey := s.layout.TableKey(t, ts)
		if err := s.store.Put(ctx, outKey, data, map[string]string{"source-key": key}); err != nil {
			return nil, fmt.Errorf("writing %s table: %w", t, err)
		}
		res.Rows[string(t)] = set.Len(t)
		res.Outputs = append(res.Outputs, outKey)

		if s.parquet {
			pq, err := tables.EncodeParquet(set, t)
			if err != nil {
				return nil, fmt.Errorf("encoding %s parquet: %w", t, err)
			}
			pqKey := s.layout.ParquetKey(t, ts)
			if err := s.store.Put(ctx, pqKey, pq, map[string]string{"source-key": key}); err != nil {
				return nil, fmt.Errorf("writing %s parquet: %w", t, err)
			}
			res.Outputs = append(res.Outputs, pqKey)
		}
	}

	s.logger.Info("snapshot normalized",
		zap.String("key", key),
		zap.Int("songs", set.Len(tables.Songs)),
		zap.Int("albums", set.Len(tables.Albums)),
		zap.Int("artists", set.Len(tables.Artists)),
	)

	return res, nil
}

// relocate moves a snapshot from pending to processed by copy then delete.
func (s *Service) relocate(ctx context.Context, snap *SnapshotResult, result *Result) error {
	dst := s.layout.ProcessedKey(snap.Key)

	if err := s.store.Copy(ctx, snap.Key, dst); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("snapshot vanished before relocation", zap.String("key", snap.Key))
			result.Vanished = append(result.Vanished, snap.Key)
			return nil
		}
		return fmt.Errorf("relocating %s: %w", snap.Key, err)
	}
	snap.ProcessedKey = dst
	snap.Relocated = true

	if err := s.store.Delete(ctx, snap.Key); err != nil {
		s.logger.Warn("failed to delete relocated snapshot",
			zap.String("key", snap.Key),
			zap.Error(err),
		)
		result.DeleteFailures = append(result.DeleteFailures, snap.Key)
	}

	return nil
}
