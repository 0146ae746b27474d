// Package pipeline wires the extract, normalize and load stages to their
// backing services and records metrics and events for every run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/auth"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/config"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/events"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/extract"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/load"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/lock"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/normalize"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/spotify"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/storage"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/warehouse"
)

// NormalizeLockKey names the lock held for the duration of a normalize run.
const NormalizeLockKey = "normalize"

// Stage names used in metrics labels.
const (
	StageExtract   = "extract"
	StageNormalize = "normalize"
	StageLoad      = "load"
)

// ErrNoWarehouse is returned by Load when no DATABASE_URL is configured.
var ErrNoWarehouse = errors.New("no warehouse configured")

// Extractor runs the extract stage.
type Extractor interface {
	Run(ctx context.Context, playlistRef, runID string) (*extract.Result, error)
}

// Normalizer runs the normalize stage.
type Normalizer interface {
	Run(ctx context.Context) (*normalize.Result, error)
}

// Loader runs the load stage.
type Loader interface {
	Run(ctx context.Context) (*load.Result, error)
}

// Locker serializes runs across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Pipeline runs the ETL stages.
type Pipeline struct {
	extractor  func(ctx context.Context) (Extractor, error)
	normalizer Normalizer
	loader     Loader
	publisher  events.Publisher
	locker     Locker
	lockTTL    time.Duration
	playlist   string
	now        func() time.Time
	logger     *zap.Logger
	closers    []func() error
}

// Open builds a Pipeline from cfg. The warehouse, Kafka and Redis are only
// connected when configured. Spotify credentials are checked on the first
// extract, so normalize and load run without them.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	p := &Pipeline{
		normalizer: normalize.New(store, cfg.Layout,
			normalize.WithLogger(logger.Named("normalize")),
			normalize.WithParquet(cfg.WriteParquet),
		),
		publisher: events.Nop{},
		lockTTL:   cfg.LockTTL,
		playlist:  cfg.Spotify.Playlist,
		now:       time.Now,
		logger:    logger,
	}

	p.extractor = func(ctx context.Context) (Extractor, error) {
		authenticator, err := auth.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret,
			auth.WithTokenURL(cfg.Spotify.TokenURL),
		)
		if err != nil {
			return nil, err
		}
		httpClient, err := authenticator.Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("authenticating with spotify: %w", err)
		}
		api := spotify.New(httpClient,
			spotify.WithBaseURL(cfg.Spotify.APIURL),
			spotify.WithMaxPages(cfg.Spotify.MaxPages),
		)
		return extract.New(api, store, cfg.Layout, extract.WithLogger(logger.Named("extract"))), nil
	}

	if cfg.DatabaseURL != "" {
		db, err := warehouse.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to warehouse: %w", err)
		}
		p.closers = append(p.closers, func() error { db.Close(); return nil })
		p.loader = load.New(store, db.Loads(), cfg.Layout, load.WithLogger(logger.Named("load")))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafka(cfg.Kafka)
		p.publisher = kafka
		p.closers = append(p.closers, kafka.Close)
	}

	if cfg.Redis.Addr != "" {
		locker, err := lock.New(ctx, cfg.Redis)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.locker = locker
		p.closers = append(p.closers, locker.Close)
	}

	return p, nil
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// HasWarehouse reports whether Load can run.
func (p *Pipeline) HasWarehouse() bool {
	return p.loader != nil
}

// Close releases every connection opened by Open.
func (p *Pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// publish sends events without failing the run.
func (p *Pipeline) publish(ctx context.Context, evs ...events.Event) {
	if err := p.publisher.Publish(ctx, evs...); err != nil {
		p.logger.Warn("failed to publish events",
			zap.Int("events", len(evs)),
			zap.Error(err),
		)
	}
}
