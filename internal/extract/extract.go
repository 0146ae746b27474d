// Package extract writes raw Spotify playlist listings to the object store.
package extract

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/layout"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/spotify"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/storage"
)

// Metadata keys stored on each raw snapshot.
const (
	MetaPlaylistID   = "playlist-id"
	MetaPlaylistName = "playlist-name"
	MetaSnapshotID   = "playlist-snapshot-id"
	MetaExtractedAt  = "extracted-at"
	MetaRunID        = "run-id"
)

// Source fetches playlist data from Spotify.
type Source interface {
	FetchPlaylistTracks(ctx context.Context, playlistID string) (*spotify.Listing, error)
	PlaylistInfo(ctx context.Context, playlistID string) (*spotify.PlaylistInfo, error)
}

// Service extracts one playlist listing per run.
type Service struct {
	store  storage.Store
	api    Source
	layout layout.Layout
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to name snapshots.
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

// New creates an extract service writing to store under l.Pending.
func New(api Source, store storage.Store, l layout.Layout, opts ...Option) *Service {
	s := &Service{
		store:  store,
		api:    api,
		layout: l,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes one extracted snapshot.
type Result struct {
	Key         string    `json:"key"`
	PlaylistID  string    `json:"playlist_id"`
	Items       int       `json:"items"`
	Pages       int       `json:"pages"`
	Bytes       int       `json:"bytes"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Run fetches the playlist's track listing and stores it unmodified as a
// new pending snapshot. Any API or storage error aborts the run.
func (s *Service) Run(ctx context.Context, playlistRef, runID string) (*Result, error) {
	playlistID, err := spotify.ParsePlaylistID(playlistRef)
	if err != nil {
		return nil, err
	}

	listing, err := s.api.FetchPlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("extracting playlist %s: %w", playlistID, err)
	}

	extractedAt := s.now()
	key := s.layout.SnapshotKey(extractedAt)

	metadata := map[string]string{
		MetaPlaylistID:  playlistID,
		MetaExtractedAt: extractedAt.UTC().Format(time.RFC3339Nano),
	}
	if runID != "" {
		metadata[MetaRunID] = runID
	}

	info, err := s.api.PlaylistInfo(ctx, playlistID)
	if err != nil {
		s.logger.Warn("playlist metadata unavailable",
			zap.String("playlist_id", playlistID),
			zap.Error(err),
		)
	} else {
		metadata[MetaPlaylistName] = info.Name
		metadata[MetaSnapshotID] = info.SnapshotID
	}

	if err := s.store.Put(ctx, key, listing.Body, metadata); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}

	s.logger.Info("snapshot extracted",
		zap.String("key", key),
		zap.String("playlist_id", playlistID),
		zap.Int("items", listing.Items),
		zap.Int("pages", listing.Pages),
	)

	return &Result{
		Key:         key,
		PlaylistID:  playlistID,
		Items:       listing.Items,
		Pages:       listing.Pages,
		Bytes:       len(listing.Body),
		ExtractedAt: extractedAt,
	}, nil
}
