package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/layout"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist/playlisttest"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/spotify"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/storage"
)

type fakeSource struct {
	listing    *spotify.Listing
	fetchErr   error
	infoErr    error
	fetchedIDs []string
}

func (f *fakeSource) FetchPlaylistTracks(_ context.Context, id string) (*spotify.Listing, error) {
	f.fetchedIDs = append(f.fetchedIDs, id)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.listing, nil
}

func (f *fakeSource) PlaylistInfo(_ context.Context, id string) (*spotify.PlaylistInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &spotify.PlaylistInfo{ID: id, Name: "Global Top 50", SnapshotID: "snap-1"}, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRun(t *testing.T) {
	body := playlisttest.Snapshot(playlisttest.Track{ID: "t1", AlbumID: "a1", AlbumArtists: []playlisttest.Artist{{ID: "x"}}})
	src := &fakeSource{listing: &spotify.Listing{Body: body, Pages: 1, Items: 1}}
	store := storage.NewMemory()

	svc := New(src, store, layout.Default(), WithClock(func() time.Time { return fixedNow }))

	result, err := svc.Run(context.Background(), "https://open.spotify.com/playlist/3OK8UdRoB6IfDEa1pNJTQE", "run-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"3OK8UdRoB6IfDEa1pNJTQE"}, src.fetchedIDs)
	assert.Equal(t, "raw-data/to_processed/spotify_raw_20240501T120000.000000.json", result.Key)
	assert.Equal(t, 1, result.Items)
	assert.Equal(t, len(body), result.Bytes)

	stored, err := store.Get(context.Background(), result.Key)
	require.NoError(t, err)
	assert.Equal(t, body, stored)

	meta, ok := store.Metadata(result.Key)
	require.True(t, ok)
	assert.Equal(t, "Global Top 50", meta[MetaPlaylistName])
	assert.Equal(t, "snap-1", meta[MetaSnapshotID])
	assert.Equal(t, "run-1", meta[MetaRunID])
	assert.Equal(t, "3OK8UdRoB6IfDEa1pNJTQE", meta[MetaPlaylistID])
}

func TestRun_FetchErrorWritesNothing(t *testing.T) {
	src := &fakeSource{fetchErr: &spotify.APIError{StatusCode: 401, Message: "Invalid access token"}}
	store := storage.NewMemory()

	_, err := New(src, store, layout.Default()).Run(context.Background(), "PL", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, spotify.ErrUnauthorized))
	assert.Empty(t, store.Keys())
}

func TestRun_MetadataFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{
		listing: &spotify.Listing{Body: []byte(`{"items":[]}`), Pages: 1},
		infoErr: errors.New("boom"),
	}
	store := storage.NewMemory()

	result, err := New(src, store, layout.Default()).Run(context.Background(), "PL", "")
	require.NoError(t, err)

	meta, ok := store.Metadata(result.Key)
	require.True(t, ok)
	assert.NotContains(t, meta, MetaPlaylistName)
	assert.NotContains(t, meta, MetaRunID)
}

func TestRun_InvalidPlaylist(t *testing.T) {
	src := &fakeSource{}

	_, err := New(src, storage.NewMemory(), layout.Default()).Run(context.Background(), "", "")

	assert.ErrorIs(t, err, spotify.ErrInvalidPlaylist)
	assert.Empty(t, src.fetchedIDs)
}

func TestRun_CustomPendingPrefix(t *testing.T) {
	src := &fakeSource{listing: &spotify.Listing{Body: []byte(`{"items":[]}`), Pages: 1}}
	l := layout.Layout{Pending: "incoming"}.Normalize()

	result, err := New(src, storage.NewMemory(), l, WithClock(func() time.Time { return fixedNow })).
		Run(context.Background(), "PL", "")
	require.NoError(t, err)
	assert.Equal(t, "incoming/spotify_raw_20240501T120000.000000.json", result.Key)
}
