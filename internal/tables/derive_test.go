package tables

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist"
	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist/playlisttest"
)

func mustParse(t *testing.T, tracks ...playlisttest.Track) *playlist.Snapshot {
	t.Helper()
	snap, err := playlist.Parse(playlisttest.Snapshot(tracks...))
	require.NoError(t, err)
	return snap
}

func TestDerive_SharedAlbum(t *testing.T) {
	x := playlisttest.Artist{ID: "X", Name: "Artist X"}
	y := playlisttest.Artist{ID: "Y", Name: "Artist Y"}

	snap := mustParse(t,
		playlisttest.Track{ID: "T1", Name: "First", AlbumID: "A1", AlbumName: "Album", AlbumArtists: []playlisttest.Artist{x}, Artists: []playlisttest.Artist{x, y}},
		playlisttest.Track{ID: "T2", Name: "Second", AlbumID: "A1", AlbumName: "Album", AlbumArtists: []playlisttest.Artist{x}, Artists: []playlisttest.Artist{x, y}},
	)

	set := Derive(snap)

	require.Len(t, set.Songs, 2)
	require.Len(t, set.Albums, 1)
	require.Len(t, set.Artists, 2)

	assert.Equal(t, "A1", set.Albums[0].AlbumID)
	assert.Equal(t, []string{"X", "Y"}, []string{set.Artists[0].ArtistID, set.Artists[1].ArtistID})
	for _, s := range set.Songs {
		assert.Equal(t, "A1", s.AlbumID)
		assert.Equal(t, "X", s.ArtistID)
	}
}

func TestDerive_Empty(t *testing.T) {
	set := Derive(mustParse(t))

	assert.Empty(t, set.Songs)
	assert.Empty(t, set.Albums)
	assert.Empty(t, set.Artists)
	for _, tbl := range All {
		assert.Zero(t, set.Len(tbl))
	}
}

func TestDeriveAlbums_FirstOccurrenceWins(t *testing.T) {
	a := []playlisttest.Artist{{ID: "X"}}
	snap := mustParse(t,
		playlisttest.Track{ID: "T1", AlbumID: "A1", AlbumName: "Original", TotalTracks: 10, AlbumArtists: a},
		playlisttest.Track{ID: "T2", AlbumID: "A2", AlbumName: "Other", AlbumArtists: a},
		playlisttest.Track{ID: "T3", AlbumID: "A1", AlbumName: "Renamed", TotalTracks: 99, AlbumArtists: a},
	)

	albums := DeriveAlbums(snap)

	require.Len(t, albums, 2)
	assert.Equal(t, "A1", albums[0].AlbumID)
	assert.Equal(t, "Original", albums[0].Name)
	assert.Equal(t, 10, albums[0].TotalTracks)
	assert.Equal(t, "A2", albums[1].AlbumID)
}

func TestDeriveArtists_IgnoresAlbumArtists(t *testing.T) {
	snap := mustParse(t,
		playlisttest.Track{
			ID:           "T1",
			AlbumID:      "A1",
			AlbumArtists: []playlisttest.Artist{{ID: "ALBUM_ONLY", Name: "Compilation"}},
			Artists:      []playlisttest.Artist{{ID: "P", Name: "Performer"}},
		},
	)

	artists := DeriveArtists(snap)
	require.Len(t, artists, 1)
	assert.Equal(t, "P", artists[0].ArtistID)
	assert.Equal(t, "https://api.spotify.com/v1/artists/P", artists[0].ExternalURL)

	songs := DeriveSongs(snap)
	require.Len(t, songs, 1)
	assert.Equal(t, "ALBUM_ONLY", songs[0].ArtistID)
}

func TestDerive_Properties(t *testing.T) {
	a := playlisttest.Artist{ID: "a"}
	b := playlisttest.Artist{ID: "b"}
	c := playlisttest.Artist{ID: "c"}

	snap := mustParse(t,
		playlisttest.Track{ID: "1", AlbumID: "A", AlbumArtists: []playlisttest.Artist{a}, Artists: []playlisttest.Artist{a, b}},
		playlisttest.Track{ID: "2", AlbumID: "B", AlbumArtists: []playlisttest.Artist{b}, Artists: []playlisttest.Artist{b}},
		playlisttest.Track{ID: "3", AlbumID: "A", AlbumArtists: []playlisttest.Artist{a}, Artists: []playlisttest.Artist{c, a}},
		playlisttest.Track{ID: "4", AlbumID: "C", AlbumArtists: []playlisttest.Artist{c}, Artists: []playlisttest.Artist{c}},
	)
	set := Derive(snap)

	assert.Len(t, set.Songs, len(snap.Items))
	assert.LessOrEqual(t, len(set.Albums), len(snap.Items))

	pairs := 0
	for _, item := range snap.Items {
		pairs += len(item.Track.Artists)
	}
	assert.LessOrEqual(t, len(set.Artists), pairs)

	songAlbums := make(map[string]bool)
	for _, s := range set.Songs {
		songAlbums[s.AlbumID] = true
	}
	albumIDs := make(map[string]bool)
	for _, al := range set.Albums {
		assert.True(t, songAlbums[al.AlbumID], "album %s not referenced by any song", al.AlbumID)
		assert.False(t, albumIDs[al.AlbumID], "album %s duplicated", al.AlbumID)
		albumIDs[al.AlbumID] = true
	}

	artistIDs := make(map[string]bool)
	for _, ar := range set.Artists {
		assert.False(t, artistIDs[ar.ArtistID], "artist %s duplicated", ar.ArtistID)
		artistIDs[ar.ArtistID] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, artistIDs)
}

func TestDerive_CRLFNamesSurviveCSV(t *testing.T) {
	x := playlisttest.Artist{ID: "X", Name: "Two\r\nLines"}
	snap := mustParse(t, playlisttest.Track{
		ID:           "T1",
		Name:         "line1\r\nline2",
		AlbumID:      "A1",
		AlbumName:    "Side A\r\nSide B",
		AlbumArtists: []playlisttest.Artist{x},
		Artists:      []playlisttest.Artist{x},
	})

	set := Derive(snap)
	assert.Equal(t, "line1\nline2", set.Songs[0].SongName)

	data, err := EncodeCSV(set, Songs)
	require.NoError(t, err)
	songs, err := SongCodec.Read(bytes.NewReader(data), DefaultFormat)
	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, set.Songs[0].SongName, songs[0].SongName)

	data, err = EncodeCSV(set, Albums)
	require.NoError(t, err)
	albums, err := AlbumCodec.Read(bytes.NewReader(data), DefaultFormat)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, set.Albums[0].Name, albums[0].Name)

	data, err = EncodeCSV(set, Artists)
	require.NoError(t, err)
	artists, err := ArtistCodec.Read(bytes.NewReader(data), DefaultFormat)
	require.NoError(t, err)
	require.Len(t, artists, 1)
	assert.Equal(t, "Two\nLines", artists[0].ArtistName)
}
