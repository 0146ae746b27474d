package tables

import (
	"strings"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist"
)

// Derive builds all three tables from a snapshot.
func Derive(snap *playlist.Snapshot) *Set {
	return &Set{
		Songs:   DeriveSongs(snap),
		Albums:  DeriveAlbums(snap),
		Artists: DeriveArtists(snap),
	}
}

// DeriveAlbums returns one row per distinct album_id in item order.
// The first occurrence of an album wins.
func DeriveAlbums(snap *playlist.Snapshot) []Album {
	albums := make([]Album, 0, len(snap.Items))
	seen := make(map[string]struct{}, len(snap.Items))

	for _, item := range snap.Items {
		a := item.Track.Album
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}

		albums = append(albums, Album{
			AlbumID:     a.ID,
			Name:        text(a.Name),
			ReleaseDate: a.ReleaseDate,
			TotalTracks: a.TotalTracks,
			URL:         a.URL,
		})
	}

	return albums
}

// DeriveArtists returns one row per distinct artist_id across every track's
// own artist list. Album-level artists are not included.
func DeriveArtists(snap *playlist.Snapshot) []Artist {
	var artists []Artist
	seen := make(map[string]struct{})

	for _, item := range snap.Items {
		for _, a := range item.Track.Artists {
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}

			artists = append(artists, Artist{
				ArtistID:    a.ID,
				ArtistName:  text(a.Name),
				ExternalURL: a.Href,
			})
		}
	}

	return artists
}

// DeriveSongs returns one row per item. The artist_id is the first artist
// credited on the track's album, not on the track itself.
func DeriveSongs(snap *playlist.Snapshot) []Song {
	songs := make([]Song, 0, len(snap.Items))

	for _, item := range snap.Items {
		t := item.Track

		var artistID string
		if len(t.Album.Artists) > 0 {
			artistID = t.Album.Artists[0].ID
		}

		songs = append(songs, Song{
			SongID:     t.ID,
			SongName:   text(t.Name),
			DurationMs: t.DurationMs,
			URL:        t.URL,
			Popularity: t.Popularity,
			SongAdded:  item.AddedAt,
			AlbumID:    t.Album.ID,
			ArtistID:   artistID,
		})
	}

	return songs
}

// text folds CRLF line breaks to LF. encoding/csv reads a quoted CRLF back
// as LF, so this keeps derived rows identical to their CSV form.
func text(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
