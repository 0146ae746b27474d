// Package playlisttest builds raw playlist-track listings for tests.
package playlisttest

import (
	"encoding/json"
	"fmt"
)

// Artist describes an artist in a generated listing.
type Artist struct {
	ID   string
	Name string
}

// Track describes one playlist entry in a generated listing.
type Track struct {
	ID           string
	Name         string
	DurationMs   int
	Popularity   int
	AddedAt      string
	AlbumID      string
	AlbumName    string
	ReleaseDate  string
	TotalTracks  int
	AlbumArtists []Artist
	Artists      []Artist
}

// Snapshot renders tracks as a Spotify playlist-tracks response body.
func Snapshot(tracks ...Track) []byte {
	items := make([]map[string]any, len(tracks))
	for i, t := range tracks {
		items[i] = item(t)
	}
	body, err := json.Marshal(map[string]any{
		"href":     "https://api.spotify.com/v1/playlists/test/tracks?offset=0&limit=100",
		"items":    items,
		"limit":    100,
		"next":     nil,
		"offset":   0,
		"previous": nil,
		"total":    len(tracks),
	})
	if err != nil {
		panic(err)
	}
	return body
}

// Page renders one page of a paginated listing whose next link is next.
func Page(next string, offset, total int, tracks ...Track) []byte {
	items := make([]map[string]any, len(tracks))
	for i, t := range tracks {
		items[i] = item(t)
	}
	var nextValue any
	if next != "" {
		nextValue = next
	}
	body, err := json.Marshal(map[string]any{
		"href":   fmt.Sprintf("https://api.spotify.com/v1/playlists/test/tracks?offset=%d", offset),
		"items":  items,
		"limit":  len(tracks),
		"next":   nextValue,
		"offset": offset,
		"total":  total,
	})
	if err != nil {
		panic(err)
	}
	return body
}

func item(t Track) map[string]any {
	addedAt := t.AddedAt
	if addedAt == "" {
		addedAt = "2024-01-15T10:30:00Z"
	}
	releaseDate := t.ReleaseDate
	if releaseDate == "" {
		releaseDate = "2020-05-01"
	}
	return map[string]any{
		"added_at": addedAt,
		"track": map[string]any{
			"id":            t.ID,
			"name":          t.Name,
			"duration_ms":   t.DurationMs,
			"popularity":    t.Popularity,
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/track/" + t.ID},
			"album": map[string]any{
				"id":                     t.AlbumID,
				"name":                   t.AlbumName,
				"release_date":           releaseDate,
				"release_date_precision": precision(releaseDate),
				"total_tracks":           t.TotalTracks,
				"external_urls":          map[string]string{"spotify": "https://open.spotify.com/album/" + t.AlbumID},
				"artists":                artists(t.AlbumArtists),
			},
			"artists": artists(t.Artists),
		},
	}
}

func artists(in []Artist) []map[string]any {
	out := make([]map[string]any, len(in))
	for i, a := range in {
		out[i] = map[string]any{
			"id":            a.ID,
			"name":          a.Name,
			"href":          "https://api.spotify.com/v1/artists/" + a.ID,
			"external_urls": map[string]string{"spotify": "https://open.spotify.com/artist/" + a.ID},
		}
	}
	return out
}

func precision(date string) string {
	switch len(date) {
	case 4:
		return "year"
	case 7:
		return "month"
	default:
		return "day"
	}
}
