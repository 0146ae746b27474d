// Package playlist parses raw Spotify playlist-track listings into typed snapshots.
package playlist

import "time"

// Snapshot is one raw playlist-track listing as written by the extractor.
type Snapshot struct {
	Href  string
	Total int
	Items []Item
}

// Item is a single playlist entry.
type Item struct {
	// AddedAt is zero when Spotify reports no add date.
	AddedAt time.Time
	Track   Track
}

// Track holds the fields of a track that the normalizer consumes.
type Track struct {
	ID         string
	Name       string
	DurationMs int
	Popularity int
	URL        string
	Album      Album
	Artists    []Artist
}

// Album is the album a track belongs to.
type Album struct {
	ID          string
	Name        string
	ReleaseDate time.Time
	TotalTracks int
	URL         string
	Artists     []Artist
}

// Artist is a simplified Spotify artist object.
type Artist struct {
	ID   string
	Name string
	Href string
	URL  string
}
