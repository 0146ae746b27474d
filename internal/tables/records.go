// Package tables derives the songs, albums and artists tables from playlist
// snapshots and encodes them for storage.
package tables

import "time"

// Table identifies one of the derived tables.
type Table string

// Derived tables.
const (
	Songs   Table = "songs"
	Albums  Table = "album"
	Artists Table = "artist"
)

// All lists the derived tables in write order.
var All = []Table{Songs, Albums, Artists}

// Song is one row of the songs table.
type Song struct {
	SongID     string
	SongName   string
	DurationMs int
	URL        string
	Popularity int
	SongAdded  time.Time
	AlbumID    string
	ArtistID   string
}

// Album is one row of the albums table.
type Album struct {
	AlbumID     string
	Name        string
	ReleaseDate time.Time
	TotalTracks int
	URL         string
}

// Artist is one row of the artists table.
type Artist struct {
	ArtistID    string
	ArtistName  string
	ExternalURL string
}

// Set holds the three tables derived from one snapshot.
type Set struct {
	Songs   []Song
	Albums  []Album
	Artists []Artist
}

// Len returns the row count of table t.
func (s *Set) Len(t Table) int {
	switch t {
	case Songs:
		return len(s.Songs)
	case Albums:
		return len(s.Albums)
	case Artists:
		return len(s.Artists)
	}
	return 0
}
