package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors wrapped by ParseError.
var (
	// ErrMissingField is returned when a required field is absent or null.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidDate is returned when a date field cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// ParseError describes why a raw snapshot could not be parsed.
type ParseError struct {
	// Item is the zero-based item index, or -1 for document-level failures.
	Item  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Item < 0 {
		return fmt.Sprintf("parsing snapshot %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parsing item %d %s: %v", e.Item, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Wire types mirror the Spotify playlist-tracks response. Pointers mark
// fields whose absence must be detected.
type rawSnapshot struct {
	Href  string     `json:"href"`
	Total int        `json:"total"`
	Items *[]rawItem `json:"items"`
}

type rawItem struct {
	AddedAt string    `json:"added_at"`
	Track   *rawTrack `json:"track"`
}

type rawTrack struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DurationMs   int               `json:"duration_ms"`
	Popularity   int               `json:"popularity"`
	ExternalURLs map[string]string `json:"external_urls"`
	Album        *rawAlbum         `json:"album"`
	Artists      []rawArtist       `json:"artists"`
}

type rawAlbum struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	ReleaseDate          string            `json:"release_date"`
	ReleaseDatePrecision string            `json:"release_date_precision"`
	TotalTracks          int               `json:"total_tracks"`
	ExternalURLs         map[string]string `json:"external_urls"`
	Artists              []rawArtist       `json:"artists"`
}

type rawArtist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Href         string            `json:"href"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// Parse decodes a raw playlist-track listing and validates the fields the
// normalizer depends on. Any failure is returned as a *ParseError.
func Parse(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Item: -1, Field: "document", Err: err}
	}
	if raw.Items == nil {
		return nil, &ParseError{Item: -1, Field: "items", Err: ErrMissingField}
	}

	snap := &Snapshot{
		Href:  raw.Href,
		Total: raw.Total,
		Items: make([]Item, 0, len(*raw.Items)),
	}

	for i, ri := range *raw.Items {
		item, err := convertItem(i, ri)
		if err != nil {
			return nil, err
		}
		snap.Items = append(snap.Items, item)
	}

	return snap, nil
}

func convertItem(i int, ri rawItem) (Item, error) {
	if ri.Track == nil {
		return Item{}, &ParseError{Item: i, Field: "track", Err: ErrMissingField}
	}
	rt := ri.Track
	if rt.Album == nil {
		return Item{}, &ParseError{Item: i, Field: "track.album", Err: ErrMissingField}
	}
	if len(rt.Album.Artists) == 0 {
		return Item{}, &ParseError{Item: i, Field: "track.album.artists", Err: ErrMissingField}
	}

	var addedAt time.Time
	if ri.AddedAt != "" {
		t, err := time.Parse(time.RFC3339, ri.AddedAt)
		if err != nil {
			return Item{}, &ParseError{Item: i, Field: "added_at", Err: fmt.Errorf("%w: %q", ErrInvalidDate, ri.AddedAt)}
		}
		addedAt = t.UTC()
	}

	releaseDate, err := ParseReleaseDate(rt.Album.ReleaseDate, rt.Album.ReleaseDatePrecision)
	if err != nil {
		return Item{}, &ParseError{Item: i, Field: "track.album.release_date", Err: err}
	}

	return Item{
		AddedAt: addedAt,
		Track: Track{
			ID:         rt.ID,
			Name:       rt.Name,
			DurationMs: rt.DurationMs,
			Popularity: rt.Popularity,
			URL:        rt.ExternalURLs["spotify"],
			Album: Album{
				ID:          rt.Album.ID,
				Name:        rt.Album.Name,
				ReleaseDate: releaseDate,
				TotalTracks: rt.Album.TotalTracks,
				URL:         rt.Album.ExternalURLs["spotify"],
				Artists:     convertArtists(rt.Album.Artists),
			},
			Artists: convertArtists(rt.Artists),
		},
	}, nil
}

func convertArtists(raw []rawArtist) []Artist {
	artists := make([]Artist, len(raw))
	for i, a := range raw {
		artists[i] = Artist{
			ID:   a.ID,
			Name: a.Name,
			Href: a.Href,
			URL:  a.ExternalURLs["spotify"],
		}
	}
	return artists
}

// ParseReleaseDate normalizes a Spotify release date to a calendar day.
// Dates with year or month precision resolve to the first day of that period.
// An empty value yields the zero time. When precision is empty, unknown, or
// does not match the value, it is inferred from the value's length.
func ParseReleaseDate(value, precision string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	if layout, ok := precisionLayouts[precision]; ok {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	t, err := time.Parse(inferLayout(value), value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

var precisionLayouts = map[string]string{
	"year":  "2006",
	"month": "2006-01",
	"day":   "2006-01-02",
}

func inferLayout(value string) string {
	switch len(value) {
	case len("2006"):
		return precisionLayouts["year"]
	case len("2006-01"):
		return precisionLayouts["month"]
	default:
		return precisionLayouts["day"]
	}
}
