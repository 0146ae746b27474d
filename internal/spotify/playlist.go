package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// maxTracksPerRequest is the largest page the playlist-tracks endpoint serves.
const maxTracksPerRequest = 100

// ErrInvalidPlaylist is returned when a playlist reference cannot be parsed.
var ErrInvalidPlaylist = errors.New("invalid playlist reference")

// PlaylistInfo is the playlist metadata recorded next to each snapshot.
type PlaylistInfo struct {
	ID         string
	Name       string
	SnapshotID string
}

// Listing is a raw playlist-tracks response, possibly merged from several pages.
type Listing struct {
	Body  []byte
	Pages int
	Items int
}

// ParsePlaylistID accepts a bare ID, an open.spotify.com link or a
// spotify:playlist: URI and returns the playlist ID.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	switch {
	case strings.HasPrefix(ref, "spotify:playlist:"):
		ref = strings.TrimPrefix(ref, "spotify:playlist:")
	case strings.Contains(ref, "/"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidPlaylist, err)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		ref = segments[len(segments)-1]
	}

	if ref == "" || strings.ContainsAny(ref, ":/?# ") {
		return "", ErrInvalidPlaylist
	}
	return ref, nil
}

// PlaylistInfo fetches the playlist's name and snapshot ID.
func (c *Client) PlaylistInfo(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	playlist, err := c.api.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("id,name,snapshot_id"))
	if err != nil {
		return nil, fmt.Errorf("getting playlist: %w", err)
	}

	return &PlaylistInfo{
		ID:         playlist.ID.String(),
		Name:       playlist.Name,
		SnapshotID: playlist.SnapshotID,
	}, nil
}

// FetchPlaylistTracks returns the playlist-tracks response exactly as the
// API serves it. Further pages are followed through their next links and
// their items appended to the first page's items.
func (c *Client) FetchPlaylistTracks(ctx context.Context, playlistID string) (*Listing, error) {
	reqURL := c.baseURL + "playlists/" + url.PathEscape(playlistID) + "/tracks?" +
		url.Values{"limit": {strconv.Itoa(maxTracksPerRequest)}}.Encode()

	first, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist tracks: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(first, &doc); err != nil {
		return nil, fmt.Errorf("parsing playlist tracks response: %w", err)
	}

	var items []json.RawMessage
	if raw, ok := doc["items"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("parsing playlist items: %w", err)
		}
	}

	next := nextLink(doc)
	pages := 1

	for next != "" && (c.maxPages == 0 || pages < c.maxPages) {
		body, err := c.get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", pages+1, err)
		}

		var page map[string]json.RawMessage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing page %d: %w", pages+1, err)
		}

		var pageItems []json.RawMessage
		if err := json.Unmarshal(page["items"], &pageItems); err != nil {
			return nil, fmt.Errorf("parsing page %d items: %w", pages+1, err)
		}

		items = append(items, pageItems...)
		next = nextLink(page)
		pages++
	}

	if pages == 1 {
		return &Listing{Body: first, Pages: 1, Items: len(items)}, nil
	}

	merged, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("merging items: %w", err)
	}
	doc["items"] = merged
	doc["limit"] = json.RawMessage(strconv.Itoa(len(items)))
	doc["next"] = json.RawMessage(nullJSON(next))

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding merged listing: %w", err)
	}

	return &Listing{Body: body, Pages: pages, Items: len(items)}, nil
}

// nextLink returns the page's next URL, or "" on the last page.
func nextLink(page map[string]json.RawMessage) string {
	raw, ok := page["next"]
	if !ok {
		return ""
	}
	var next *string
	if err := json.Unmarshal(raw, &next); err != nil || next == nil {
		return ""
	}
	return *next
}

// nullJSON encodes s as a JSON string, or null when empty.
func nullJSON(s string) string {
	if s == "" {
		return "null"
	}
	b, _ := json.Marshal(s)
	return string(b)
}
