package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/playlist/playlisttest"
)

func TestParsePlaylistID(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "bare id", ref: "3OK8UdRoB6IfDEa1pNJTQE", want: "3OK8UdRoB6IfDEa1pNJTQE"},
		{name: "share link", ref: "https://open.spotify.com/playlist/3OK8UdRoB6IfDEa1pNJTQE", want: "3OK8UdRoB6IfDEa1pNJTQE"},
		{name: "link with query", ref: "https://open.spotify.com/playlist/3OK8UdRoB6IfDEa1pNJTQE?si=abc123", want: "3OK8UdRoB6IfDEa1pNJTQE"},
		{name: "trailing slash", ref: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M/", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "uri", ref: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{name: "empty", ref: "  ", wantErr: true},
		{name: "bad uri", ref: "spotify:album:x:y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistID(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPlaylist) {
					t.Errorf("ParsePlaylistID() error = %v, want ErrInvalidPlaylist", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePlaylistID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePlaylistID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchPlaylistTracks_SinglePage(t *testing.T) {
	body := playlisttest.Snapshot(
		playlisttest.Track{ID: "t1", AlbumID: "a1", AlbumArtists: []playlisttest.Artist{{ID: "x"}}},
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/PL1/tracks" {
			t.Errorf("path = %q, want /playlists/PL1/tracks", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q, want 100", got)
		}
		w.Write(body)
	}))
	defer server.Close()

	client := New(server.Client(), WithBaseURL(server.URL))

	listing, err := client.FetchPlaylistTracks(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("FetchPlaylistTracks() error = %v", err)
	}
	if string(listing.Body) != string(body) {
		t.Errorf("single page body was rewritten")
	}
	if listing.Pages != 1 || listing.Items != 1 {
		t.Errorf("Pages, Items = %d, %d, want 1, 1", listing.Pages, listing.Items)
	}
}

func TestFetchPlaylistTracks_Pagination(t *testing.T) {
	artists := []playlisttest.Artist{{ID: "x"}}

	tests := []struct {
		name      string
		maxPages  int
		wantPages int
		wantItems int
		wantNext  bool
	}{
		{name: "all pages", maxPages: 0, wantPages: 3, wantItems: 5},
		{name: "capped", maxPages: 2, wantPages: 2, wantItems: 4, wantNext: true},
		{name: "first page only", maxPages: 1, wantPages: 1, wantItems: 2, wantNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			var server *httptest.Server
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				switch r.URL.Path {
				case "/playlists/PL/tracks":
					w.Write(playlisttest.Page(server.URL+"/page2", 0, 5,
						playlisttest.Track{ID: "1", AlbumID: "a", AlbumArtists: artists},
						playlisttest.Track{ID: "2", AlbumID: "a", AlbumArtists: artists}))
				case "/page2":
					w.Write(playlisttest.Page(server.URL+"/page3", 2, 5,
						playlisttest.Track{ID: "3", AlbumID: "b", AlbumArtists: artists},
						playlisttest.Track{ID: "4", AlbumID: "b", AlbumArtists: artists}))
				case "/page3":
					w.Write(playlisttest.Page("", 4, 5,
						playlisttest.Track{ID: "5", AlbumID: "c", AlbumArtists: artists}))
				default:
					http.NotFound(w, r)
				}
			}))
			defer server.Close()

			client := New(server.Client(), WithBaseURL(server.URL+"/"), WithMaxPages(tt.maxPages))

			listing, err := client.FetchPlaylistTracks(context.Background(), "PL")
			if err != nil {
				t.Fatalf("FetchPlaylistTracks() error = %v", err)
			}
			if listing.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", listing.Pages, tt.wantPages)
			}
			if int(requests.Load()) != tt.wantPages {
				t.Errorf("requests = %d, want %d", requests.Load(), tt.wantPages)
			}

			var doc struct {
				Items []struct {
					Track struct {
						ID string `json:"id"`
					} `json:"track"`
				} `json:"items"`
				Next  *string `json:"next"`
				Total int     `json:"total"`
			}
			if err := json.Unmarshal(listing.Body, &doc); err != nil {
				t.Fatalf("listing is not valid JSON: %v", err)
			}
			if len(doc.Items) != tt.wantItems || listing.Items != tt.wantItems {
				t.Errorf("items = %d (reported %d), want %d", len(doc.Items), listing.Items, tt.wantItems)
			}
			if doc.Items[0].Track.ID != "1" || doc.Items[len(doc.Items)-1].Track.ID == "" {
				t.Errorf("items out of order: first = %q", doc.Items[0].Track.ID)
			}
			if (doc.Next != nil) != tt.wantNext {
				t.Errorf("next = %v, want present = %v", doc.Next, tt.wantNext)
			}
			if doc.Total != 5 {
				t.Errorf("total = %d, want 5", doc.Total)
			}
		})
	}
}

func TestFetchPlaylistTracks_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantStatus int
	}{
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"status":401,"message":"Invalid access token"}}`,
			wantErr:    ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       ``,
			wantErr:    ErrRateLimited,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"error":{"status":404,"message":"Resource not found"}}`,
			wantErr:    ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       `oops`,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(server.Client(), WithBaseURL(server.URL))

			_, err := client.FetchPlaylistTracks(context.Background(), "PL")
			if err == nil {
				t.Fatal("FetchPlaylistTracks() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %v is not an *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if requests.Load() != 1 {
				t.Errorf("requests = %d, want 1 (no retry)", requests.Load())
			}
		})
	}
}

func TestPlaylistInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/PL1" {
			t.Errorf("path = %q, want /playlists/PL1", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != "id,name,snapshot_id" {
			t.Errorf("fields = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"PL1","name":"Top Hits","snapshot_id":"MTY4"}`))
	}))
	defer server.Close()

	client := New(server.Client(), WithBaseURL(server.URL+"/"))

	info, err := client.PlaylistInfo(context.Background(), "PL1")
	if err != nil {
		t.Fatalf("PlaylistInfo() error = %v", err)
	}
	want := PlaylistInfo{ID: "PL1", Name: "Top Hits", SnapshotID: "MTY4"}
	if *info != want {
		t.Errorf("PlaylistInfo() = %+v, want %+v", *info, want)
	}
}
