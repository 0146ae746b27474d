package tables

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// ErrColumnCount is returned when a CSV record has the wrong number of fields.
var ErrColumnCount = errors.New("unexpected column count")

// Format describes how CSV files are read back, in the manner of a named
// warehouse file format.
type Format struct {
	Name       string
	Delimiter  rune
	SkipHeader int
}

// DefaultFormat matches the files written by the normalizer.
var DefaultFormat = Format{
	Name:       "csv_fileformat",
	Delimiter:  ',',
	SkipHeader: 1,
}

// Codec converts rows of type T to and from CSV records and warehouse values.
type Codec[T any] struct {
	Header []string
	encode func(T) []string
	decode func([]string) (T, error)
	values func(T) []any
}

// Write encodes rows as CSV with a header line. An empty slice produces a
// header-only file.
func (c Codec[T]) Write(w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(c.encode(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode is Write into a byte slice.
func (c Codec[T]) Encode(rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Write(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Read decodes CSV records using format f, skipping its header rows.
func (c Codec[T]) Read(r io.Reader, f Format) ([]T, error) {
	cr := csv.NewReader(r)
	if f.Delimiter != 0 {
		cr.Comma = f.Delimiter
	}
	cr.FieldsPerRecord = -1

	var rows []T
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		if line <= f.SkipHeader {
			continue
		}
		if len(record) != len(c.Header) {
			return nil, fmt.Errorf("line %d: %w: got %d, want %d", line, ErrColumnCount, len(record), len(c.Header))
		}

		row, err := c.decode(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Values returns row as warehouse column values, in Header order.
func (c Codec[T]) Values(row T) []any {
	return c.values(row)
}

// SongCodec encodes the songs table.
var SongCodec = Codec[Song]{
	Header: []string{"song_id", "song_name", "duration_ms", "url", "popularity", "song_added", "album_id", "artist_id"},
	encode: func(s Song) []string {
		return []string{
			s.SongID,
			s.SongName,
			strconv.Itoa(s.DurationMs),
			s.URL,
			strconv.Itoa(s.Popularity),
			formatTimestamp(s.SongAdded),
			s.AlbumID,
			s.ArtistID,
		}
	},
	decode: func(rec []string) (Song, error) {
		duration, err := parseInt("duration_ms", rec[2])
		if err != nil {
			return Song{}, err
		}
		popularity, err := parseInt("popularity", rec[4])
		if err != nil {
			return Song{}, err
		}
		added, err := parseTimestamp("song_added", rec[5])
		if err != nil {
			return Song{}, err
		}
		return Song{
			SongID:     rec[0],
			SongName:   rec[1],
			DurationMs: duration,
			URL:        rec[3],
			Popularity: popularity,
			SongAdded:  added,
			AlbumID:    rec[6],
			ArtistID:   rec[7],
		}, nil
	},
	values: func(s Song) []any {
		var added any
		if !s.SongAdded.IsZero() {
			added = s.SongAdded
		}
		return []any{s.SongID, s.SongName, s.DurationMs, s.URL, s.Popularity, added, s.AlbumID, s.ArtistID}
	},
}

// AlbumCodec encodes the albums table.
var AlbumCodec = Codec[Album]{
	Header: []string{"album_id", "name", "release_date", "total_tracks", "url"},
	encode: func(a Album) []string {
		return []string{
			a.AlbumID,
			a.Name,
			formatDate(a.ReleaseDate),
			strconv.Itoa(a.TotalTracks),
			a.URL,
		}
	},
	decode: func(rec []string) (Album, error) {
		released, err := parseDate("release_date", rec[2])
		if err != nil {
			return Album{}, err
		}
		total, err := parseInt("total_tracks", rec[3])
		if err != nil {
			return Album{}, err
		}
		return Album{
			AlbumID:     rec[0],
			Name:        rec[1],
			ReleaseDate: released,
			TotalTracks: total,
			URL:         rec[4],
		}, nil
	},
	values: func(a Album) []any {
		var released any
		if !a.ReleaseDate.IsZero() {
			released = a.ReleaseDate
		}
		return []any{a.AlbumID, a.Name, released, a.TotalTracks, a.URL}
	},
}

// ArtistCodec encodes the artists table.
var ArtistCodec = Codec[Artist]{
	Header: []string{"artist_id", "artist_name", "external_url"},
	encode: func(a Artist) []string {
		return []string{a.ArtistID, a.ArtistName, a.ExternalURL}
	},
	decode: func(rec []string) (Artist, error) {
		return Artist{ArtistID: rec[0], ArtistName: rec[1], ExternalURL: rec[2]}, nil
	},
	values: func(a Artist) []any {
		return []any{a.ArtistID, a.ArtistName, a.ExternalURL}
	},
}

// Header returns the column names of table t.
func Header(t Table) []string {
	switch t {
	case Songs:
		return SongCodec.Header
	case Albums:
		return AlbumCodec.Header
	case Artists:
		return ArtistCodec.Header
	}
	return nil
}

// EncodeCSV encodes table t of set as CSV.
func EncodeCSV(set *Set, t Table) ([]byte, error) {
	switch t {
	case Songs:
		return SongCodec.Encode(set.Songs)
	case Albums:
		return AlbumCodec.Encode(set.Albums)
	case Artists:
		return ArtistCodec.Encode(set.Artists)
	}
	return nil, fmt.Errorf("unknown table %q", t)
}

// DecodeValues reads CSV data for table t using format f and returns each
// row as warehouse column values.
func DecodeValues(t Table, r io.Reader, f Format) ([][]any, error) {
	switch t {
	case Songs:
		return decodeValues(SongCodec, r, f)
	case Albums:
		return decodeValues(AlbumCodec, r, f)
	case Artists:
		return decodeValues(ArtistCodec, r, f)
	}
	return nil, fmt.Errorf("unknown table %q", t)
}

func decodeValues[T any](c Codec[T], r io.Reader, f Format) ([][]any, error) {
	rows, err := c.Read(r, f)
	if err != nil {
		return nil, err
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = c.Values(row)
	}
	return values, nil
}

func parseInt(column, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(column, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(column, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", column, err)
	}
	return t.UTC(), nil
}
