package tables

import (
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

const parquetParallelism = 4

type songParquet struct {
	SongID     string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongName   string `parquet:"name=song_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	DurationMs int64  `parquet:"name=duration_ms, type=INT64"`
	URL        string `parquet:"name=url, type=BYTE_ARRAY, convertedtype=UTF8"`
	Popularity int32  `parquet:"name=popularity, type=INT32"`
	SongAdded  string `parquet:"name=song_added, type=BYTE_ARRAY, convertedtype=UTF8"`
	AlbumID    string `parquet:"name=album_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID   string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type albumParquet struct {
	AlbumID     string `parquet:"name=album_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name        string `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ReleaseDate string `parquet:"name=release_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalTracks int32  `parquet:"name=total_tracks, type=INT32"`
	URL         string `parquet:"name=url, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type artistParquet struct {
	ArtistID    string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistName  string `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExternalURL string `parquet:"name=external_url, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// EncodeParquet encodes table t of set as a Snappy-compressed Parquet file.
func EncodeParquet(set *Set, t Table) ([]byte, error) {
	switch t {
	case Songs:
		rows := make([]songParquet, len(set.Songs))
		for i, s := range set.Songs {
			rows[i] = songParquet{
				SongID:     s.SongID,
				SongName:   s.SongName,
				DurationMs: int64(s.DurationMs),
				URL:        s.URL,
				Popularity: int32(s.Popularity),
				SongAdded:  formatTimestamp(s.SongAdded),
				AlbumID:    s.AlbumID,
				ArtistID:   s.ArtistID,
			}
		}
		return writeParquet(rows)
	case Albums:
		rows := make([]albumParquet, len(set.Albums))
		for i, a := range set.Albums {
			rows[i] = albumParquet{
				AlbumID:     a.AlbumID,
				Name:        a.Name,
				ReleaseDate: formatDate(a.ReleaseDate),
				TotalTracks: int32(a.TotalTracks),
				URL:         a.URL,
			}
		}
		return writeParquet(rows)
	case Artists:
		rows := make([]artistParquet, len(set.Artists))
		for i, a := range set.Artists {
			rows[i] = artistParquet{
				ArtistID:    a.ArtistID,
				ArtistName:  a.ArtistName,
				ExternalURL: a.ExternalURL,
			}
		}
		return writeParquet(rows)
	}
	return nil, fmt.Errorf("unknown table %q", t)
}

// writeParquet writes rows through a temporary local file, since the
// parquet writer needs a seekable target.
func writeParquet[P any](rows []P) ([]byte, error) {
	tmp, err := os.CreateTemp("", "spotify-etl-*.parquet")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()
	tmp.Close()
	defer os.Remove(name)

	fw, err := local.NewLocalFileWriter(name)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(P), parquetParallelism)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close()
			return nil, fmt.Errorf("writing parquet row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return nil, fmt.Errorf("finalizing parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("closing parquet file: %w", err)
	}

	return os.ReadFile(name)
}
