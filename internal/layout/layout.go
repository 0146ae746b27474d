// Package layout names the object keys shared by the pipeline stages.
package layout

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/tables"
)

// StampFormat is the timestamp embedded in generated object names.
const StampFormat = "20060102T150405.000000"

const (
	snapshotExt = ".json"
	csvExt      = ".csv"
	parquetExt  = ".parquet"
)

// Layout holds the storage prefixes used by each stage. Every prefix ends
// with a slash.
type Layout struct {
	Pending   string
	Processed string
	Songs     string
	Albums    string
	Artists   string
}

// Default returns the standard prefix layout.
func Default() Layout {
	return Layout{
		Pending:   "raw-data/to_processed/",
		Processed: "raw-data/processed/",
		Songs:     "transformed-data/songs_data/",
		Albums:    "transformed-data/album_data/",
		Artists:   "transformed-data/artist_data/",
	}
}

// Normalize ensures every prefix ends with a slash. Empty prefixes fall back
// to the default.
func (l Layout) Normalize() Layout {
	def := Default()
	return Layout{
		Pending:   prefix(l.Pending, def.Pending),
		Processed: prefix(l.Processed, def.Processed),
		Songs:     prefix(l.Songs, def.Songs),
		Albums:    prefix(l.Albums, def.Albums),
		Artists:   prefix(l.Artists, def.Artists),
	}
}

// SnapshotKey names a raw snapshot extracted at t.
func (l Layout) SnapshotKey(t time.Time) string {
	return l.Pending + "spotify_raw_" + stamp(t) + snapshotExt
}

// IsSnapshot reports whether key names a raw snapshot object.
func (l Layout) IsSnapshot(key string) bool {
	return strings.HasSuffix(key, snapshotExt)
}

// ProcessedKey returns the processed-prefix destination for a pending key.
// The path below the pending prefix is kept, so nested keys stay distinct.
func (l Layout) ProcessedKey(pendingKey string) string {
	if rel, ok := strings.CutPrefix(pendingKey, l.Pending); ok && rel != "" {
		return l.Processed + rel
	}
	return l.Processed + path.Base(pendingKey)
}

// TablePrefix returns the prefix holding CSV files for table t.
func (l Layout) TablePrefix(t tables.Table) string {
	switch t {
	case tables.Songs:
		return l.Songs
	case tables.Albums:
		return l.Albums
	case tables.Artists:
		return l.Artists
	}
	panic(fmt.Sprintf("layout: unknown table %q", t))
}

// TableKey names the CSV file for table t written at time ts.
func (l Layout) TableKey(t tables.Table, ts time.Time) string {
	return l.TablePrefix(t) + string(t) + "_transformed_" + stamp(ts) + csvExt
}

// ParquetKey names the Parquet copy of table t written at time ts. Parquet
// copies live in a sibling prefix so loaders never see them.
func (l Layout) ParquetKey(t tables.Table, ts time.Time) string {
	dir := strings.TrimSuffix(l.TablePrefix(t), "/")
	dir = strings.TrimSuffix(dir, "_data") + "_parquet/"
	return dir + string(t) + "_transformed_" + stamp(ts) + parquetExt
}

// IsTableFile reports whether key names a CSV table file.
func (l Layout) IsTableFile(key string) bool {
	return strings.HasSuffix(key, csvExt)
}

func stamp(t time.Time) string {
	return t.UTC().Format(StampFormat)
}

func prefix(p, fallback string) string {
	if p == "" {
		return fallback
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
