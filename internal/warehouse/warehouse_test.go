package warehouse

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/tables"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/etl?sslmode=disable", "pgx5://u:p@localhost:5432/etl?sslmode=disable"},
		{"postgresql://localhost/etl", "pgx5://localhost/etl"},
		{"pgx5://localhost/etl", "pgx5://localhost/etl"},
	}

	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableName(t *testing.T) {
	want := map[tables.Table]string{
		tables.Songs:   "songs",
		tables.Albums:  "albums",
		tables.Artists: "artists",
	}
	for tbl, name := range want {
		if got := TableName(tbl); got != name {
			t.Errorf("TableName(%q) = %q, want %q", tbl, got, name)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("found %d up migrations, want 2", len(files))
	}
}

func TestMissingDatabaseURL(t *testing.T) {
	if _, err := New(context.Background(), ""); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Errorf("New() error = %v, want ErrMissingDatabaseURL", err)
	}
	if err := Migrate("", zap.NewNop()); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Errorf("Migrate() error = %v, want ErrMissingDatabaseURL", err)
	}
}

// TestLoadFile runs against a real database when WAREHOUSE_TEST_DATABASE_URL is set.
func TestLoadFile(t *testing.T) {
	url := os.Getenv("WAREHOUSE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("WAREHOUSE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	if err := Migrate(url, zap.NewNop()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	db, err := New(ctx, url)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	key := "transformed-data/album_data/test_" + time.Now().Format(time.RFC3339Nano) + ".csv"
	rows := [][]any{
		tables.AlbumCodec.Values(tables.Album{AlbumID: "A1", Name: "Album", ReleaseDate: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), TotalTracks: 10}),
	}

	n, err := db.Loads().LoadFile(ctx, tables.Albums, key, rows)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if n != 1 {
		t.Errorf("LoadFile() = %d rows, want 1", n)
	}

	loaded, err := db.Loads().LoadedFiles(ctx, tables.Albums, []string{key, "other.csv"})
	if err != nil {
		t.Fatalf("LoadedFiles() error = %v", err)
	}
	if !loaded[key] || loaded["other.csv"] {
		t.Errorf("LoadedFiles() = %v", loaded)
	}

	if _, err := db.Loads().LoadFile(ctx, tables.Albums, key, rows); err == nil {
		t.Error("second LoadFile() of the same key succeeded, want error")
	}
}
