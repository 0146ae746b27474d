package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vinay-Sapare/ETL-USING-AWS/internal/tables"
)

// TableName maps a derived table to its warehouse table.
func TableName(t tables.Table) string {
	switch t {
	case tables.Songs:
		return "songs"
	case tables.Albums:
		return "albums"
	case tables.Artists:
		return "artists"
	}
	return ""
}

// LoadRepository bulk-loads table files and tracks which files were loaded.
type LoadRepository struct {
	pool *pgxpool.Pool
}

// LoadedFiles returns the subset of keys already loaded into table t.
func (r *LoadRepository) LoadedFiles(ctx context.Context, t tables.Table, keys []string) (map[string]bool, error) {
	loaded := make(map[string]bool)
	if len(keys) == 0 {
		return loaded, nil
	}

	query := `
		SELECT file_key
		FROM load_history
		WHERE table_name = $1 AND file_key = ANY($2)
	`
	rows, err := r.pool.Query(ctx, query, TableName(t), keys)
	if err != nil {
		return nil, fmt.Errorf("querying load history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning load history: %w", err)
		}
		loaded[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating load history: %w", err)
	}

	return loaded, nil
}

// LoadFile appends rows to table t and records key as loaded, in one
// transaction. Values must follow tables.Header(t) column order.
func (r *LoadRepository) LoadFile(ctx context.Context, t tables.Table, key string, rows [][]any) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count, err := tx.CopyFrom(ctx,
		pgx.Identifier{TableName(t)},
		tables.Header(t),
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copying into %s: %w", TableName(t), err)
	}

	query := `
		INSERT INTO load_history (table_name, file_key, row_count, loaded_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := tx.Exec(ctx, query, TableName(t), key, count); err != nil {
		return 0, fmt.Errorf("recording load of %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing load of %s: %w", key, err)
	}

	return count, nil
}
