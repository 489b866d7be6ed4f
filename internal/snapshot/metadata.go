package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// snapshotVersion is bumped when the published schema changes shape.
const snapshotVersion = "2.0"

func insertMetadata(ctx context.Context, tx *sql.Tx, entries map[string]string) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range entries {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("insert metadata %s: %w", key, err)
		}
	}
	return nil
}

// Metadata returns the value for a metadata key, or empty string when absent.
func (d *DB) Metadata(ctx context.Context, key string) (string, error) {
	var value string
	err := d.conn.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}
