package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"tennisdata/ingestion/internal/models"
)

// Snapshot is the complete, internally consistent output of one run.
type Snapshot struct {
	Players     []models.Player
	Matches     []models.Match
	Stats       []models.SurfaceStat
	GeneratedAt time.Time
	WindowSince string
}

// Publish writes the snapshot to a temporary database next to path and
// renames it over the prior snapshot in one step. On any failure the
// temporary file is removed and the prior snapshot stays intact; a reader
// never observes a partial or mixed-run store.
func Publish(ctx context.Context, path string, snap *Snapshot) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := buildSnapshot(ctx, tmp, snap); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("build snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("players", len(snap.Players)).
		Int("matches", len(snap.Matches)).
		Int("surface_stats", len(snap.Stats)).
		Msg("Snapshot published")
	return nil
}

func buildSnapshot(ctx context.Context, path string, snap *Snapshot) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPlayers(ctx, tx, snap.Players); err != nil {
		return err
	}
	if err := insertMatches(ctx, tx, snap.Matches); err != nil {
		return err
	}
	if err := insertSurfaceStats(ctx, tx, snap.Stats); err != nil {
		return err
	}

	generated := snap.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	meta := map[string]string{
		"last_updated": generated.UTC().Format(time.RFC3339),
		"version":      snapshotVersion,
		"window_since": snap.WindowSince,
	}
	if err := insertMetadata(ctx, tx, meta); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	// Compact before publishing; consumers download this file.
	if _, err := db.conn.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum snapshot: %w", err)
	}
	return nil
}
