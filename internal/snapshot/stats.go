package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"tennisdata/ingestion/internal/models"
)

func insertSurfaceStats(ctx context.Context, tx *sql.Tx, stats []models.SurfaceStat) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_surface_stats
			(player_id, surface, matches_played, wins, losses, win_rate)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare surface stats insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err := stmt.ExecContext(ctx,
			s.PlayerID, string(s.Surface), s.MatchesPlayed, s.Wins, s.Losses, s.WinRate,
		)
		if err != nil {
			return fmt.Errorf("insert surface stat (%d, %s): %w", s.PlayerID, s.Surface, err)
		}
	}
	return nil
}

// ListSurfaceStats returns all surface stats ordered by player and surface.
func (d *DB) ListSurfaceStats(ctx context.Context) ([]models.SurfaceStat, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT player_id, surface, matches_played, wins, losses, win_rate
		FROM player_surface_stats
		ORDER BY player_id, surface
	`)
	if err != nil {
		return nil, fmt.Errorf("list surface stats: %w", err)
	}
	defer rows.Close()

	var stats []models.SurfaceStat
	for rows.Next() {
		var s models.SurfaceStat
		var surface string
		if err := rows.Scan(&s.PlayerID, &surface, &s.MatchesPlayed, &s.Wins, &s.Losses, &s.WinRate); err != nil {
			return nil, fmt.Errorf("scan surface stat: %w", err)
		}
		s.Surface = models.Surface(surface)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surface stats: %w", err)
	}
	return stats, nil
}
