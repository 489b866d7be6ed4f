package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tennisdata/ingestion/internal/models"
)

func insertPlayers(ctx context.Context, tx *sql.Tx, players []models.Player) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO players (id, name, country, ranking, tour, slug, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare players insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range players {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Name, p.Country, p.Ranking, string(p.Tour), p.Slug,
			p.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert player %d (%s): %w", p.ID, p.Slug, err)
		}
	}
	return nil
}

// ListPlayers returns all players ordered by tour and ranking.
func (d *DB) ListPlayers(ctx context.Context) ([]models.Player, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, name, country, ranking, tour, slug, updated_at
		FROM players
		ORDER BY tour, ranking
	`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		var tour, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Country, &p.Ranking, &tour, &p.Slug, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Tour = models.Tour(tour)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
