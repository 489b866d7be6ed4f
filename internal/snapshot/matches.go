package snapshot

import (
	"context"
	"database/sql"
	"fmt"

	"tennisdata/ingestion/internal/models"
)

func insertMatches(ctx context.Context, tx *sql.Tx, matches []models.Match) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches
			(id, date, tournament, surface, round, winner_id, winner_name, loser_id, loser_name, score, tour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare matches insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err := stmt.ExecContext(ctx,
			m.ID, m.Date, m.Tournament, string(m.Surface), m.Round,
			m.WinnerID, m.WinnerName, m.LoserID, m.LoserName, m.Score, string(m.Tour),
		)
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}
	return nil
}

// ListMatches returns all matches ordered by date.
func (d *DB) ListMatches(ctx context.Context) ([]models.Match, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, date, tournament, surface, round, winner_id, winner_name, loser_id, loser_name, score, tour
		FROM matches
		ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		var surface, tour string
		if err := rows.Scan(&m.ID, &m.Date, &m.Tournament, &surface, &m.Round,
			&m.WinnerID, &m.WinnerName, &m.LoserID, &m.LoserName, &m.Score, &tour); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Surface = models.Surface(surface)
		m.Tour = models.Tour(tour)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}
