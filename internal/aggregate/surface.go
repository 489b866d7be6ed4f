// Package aggregate computes per-(player, surface) win/loss statistics from
// the run's match set.
package aggregate

import (
	"sort"

	"tennisdata/ingestion/internal/models"
)

type key struct {
	playerID int64
	surface  models.Surface
}

type counts struct {
	wins   int
	losses int
}

// SurfaceStats accumulates one win for the winner and one loss for the loser
// of every match, keyed by (player id, surface), and emits one row per key.
// Accumulation is commutative, so the result is independent of match order.
// A player with losses but no wins on a surface still gets a row; a surface a
// player never appeared on produces no row at all.
func SurfaceStats(matches []models.Match) []models.SurfaceStat {
	acc := make(map[key]*counts)

	bump := func(k key) *counts {
		c, ok := acc[k]
		if !ok {
			c = &counts{}
			acc[k] = c
		}
		return c
	}

	for _, m := range matches {
		bump(key{m.WinnerID, m.Surface}).wins++
		bump(key{m.LoserID, m.Surface}).losses++
	}

	stats := make([]models.SurfaceStat, 0, len(acc))
	for k, c := range acc {
		stats = append(stats, models.SurfaceStat{
			PlayerID:      k.playerID,
			Surface:       k.surface,
			MatchesPlayed: c.wins + c.losses,
			Wins:          c.wins,
			Losses:        c.losses,
			WinRate:       winRate(c.wins, c.losses),
		})
	}

	// Deterministic output order regardless of map iteration.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].PlayerID != stats[j].PlayerID {
			return stats[i].PlayerID < stats[j].PlayerID
		}
		return stats[i].Surface < stats[j].Surface
	})

	return stats
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
