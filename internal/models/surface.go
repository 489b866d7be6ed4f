package models

import "strings"

// Surface is the court type a match was played on. Hard, Clay and Grass are
// the primary surfaces; the column is not a closed enum in data, so anything
// the source reports is stored as-is.
type Surface string

const (
	SurfaceHard  Surface = "Hard"
	SurfaceClay  Surface = "Clay"
	SurfaceGrass Surface = "Grass"
)

// SurfaceStat is one row of the player_surface_stats table, derived entirely
// from the run's match set. Rows with zero matches on a surface are omitted,
// never stored as zeros.
type SurfaceStat struct {
	PlayerID      int64   `db:"player_id"`
	Surface       Surface `db:"surface"`
	MatchesPlayed int     `db:"matches_played"`
	Wins          int     `db:"wins"`
	Losses        int     `db:"losses"`
	WinRate       float64 `db:"win_rate"`
}

// The source does not label surfaces on player pages, so the surface is
// inferred from the tournament name. Unknown tournaments default to Hard,
// which is by far the most common surface on both tours.
var (
	clayKeywords = []string{
		"roland garros", "french open", "rome", "madrid", "barcelona",
		"monte carlo", "buenos aires", "rio", "hamburg", "clay",
		"estoril", "geneva", "lyon", "kitzbuhel", "gstaad", "bastad",
		"umag", "marrakech", "houston", "bucharest", "palermo",
	}
	grassKeywords = []string{
		"wimbledon", "queens", "queen's", "halle", "eastbourne",
		"grass", "s-hertogenbosch", "stuttgart", "mallorca", "newport",
		"berlin",
	}
)

// GuessSurface infers the surface from a tournament name.
func GuessSurface(tournament string) Surface {
	name := strings.ToLower(tournament)
	for _, kw := range clayKeywords {
		if strings.Contains(name, kw) {
			return SurfaceClay
		}
	}
	for _, kw := range grassKeywords {
		if strings.Contains(name, kw) {
			return SurfaceGrass
		}
	}
	return SurfaceHard
}
