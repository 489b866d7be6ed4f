package models

import "fmt"

// DateFormat is the canonical calendar format for match dates in the snapshot.
const DateFormat = "2006-01-02"

// Match is one row of the matches table, covering the trailing match window
// of the run. Winner and loser ids are weak references: a player who fell out
// of the top-500 listing has no players row, but the match is kept.
type Match struct {
	ID         string  `db:"id"`
	Date       string  `db:"date"` // YYYY-MM-DD
	Tournament string  `db:"tournament"`
	Surface    Surface `db:"surface"`
	Round      string  `db:"round"`
	WinnerID   int64   `db:"winner_id"`
	WinnerName string  `db:"winner_name"`
	LoserID    int64   `db:"loser_id"`
	LoserName  string  `db:"loser_name"`
	Score      string  `db:"score"`
	Tour       Tour    `db:"tour"`
}

// MatchID builds the snapshot-unique match id. Both participants' pages
// report the same match; deriving the id from date and the two player ids
// makes the duplicate collapse during assembly.
func MatchID(date string, winnerID, loserID int64) string {
	return fmt.Sprintf("TE_%s_%d_%d", date, winnerID, loserID)
}
