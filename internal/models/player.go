package models

import (
	"hash/fnv"
	"time"
)

// Tour identifies one of the two top-level tennis circuits.
type Tour string

const (
	TourATP Tour = "ATP"
	TourWTA Tour = "WTA"
)

// Tours lists both circuits in the order they are ingested.
var Tours = []Tour{TourATP, TourWTA}

// Player is one row of the players table. The set is rebuilt from the
// ranking listing on every run and replaced wholesale by the next run.
type Player struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Country   string    `db:"country"`
	Ranking   int       `db:"ranking"`
	Tour      Tour      `db:"tour"`
	Slug      string    `db:"slug"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RankingRow is a raw ranking listing row as scraped, before validation.
// Invalid rows are skipped at the parse boundary and never reach the models.
type RankingRow struct {
	Rank    string
	Name    string
	Href    string
	Country string
}

// PlayerID derives a stable numeric id from the source's player slug. The
// source itself has no numeric ids. Folding to nine digits keeps ids readable;
// WTA ids are negated so the two tours occupy disjoint id spaces.
func PlayerID(slug string, tour Tour) int64 {
	h := fnv.New64a()
	h.Write([]byte(slug))
	id := int64(h.Sum64() % 1_000_000_000)
	if tour == TourWTA {
		return -id
	}
	return id
}
