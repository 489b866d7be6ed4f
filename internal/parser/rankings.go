package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"tennisdata/ingestion/internal/models"
)

// ParseRankings extracts the ranking rows from one ranking listing page.
// The rank comes from the source listing, not from row position, so a page
// anywhere in the pagination yields correctly ranked players. Rows that fail
// validation are skipped and counted in the report.
func ParseRankings(html []byte, tour models.Tour, now time.Time) ([]models.Player, Report, error) {
	var report Report

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, report, fmt.Errorf("parse ranking page: %w", err)
	}

	if doc.Find("table.result").Length() == 0 {
		return nil, report, fmt.Errorf("ranking listing for %s: %w", tour, ErrUnrecognizedFormat)
	}

	var players []models.Player
	doc.Find("table.result tbody tr").Each(func(_ int, row *goquery.Selection) {
		raw := rankingRowFrom(row)
		player, ok := playerFromRow(raw, tour, now)
		if !ok {
			report.Skipped++
			log.Debug().
				Str("tour", string(tour)).
				Str("rank", raw.Rank).
				Str("name", raw.Name).
				Msg("Skipping malformed ranking row")
			return
		}
		players = append(players, player)
		report.Parsed++
	})

	return players, report, nil
}

// rankingRowFrom lifts one table row into an untyped RankingRow. Validation
// happens in toPlayer so that header and filler rows route to the skip path.
func rankingRowFrom(row *goquery.Selection) models.RankingRow {
	raw := models.RankingRow{}

	if rankCell := row.Find("td.rank").First(); rankCell.Length() > 0 {
		raw.Rank = strings.TrimSuffix(strings.TrimSpace(rankCell.Text()), ".")
	}

	if nameCell := row.Find("td.t-name a").First(); nameCell.Length() > 0 {
		raw.Name = strings.TrimSpace(nameCell.Text())
		raw.Href, _ = nameCell.Attr("href")
	}

	if flag := row.Find("td.t-name img").First(); flag.Length() > 0 {
		raw.Country, _ = flag.Attr("title")
	}

	return raw
}

// playerFromRow validates a raw row and converts it to a Player. A false
// return routes the row to the skip path.
func playerFromRow(raw models.RankingRow, tour models.Tour, now time.Time) (models.Player, bool) {
	ranking, err := strconv.Atoi(raw.Rank)
	if err != nil || ranking <= 0 {
		return models.Player{}, false
	}
	if raw.Name == "" {
		return models.Player{}, false
	}

	slugMatch := playerSlugRe.FindStringSubmatch(raw.Href)
	if slugMatch == nil {
		return models.Player{}, false
	}
	slug := slugMatch[1]

	return models.Player{
		ID:        models.PlayerID(slug, tour),
		Name:      raw.Name,
		Country:   raw.Country,
		Ranking:   ranking,
		Tour:      tour,
		Slug:      slug,
		UpdatedAt: now.UTC(),
	}, true
}
