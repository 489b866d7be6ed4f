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

// PlayerRef identifies the player whose page is being parsed. Every match row
// on the page involves this player; the opponent comes from the row itself.
type PlayerRef struct {
	ID   int64
	Name string
	Slug string
}

// ParsePlayerMatches extracts singles matches from a player's match-history
// page, keeping only matches dated within [since, until]. Tournament name,
// year and surface come from the section header rows above the match rows.
// Rows that look like matches but fail validation are skipped and counted;
// doubles rows and out-of-window rows are excluded silently.
func ParsePlayerMatches(html []byte, tour models.Tour, self PlayerRef, since, until time.Time, maxMatches int) ([]models.Match, Report, error) {
	var report Report

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, report, fmt.Errorf("parse player page: %w", err)
	}

	if doc.Find("table.result").Length() == 0 {
		return nil, report, fmt.Errorf("player page for %s: %w", self.Slug, ErrUnrecognizedFormat)
	}

	// The page header usually carries the canonical player name; fall back to
	// the name from the ranking listing.
	playerName := strings.TrimSpace(doc.Find("h3.plDetail a, h1.player-name, .player-info h1").First().Text())
	if playerName == "" {
		playerName = self.Name
	}

	var matches []models.Match
	tournament := ""
	surface := models.SurfaceHard
	year := until.Year()

	doc.Find("table.result").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if maxMatches > 0 && len(matches) >= maxMatches {
				return false
			}

			// Tournament section header: a name link but no result cells.
			if header := row.Find("td.t-name a, th.t-name a").First(); header.Length() > 0 && row.Find("td.result, td.score").Length() == 0 {
				tournament = strings.TrimSpace(header.Text())
				surface = models.GuessSurface(tournament)
				if y := yearRe.FindString(tournament); y != "" {
					year, _ = strconv.Atoi(y)
				}
				return true
			}

			cells := row.Find("td")
			if cells.Length() == 0 {
				return true
			}

			// Match rows start with a "d.m." date cell; anything else is
			// filler and not a record at all.
			dm := dayMonthRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(0).Text()))
			if dm == nil {
				return true
			}

			match, ok := matchFromRow(row, cells, dm, tour, self.ID, playerName, tournament, surface, year, since, until)
			switch ok {
			case rowOK:
				matches = append(matches, match)
				report.Parsed++
			case rowSkipped:
				report.Skipped++
				log.Debug().
					Str("player", self.Slug).
					Str("tournament", tournament).
					Msg("Skipping malformed match row")
			case rowExcluded:
				// Out of window or doubles: deliberate exclusion, not a skip.
			}
			return true
		})
		return maxMatches <= 0 || len(matches) < maxMatches
	})

	return matches, report, nil
}

type rowOutcome int

const (
	rowOK rowOutcome = iota
	rowSkipped
	rowExcluded
)

func matchFromRow(row, cells *goquery.Selection, dm []string, tour models.Tour, playerID int64, playerName, tournament string, surface models.Surface, year int, since, until time.Time) (models.Match, rowOutcome) {
	day, month := dm[1], dm[2]
	date := fmt.Sprintf("%d-%s-%s", year, pad2(month), pad2(day))

	parsed, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return models.Match{}, rowSkipped
	}
	if parsed.Before(since) || parsed.After(until) {
		return models.Match{}, rowExcluded
	}

	opponentLink := row.Find(`td.t-name a[href*="/player/"]`).First()
	if opponentLink.Length() == 0 {
		return models.Match{}, rowSkipped
	}
	opponentName := strings.TrimSpace(opponentLink.Text())
	if strings.Contains(opponentName, "/") {
		// Doubles pairing; only singles are tracked.
		return models.Match{}, rowExcluded
	}

	href, _ := opponentLink.Attr("href")
	slugMatch := playerSlugRe.FindStringSubmatch(href)
	if slugMatch == nil {
		return models.Match{}, rowSkipped
	}
	opponentID := models.PlayerID(slugMatch[1], tour)
	if opponentID == playerID {
		return models.Match{}, rowSkipped
	}

	if row.Find("td.result, td.score").Length() == 0 {
		return models.Match{}, rowSkipped
	}

	score := scoreText(cells)
	won := playerWon(row, score)

	winnerID, winnerName := playerID, playerName
	loserID, loserName := opponentID, opponentName
	if !won {
		winnerID, winnerName = opponentID, opponentName
		loserID, loserName = playerID, playerName
		// Scores are stored winner-first, so both players' reports of the
		// same match produce identical rows.
		score = flipScore(score)
	}

	return models.Match{
		ID:         models.MatchID(date, winnerID, loserID),
		Date:       date,
		Tournament: tournament,
		Surface:    surface,
		Round:      strings.TrimSpace(row.Find("td.round").First().Text()),
		WinnerID:   winnerID,
		WinnerName: winnerName,
		LoserID:    loserID,
		LoserName:  loserName,
		Score:      score,
		Tour:       tour,
	}, rowOK
}

// playerWon decides whether the page's player won the row's match. The source
// marks wins with row/cell classes or bold markup; set counts in the score
// are the fallback, the first number being the page player's sets.
func playerWon(row *goquery.Selection, score string) bool {
	if class, ok := row.Attr("class"); ok && strings.Contains(strings.ToLower(class), "win") {
		return true
	}
	if row.Find("td.win, .winner, b").Length() > 0 {
		return true
	}
	sets := setDigitRe.FindAllString(score, 2)
	if len(sets) >= 2 {
		own, _ := strconv.Atoi(sets[0])
		opp, _ := strconv.Atoi(sets[1])
		return own > opp
	}
	return false
}

func scoreText(cells *goquery.Selection) string {
	var parts []string
	cells.Filter("td.score, td.result").Each(func(_ int, cell *goquery.Selection) {
		txt := strings.TrimSpace(cell.Text())
		if txt != "" && txt[0] >= '0' && txt[0] <= '9' {
			parts = append(parts, txt)
		}
	})
	return strings.Join(parts, " ")
}

// flipScore rewrites a loser-perspective score winner-first, set by set,
// e.g. "0-2 3-6 6-7(5)" becomes "2-0 6-3 7-6(5)".
func flipScore(score string) string {
	parts := strings.Fields(score)
	for i, p := range parts {
		parts[i] = flipSet(p)
	}
	return strings.Join(parts, " ")
}

func flipSet(s string) string {
	dash := strings.Index(s, "-")
	if dash < 0 {
		return s
	}
	left, rest := s[:dash], s[dash+1:]

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	right, suffix := rest[:digits], rest[digits:]
	if left == "" || right == "" {
		return s
	}
	return right + "-" + left + suffix
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
