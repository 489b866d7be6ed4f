// Package pipeline orchestrates one full snapshot refresh: fetch rankings and
// match histories for both tours, parse, window, aggregate surface stats and
// publish the snapshot atomically. It exposes a single Run entry point that
// any trigger (cron, CLI) can call synchronously.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tennisdata/ingestion/internal/aggregate"
	"tennisdata/ingestion/internal/config"
	"tennisdata/ingestion/internal/metrics"
	"tennisdata/ingestion/internal/models"
	"tennisdata/ingestion/internal/parser"
	"tennisdata/ingestion/internal/snapshot"
)

// ErrRunActive is returned when the overlap guard reports a previous refresh
// run still holding the lock.
var ErrRunActive = errors.New("a previous refresh run is still active")

// Source fetches raw pages from the ranking/match listing site.
// *client.Client is the production implementation.
type Source interface {
	FetchRankingsPage(ctx context.Context, tour models.Tour, page int) ([]byte, error)
	FetchPlayerPage(ctx context.Context, slug string) ([]byte, error)
}

// Guard is the optional run-overlap lock.
type Guard interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Pipeline runs the daily refresh.
type Pipeline struct {
	cfg  *config.Config
	src  Source
	lock Guard // nil when the guard is disabled
}

// New creates a pipeline. lock may be nil.
func New(cfg *config.Config, src Source, lock Guard) *Pipeline {
	return &Pipeline{cfg: cfg, src: src, lock: lock}
}

// Result summarizes one completed refresh run.
type Result struct {
	Players        int
	Matches        int
	SurfaceStats   int
	SkippedRecords int
	SkippedPlayers int
	SnapshotPath   string
	ArchivePath    string
	Duration       time.Duration
}

type tourData struct {
	players  []models.Player
	matches  []models.Match
	skipped  int
	noPages  int
	failures int
}

// Run executes one full refresh and publishes the snapshot. On any fatal
// error the previously published snapshot is left untouched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if p.lock != nil {
		ok, err := p.lock.Acquire(ctx)
		switch {
		case err != nil:
			// The guard is best-effort; a broken lock must not stop the refresh.
			log.Warn().Err(err).Msg("Run lock unavailable, continuing without overlap guard")
			metrics.RecordError("runlock", "acquire")
		case !ok:
			metrics.RecordRun("skipped", time.Since(start).Seconds())
			return nil, ErrRunActive
		default:
			defer p.lock.Release(ctx)
		}
	}

	reference := time.Now().UTC()
	since := reference.AddDate(0, -p.cfg.MatchWindowMonths, 0)
	log.Info().
		Time("reference", reference).
		Time("window_since", since).
		Msg("Starting snapshot refresh")

	// The two tours are fully independent; fetch and parse them in parallel
	// and join before aggregation.
	results := make([]*tourData, len(models.Tours))
	g, gctx := errgroup.WithContext(ctx)
	for i, tour := range models.Tours {
		g.Go(func() error {
			td, err := p.ingestTour(gctx, tour, since, reference)
			if err != nil {
				return err
			}
			results[i] = td
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordRun("failure", time.Since(start).Seconds())
		return nil, err
	}

	res := &Result{SnapshotPath: p.cfg.SnapshotPath}

	var players []models.Player
	var raw []models.Match
	for _, td := range results {
		players = append(players, td.players...)
		raw = append(raw, td.matches...)
		res.SkippedRecords += td.skipped
		res.SkippedPlayers += td.failures
	}

	// Concurrent player-page fetches append in completion order; sort before
	// deduplicating so the surviving copy of a match does not depend on
	// goroutine timing.
	sort.Slice(raw, func(i, j int) bool {
		if raw[i].ID != raw[j].ID {
			return raw[i].ID < raw[j].ID
		}
		if raw[i].Round != raw[j].Round {
			return raw[i].Round < raw[j].Round
		}
		return raw[i].Score < raw[j].Score
	})

	var matches []models.Match
	seenMatch := make(map[string]bool)
	duplicates, invalid := 0, 0
	for _, m := range raw {
		// Both participants' pages report the same match once each.
		if seenMatch[m.ID] {
			duplicates++
			continue
		}
		if m.WinnerID == m.LoserID {
			invalid++
			continue
		}
		seenMatch[m.ID] = true
		matches = append(matches, m)
	}
	if invalid > 0 {
		log.Warn().Int("count", invalid).Msg("Dropped matches with identical winner and loser")
	}
	log.Info().
		Int("players", len(players)).
		Int("matches", len(matches)).
		Int("duplicates", duplicates).
		Msg("Tours merged")

	stats := aggregate.SurfaceStats(matches)

	snap := &snapshot.Snapshot{
		Players:     players,
		Matches:     matches,
		Stats:       stats,
		GeneratedAt: reference,
		WindowSince: since.Format(models.DateFormat),
	}
	if err := snapshot.Publish(ctx, p.cfg.SnapshotPath, snap); err != nil {
		metrics.RecordRun("failure", time.Since(start).Seconds())
		return nil, err
	}

	if p.cfg.CompressSnapshot {
		archive, err := snapshot.Compress(p.cfg.SnapshotPath)
		if err != nil {
			metrics.RecordRun("failure", time.Since(start).Seconds())
			return nil, err
		}
		res.ArchivePath = archive
	}

	res.Players = len(players)
	res.Matches = len(matches)
	res.SurfaceStats = len(stats)
	res.Duration = time.Since(start)

	var sizeBytes int64
	if info, err := os.Stat(p.cfg.SnapshotPath); err == nil {
		sizeBytes = info.Size()
	}
	metrics.UpdateSnapshotStats(res.Players, res.Matches, res.SurfaceStats, sizeBytes)
	metrics.RecordRun("success", res.Duration.Seconds())

	log.Info().
		Int("players", res.Players).
		Int("matches", res.Matches).
		Int("surface_stats", res.SurfaceStats).
		Int("skipped_records", res.SkippedRecords).
		Dur("duration", res.Duration).
		Msg("Snapshot refresh complete")
	return res, nil
}

// ingestTour fetches one tour's ranking listing page by page, then each
// ranked player's match history with bounded concurrency. Ranking fetch or
// structural parse failures abort the run; individual player pages that fail
// are skipped and counted, matching the per-record tolerance of the parser.
func (p *Pipeline) ingestTour(ctx context.Context, tour models.Tour, since, until time.Time) (*tourData, error) {
	td := &tourData{}

	seenRank := make(map[int]bool)
	seenID := make(map[int64]bool)

	for page := 1; len(td.players) < p.cfg.MaxPlayersPerTour; page++ {
		fetchStart := time.Now()
		html, err := p.src.FetchRankingsPage(ctx, tour, page)
		if err != nil {
			metrics.RecordFetch(string(tour), "rankings", "error", time.Since(fetchStart).Seconds())
			return nil, fmt.Errorf("fetch %s rankings page %d: %w", tour, page, err)
		}
		metrics.RecordFetch(string(tour), "rankings", "success", time.Since(fetchStart).Seconds())

		pagePlayers, report, err := parser.ParseRankings(html, tour, until)
		if err != nil {
			// Pagination past the end of the listing serves a page without
			// the ranking table; only the first page must be well-formed.
			if page > 1 && errors.Is(err, parser.ErrUnrecognizedFormat) {
				break
			}
			return nil, err
		}
		metrics.RecordParse(string(tour), "rankings", report.Parsed, report.Skipped)
		td.skipped += report.Skipped

		added := 0
		for _, pl := range pagePlayers {
			if len(td.players) >= p.cfg.MaxPlayersPerTour {
				break
			}
			if seenRank[pl.Ranking] || seenID[pl.ID] {
				td.skipped++
				log.Warn().
					Str("tour", string(tour)).
					Int("ranking", pl.Ranking).
					Str("slug", pl.Slug).
					Msg("Skipping duplicate ranking row")
				continue
			}
			seenRank[pl.Ranking] = true
			seenID[pl.ID] = true
			td.players = append(td.players, pl)
			added++
		}
		if added == 0 {
			break
		}
	}
	log.Info().
		Str("tour", string(tour)).
		Int("players", len(td.players)).
		Msg("Rankings ingested")

	var mu sync.Mutex
	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(p.cfg.FetchConcurrency)
	for _, pl := range td.players {
		pg.Go(func() error {
			fetchStart := time.Now()
			html, err := p.src.FetchPlayerPage(pctx, pl.Slug)
			if err != nil {
				metrics.RecordFetch(string(tour), "matches", "error", time.Since(fetchStart).Seconds())
				log.Warn().Err(err).
					Str("tour", string(tour)).
					Str("slug", pl.Slug).
					Msg("Skipping player page, fetch failed")
				mu.Lock()
				td.failures++
				mu.Unlock()
				return nil
			}
			metrics.RecordFetch(string(tour), "matches", "success", time.Since(fetchStart).Seconds())

			ref := parser.PlayerRef{ID: pl.ID, Name: pl.Name, Slug: pl.Slug}
			matches, report, err := parser.ParsePlayerMatches(html, tour, ref, since, until, p.cfg.MaxMatchesPerPlayer)
			if err != nil {
				// One odd player page among hundreds is per-record
				// granularity at run level; it contributes nothing.
				log.Warn().Err(err).
					Str("tour", string(tour)).
					Str("slug", pl.Slug).
					Msg("Skipping player page, parse failed")
				mu.Lock()
				td.failures++
				mu.Unlock()
				return nil
			}
			metrics.RecordParse(string(tour), "matches", report.Parsed, report.Skipped)

			mu.Lock()
			td.matches = append(td.matches, matches...)
			td.skipped += report.Skipped
			mu.Unlock()
			return nil
		})
	}
	if err := pg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().
		Str("tour", string(tour)).
		Int("matches", len(td.matches)).
		Int("failed_player_pages", td.failures).
		Msg("Match histories ingested")
	return td, nil
}
