package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tennisdata/ingestion/internal/config"
	"tennisdata/ingestion/internal/models"
	"tennisdata/ingestion/internal/snapshot"
)

type fakeSource struct {
	rankings  map[string][]byte
	players   map[string][]byte
	failSlugs map[string]bool
}

func (f *fakeSource) FetchRankingsPage(_ context.Context, tour models.Tour, page int) ([]byte, error) {
	b, ok := f.rankings[fmt.Sprintf("%s:%d", tour, page)]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s page %d", tour, page)
	}
	return b, nil
}

func (f *fakeSource) FetchPlayerPage(_ context.Context, slug string) ([]byte, error) {
	if f.failSlugs[slug] {
		return nil, fmt.Errorf("connection reset")
	}
	b, ok := f.players[slug]
	if !ok {
		return nil, fmt.Errorf("no fixture for player %s", slug)
	}
	return b, nil
}

type fakeGuard struct {
	held     bool
	err      error
	released bool
}

func (g *fakeGuard) Acquire(context.Context) (bool, error) { return !g.held, g.err }
func (g *fakeGuard) Release(context.Context)               { g.released = true }

func rankingsHTML(rows ...string) []byte {
	return []byte(`<table class="result"><tbody>` + strings.Join(rows, "\n") + `</tbody></table>`)
}

func rankingRow(rank int, slug, name string) string {
	return fmt.Sprintf(`<tr><td class="rank">%d.</td><td class="t-name"><a href="/player/%s/">%s</a></td></tr>`, rank, slug, name)
}

func tournamentHeader(name string) string {
	return fmt.Sprintf(`<tr><td class="t-name"><a href="/t/">%s</a></td></tr>`, name)
}

func matchRow(date time.Time, oppSlug, oppName, result string, sets ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<tr><td class="first time">%d.%d.</td><td class="t-name"><a href="/player/%s/">%s</a></td>`,
		date.Day(), int(date.Month()), oppSlug, oppName)
	fmt.Fprintf(&b, `<td class="result">%s</td>`, result)
	for _, s := range sets {
		fmt.Fprintf(&b, `<td class="score">%s</td>`, s)
	}
	b.WriteString(`</tr>`)
	return b.String()
}

func playerPageHTML(rows ...string) []byte {
	return []byte(`<table class="result"><tbody>` + strings.Join(rows, "\n") + `</tbody></table>`)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		MaxPlayersPerTour:   3,
		MaxMatchesPerPlayer: 10,
		MatchWindowMonths:   6,
		FetchConcurrency:    2,
		SnapshotPath:        filepath.Join(t.TempDir(), "tennis_data.db"),
		CompressSnapshot:    true,
	}
}

func testSource() *fakeSource {
	now := time.Now().UTC()
	recent := now.AddDate(0, 0, -30)
	stale := now.AddDate(0, -8, 0)

	clayEvent := fmt.Sprintf("Rome Masters %d", recent.Year())
	staleEvent := fmt.Sprintf("Old Cup %d", stale.Year())

	return &fakeSource{
		rankings: map[string][]byte{
			"ATP:1": rankingsHTML(
				rankingRow(1, "alcaraz-carlos", "Alcaraz Carlos"),
				rankingRow(2, "zverev-alexander", "Zverev Alexander"),
				rankingRow(3, "gone-player", "Gone Player"),
			),
			"WTA:1": rankingsHTML(
				rankingRow(1, "swiatek-iga", "Swiatek Iga"),
			),
			// Pagination past the listing end serves a page without the table.
			"WTA:2": []byte(`<html><body>nothing here</body></html>`),
		},
		players: map[string][]byte{
			// Both finalists report the same match; it must collapse to one row.
			"alcaraz-carlos": playerPageHTML(
				tournamentHeader(clayEvent),
				matchRow(recent, "zverev-alexander", "Zverev Alexander", "2-0", "6-4", "6-3"),
				tournamentHeader(staleEvent),
				matchRow(stale, "zverev-alexander", "Zverev Alexander", "2-1", "6-4", "3-6", "7-5"),
			),
			"zverev-alexander": playerPageHTML(
				tournamentHeader(clayEvent),
				matchRow(recent, "alcaraz-carlos", "Alcaraz Carlos", "0-2", "4-6", "3-6"),
			),
			"swiatek-iga": playerPageHTML(
				tournamentHeader(fmt.Sprintf("Doha %d", recent.Year())),
			),
		},
		failSlugs: map[string]bool{"gone-player": true},
	}
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)
	res, err := New(cfg, testSource(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Players, "Three ATP players and one WTA player")
	assert.Equal(t, 1, res.Matches, "The final reported by both players must collapse to one row")
	assert.Equal(t, 2, res.SurfaceStats, "One clay row per finalist")
	assert.Equal(t, 1, res.SkippedPlayers, "The unreachable player page is a counted skip")
	assert.Equal(t, cfg.SnapshotPath, res.SnapshotPath)
	assert.Equal(t, cfg.SnapshotPath+".gz", res.ArchivePath)

	ctx := context.Background()
	db, err := snapshot.Open(cfg.SnapshotPath)
	require.NoError(t, err)
	defer db.Close()

	players, err := db.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 4)

	matches, err := db.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, models.PlayerID("alcaraz-carlos", models.TourATP), m.WinnerID)
	assert.Equal(t, models.PlayerID("zverev-alexander", models.TourATP), m.LoserID)
	assert.Equal(t, models.SurfaceClay, m.Surface, "Rome should be inferred as clay")
	assert.Equal(t, "2-0 6-4 6-3", m.Score, "The surviving row must carry the winner-first score whichever page it came from")

	stats, err := db.ListSurfaceStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	for _, s := range stats {
		assert.Equal(t, models.SurfaceClay, s.Surface)
		assert.Equal(t, 1, s.MatchesPlayed, "The out-of-window match must not be counted")
	}

	windowSince, err := db.Metadata(ctx, "window_since")
	require.NoError(t, err)
	assert.NotEmpty(t, windowSince)

	_, err = os.Stat(res.ArchivePath)
	assert.NoError(t, err, "The gzip archive should be published alongside the snapshot")
}

func TestPipeline_DuplicateRankingRowSkipped(t *testing.T) {
	cfg := testConfig(t)
	src := testSource()
	src.rankings["ATP:1"] = rankingsHTML(
		rankingRow(1, "alcaraz-carlos", "Alcaraz Carlos"),
		rankingRow(1, "shadow-entry", "Shadow Entry"),
		rankingRow(2, "zverev-alexander", "Zverev Alexander"),
		rankingRow(3, "gone-player", "Gone Player"),
	)

	res, err := New(cfg, src, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Players, "The row repeating an already-seen rank must not add a player")
	assert.Equal(t, 1, res.SkippedRecords, "The duplicate ranking row is a counted skip")

	ctx := context.Background()
	db, err := snapshot.Open(cfg.SnapshotPath)
	require.NoError(t, err)
	defer db.Close()

	players, err := db.ListPlayers(ctx)
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, p := range players {
		key := fmt.Sprintf("%s:%d", p.Tour, p.Ranking)
		assert.False(t, seen[key], "No two players in one tour may share a ranking")
		seen[key] = true
		assert.NotEqual(t, "Shadow Entry", p.Name, "The skipped row must not reach the snapshot")
	}
}

func TestPipeline_RankingsFetchFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	src := testSource()
	delete(src.rankings, "ATP:1")

	_, err := New(cfg, src, nil).Run(context.Background())
	require.Error(t, err, "A rankings fetch failure must abort the run")

	_, statErr := os.Stat(cfg.SnapshotPath)
	assert.True(t, os.IsNotExist(statErr), "No snapshot may be published on a failed run")
}

func TestPipeline_FirstPageStructuralFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	src := testSource()
	src.rankings["WTA:1"] = []byte(`<html><body>maintenance</body></html>`)

	_, err := New(cfg, src, nil).Run(context.Background())
	require.Error(t, err, "An unrecognizable first listing page must abort the run")
}

func TestPipeline_LockHeld(t *testing.T) {
	cfg := testConfig(t)
	guard := &fakeGuard{held: true}

	_, err := New(cfg, testSource(), guard).Run(context.Background())
	assert.ErrorIs(t, err, ErrRunActive)
	assert.False(t, guard.released, "A lock we never held must not be released")
}

func TestPipeline_LockErrorDoesNotBlockRun(t *testing.T) {
	cfg := testConfig(t)
	guard := &fakeGuard{err: fmt.Errorf("redis down")}

	res, err := New(cfg, testSource(), guard).Run(context.Background())
	require.NoError(t, err, "A broken guard must not stop the refresh")
	assert.Equal(t, 4, res.Players)
}

func TestPipeline_ReleasesLock(t *testing.T) {
	cfg := testConfig(t)
	guard := &fakeGuard{}

	_, err := New(cfg, testSource(), guard).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, guard.released, "The lock must be released after the run")
}
