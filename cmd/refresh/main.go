// Command refresh runs a single snapshot refresh synchronously and exits.
// It is the manual/CI entry point: exit code 0 means a new snapshot was
// published, anything else means the previous snapshot is still in place.
package main

import (
	"context"
	"errors"
	"os"

	"tennisdata/ingestion/internal/client"
	"tennisdata/ingestion/internal/config"
	"tennisdata/ingestion/internal/pipeline"
	"tennisdata/ingestion/internal/runlock"

	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()
	cfg := config.MustLoad()

	src := client.NewClient(
		cfg.SourceBaseURL,
		cfg.SourceTimeout,
		cfg.FetchConcurrency,
		cfg.RequestDelay,
	)

	var guard pipeline.Guard
	if cfg.RunLockEnabled() {
		lock, err := runlock.New(ctx, runlock.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RunLockTTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without run lock")
		} else {
			defer lock.Close()
			guard = lock
		}
	}

	res, err := pipeline.New(cfg, src, guard).Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunActive) {
			log.Warn().Msg("Another refresh is already running. Exiting.")
			os.Exit(1)
		}
		log.Error().Err(err).Msg("Refresh failed, previous snapshot left in place")
		os.Exit(1)
	}

	log.Info().
		Int("players", res.Players).
		Int("matches", res.Matches).
		Int("surface_stats", res.SurfaceStats).
		Int("skipped_records", res.SkippedRecords).
		Str("snapshot", res.SnapshotPath).
		Str("archive", res.ArchivePath).
		Msg("Refresh complete")
}
