// Package scheduler triggers the daily snapshot refresh on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"tennisdata/ingestion/internal/pipeline"
)

// Scheduler wraps a cron runner around the refresh pipeline.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *pipeline.Pipeline
	spec     string
	running  atomic.Bool
}

// New creates a scheduler that fires the pipeline on the given cron spec.
// The spec is interpreted in UTC so the refresh lands at the same wall-clock
// time regardless of where the worker runs.
func New(p *pipeline.Pipeline, spec string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		pipeline: p,
		spec:     spec,
	}
}

// Start registers the refresh job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("schedule", s.spec).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Scheduler stopped")
}

// refresh runs one pipeline pass. An in-process guard drops the tick if the
// previous run is still going, in addition to the optional distributed lock.
func (s *Scheduler) refresh() {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn().Msg("Previous refresh still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if _, err := s.pipeline.Run(context.Background()); err != nil {
		if errors.Is(err, pipeline.ErrRunActive) {
			log.Warn().Msg("Refresh skipped, run lock held elsewhere")
			return
		}
		log.Error().Err(err).Msg("Scheduled refresh failed")
	}
}
