package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

// Scheduler drives the periodic refresh cycle. A nonblocking pool of
// one worker serializes cycles: when a tick fires while the previous
// cycle is still running, the tick is skipped instead of queued.
type Scheduler struct {
	refresher *usecase.RefreshService
	summaries *usecase.SummaryService
	interval  time.Duration
	logger    *logging.Logger

	pool   *ants.Pool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(
	refresher *usecase.RefreshService,
	summaries *usecase.SummaryService,
	interval time.Duration,
	logger *logging.Logger,
) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		refresher: refresher,
		summaries: summaries,
		interval:  interval,
		logger:    logger,
		pool:      pool,
	}, nil
}

// Start primes the dataset when the store is empty, then ticks at the
// configured interval until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	// The startup cycle runs synchronously and only against an empty
	// store, so an empty dataset is never served and a warm restart
	// goes straight to the ticker without spending upstream calls.
	if s.refresher.NeedsPriming(ctx) {
		s.runCycle(ctx)
	} else {
		s.logger.InfoContext(ctx, "store already populated, skipping startup refresh")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.trigger(ctx)
			}
		}
	}()
}

// Stop cancels the tick loop and waits for an in-flight cycle.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.pool.Release()
}

func (s *Scheduler) trigger(ctx context.Context) {
	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		s.runCycle(ctx)
	})
	if err == nil {
		return
	}
	s.wg.Done()

	if errors.Is(err, ants.ErrPoolOverload) {
		s.logger.WarnContext(ctx, "refresh tick skipped, previous cycle still running")
		return
	}
	s.logger.ErrorContext(ctx, "submit refresh cycle failed", "error", err)
}

func (s *Scheduler) runCycle(ctx context.Context) {
	started := time.Now()

	result, err := s.refresher.Run(ctx)
	if errors.Is(err, usecase.ErrRefreshInProgress) {
		s.logger.WarnContext(ctx, "refresh tick skipped, a manually triggered cycle is running")
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh cycle failed",
			"error", err,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return
	}

	s.logger.InfoContext(ctx, "refresh cycle finished",
		"matches_fetched", result.MatchesFetched,
		"scorers_fetched", result.ScorersFetched,
		"standings_fetched", result.StandingsFetched,
		"records_dropped", result.RecordsDropped,
		"competitions", result.Competitions,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if !s.summaries.Enabled() {
		return
	}

	// Summary failures never fail the cycle that triggered them.
	if _, err := s.summaries.Regenerate(ctx); err != nil {
		s.logger.WarnContext(ctx, "summary regeneration failed", "error", err)
	}
}
