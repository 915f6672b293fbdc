package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/competition"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/platform/cache"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

const (
	defaultLookback     = 168 * time.Hour
	defaultScorersLimit = 10
	defaultCallPause    = 6 * time.Second
)

type RefreshConfig struct {
	Competitions []competition.Competition
	Lookback     time.Duration
	ScorersLimit int
	// CallPause is the fixed blocking delay after every individual
	// upstream call, successful or not. The upstream quota is per
	// minute, so deliberate over-throttling beats precision here.
	CallPause time.Duration
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	if len(c.Competitions) == 0 {
		c.Competitions = competition.Defaults()
	}
	if c.Lookback <= 0 {
		c.Lookback = defaultLookback
	}
	if c.ScorersLimit <= 0 {
		c.ScorersLimit = defaultScorersLimit
	}
	if c.CallPause < 0 {
		c.CallPause = defaultCallPause
	}
	return c
}

// RefreshResult summarizes one cycle for logging and the jobs API.
type RefreshResult struct {
	MatchesFetched   int `json:"matchesFetched"`
	ScorersFetched   int `json:"scorersFetched"`
	StandingsFetched int `json:"standingsFetched"`
	RecordsDropped   int `json:"recordsDropped"`
	Competitions     int `json:"competitions"`
}

// RefreshService runs the refresh-and-persist cycle: three strictly
// sequential phases over a fixed ordered competition list, pausing
// after every upstream call. It is the sole writer of the cache and
// the store; Run rejects a second caller while a cycle is in flight.
type RefreshService struct {
	provider      MatchDataProvider
	matchRepo     match.Repository
	scorerRepo    scorers.Repository
	standingsRepo standings.Repository
	snapshot      *cache.Snapshot
	cfg           RefreshConfig
	logger        *logging.Logger
	running       atomic.Bool

	// injectable for deterministic tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRefreshService wires a cycle runner. Repositories may all be nil,
// which selects the cache-only configuration: matches are fetched,
// grouped and installed into the snapshot without touching storage.
func NewRefreshService(
	provider MatchDataProvider,
	matchRepo match.Repository,
	scorerRepo scorers.Repository,
	standingsRepo standings.Repository,
	snapshot *cache.Snapshot,
	cfg RefreshConfig,
	logger *logging.Logger,
) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		provider:      provider,
		matchRepo:     matchRepo,
		scorerRepo:    scorerRepo,
		standingsRepo: standingsRepo,
		snapshot:      snapshot,
		cfg:           cfg.withDefaults(),
		logger:        logger,
		now:           time.Now,
		sleep:         sleepContext,
	}
}

// Run executes one full cycle. It returns ErrRefreshFailed only when
// zero competitions produced a successful matches fetch; every other
// partial-failure combination is a degraded success.
func (s *RefreshService) Run(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Run")
	defer span.End()

	if s.provider == nil {
		return RefreshResult{}, fmt.Errorf("%w: provider is required", ErrInvalidInput)
	}

	// Scheduled ticks and the manual job endpoint share this entry
	// point; whoever arrives second is turned away, not queued.
	if !s.running.CompareAndSwap(false, true) {
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.running.Store(false)

	if s.cacheOnly() && s.snapshot != nil && s.snapshot.IsValid() {
		s.logger.DebugContext(ctx, "cache still valid, skipping refresh cycle")
		return RefreshResult{Competitions: len(s.cfg.Competitions)}, nil
	}

	startedAt := s.now()
	result := RefreshResult{Competitions: len(s.cfg.Competitions)}

	grouped := s.runMatchesPhase(ctx, &result)

	if result.MatchesFetched == 0 {
		s.logger.ErrorContext(ctx, "refresh cycle failed, no competition returned matches",
			"competitions", len(s.cfg.Competitions),
		)
		return result, ErrRefreshFailed
	}

	if s.snapshot != nil {
		if !s.snapshot.Set(grouped, startedAt) {
			s.logger.WarnContext(ctx, "cache already holds fresher data, snapshot install skipped",
				"cycle_started_at", startedAt,
			)
		}
	}

	if !s.cacheOnly() {
		s.runScorersPhase(ctx, &result)
		s.runStandingsPhase(ctx, &result)
	}

	s.logger.InfoContext(ctx, "refresh cycle finished",
		"matches_fetched", result.MatchesFetched,
		"scorers_fetched", result.ScorersFetched,
		"standings_fetched", result.StandingsFetched,
		"records_dropped", result.RecordsDropped,
		"elapsed", s.now().Sub(startedAt),
	)
	return result, nil
}

// runMatchesPhase fetches, normalizes and persists matches for every
// competition independently, returning the grouped dataset of all
// successfully fetched sources. An empty fetched list still overwrites
// the stored one: a source reporting zero recent matches is valid.
func (s *RefreshService) runMatchesPhase(ctx context.Context, result *RefreshResult) map[string][]match.Match {
	all := make([]match.Match, 0, 64)

	for _, comp := range s.cfg.Competitions {
		page, err := s.provider.FetchMatches(ctx, comp.Code, s.cfg.Lookback)
		s.pause(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "matches fetch failed",
				"competition", comp.Code,
				"transient", IsTransient(err),
				"error", err,
			)
			continue
		}

		result.MatchesFetched++
		result.RecordsDropped += page.Dropped

		normalized := make([]match.Match, 0, len(page.Matches))
		for _, raw := range page.Matches {
			normalized = append(normalized, NormalizeMatch(raw, comp))
		}
		all = append(all, normalized...)

		if s.matchRepo != nil {
			if err := s.matchRepo.ReplaceByCompetition(ctx, comp.Code, normalized); err != nil {
				s.logger.ErrorContext(ctx, "persist matches failed",
					"competition", comp.Code,
					"error", err,
				)
			}
		}
	}

	return match.GroupByCompetition(all)
}

func (s *RefreshService) runScorersPhase(ctx context.Context, result *RefreshResult) {
	for _, comp := range s.cfg.Competitions {
		items, err := s.provider.FetchScorers(ctx, comp.Code, s.cfg.ScorersLimit)
		s.pause(ctx)
		if err != nil {
			// prior persisted value stays untouched
			s.logger.WarnContext(ctx, "scorers fetch failed",
				"competition", comp.Code,
				"transient", IsTransient(err),
				"error", err,
			)
			continue
		}

		result.ScorersFetched++
		if err := s.scorerRepo.ReplaceByCompetition(ctx, comp.Code, items); err != nil {
			s.logger.ErrorContext(ctx, "persist scorers failed",
				"competition", comp.Code,
				"error", err,
			)
		}
	}
}

func (s *RefreshService) runStandingsPhase(ctx context.Context, result *RefreshResult) {
	for _, comp := range s.cfg.Competitions {
		tables, err := s.provider.FetchStandings(ctx, comp.Code)
		s.pause(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "standings fetch failed",
				"competition", comp.Code,
				"transient", IsTransient(err),
				"error", err,
			)
			continue
		}

		if len(tables) == 0 {
			s.logger.DebugContext(ctx, "no standings tables returned", "competition", comp.Code)
			continue
		}

		rows, ok := selectTotalTable(tables)
		if !ok {
			s.logger.WarnContext(ctx, "standings payload has no overall table",
				"competition", comp.Code,
				"tables", len(tables),
			)
			continue
		}

		result.StandingsFetched++
		if err := s.standingsRepo.ReplaceByCompetition(ctx, comp.Code, rows); err != nil {
			s.logger.ErrorContext(ctx, "persist standings failed",
				"competition", comp.Code,
				"error", err,
			)
		}
	}
}

func selectTotalTable(tables []UpstreamStandingsTable) ([]standings.Row, bool) {
	for _, table := range tables {
		if table.Type == standings.TableTypeTotal {
			return table.Rows, true
		}
	}
	return nil, false
}

func (s *RefreshService) cacheOnly() bool {
	return s.matchRepo == nil
}

// NeedsPriming reports whether a startup cycle should run before the
// scheduler's ticker takes over. Cache-only deployments always start
// cold; otherwise a warm store skips the startup cycle so a restart
// does not burn upstream quota. When the store cannot be checked we
// prime rather than risk serving nothing.
func (s *RefreshService) NeedsPriming(ctx context.Context) bool {
	if s.cacheOnly() {
		return true
	}
	empty, err := s.matchRepo.IsEmpty(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "store emptiness check failed, priming anyway", "error", err)
		return true
	}
	return empty
}

func (s *RefreshService) pause(ctx context.Context) {
	if s.cfg.CallPause <= 0 {
		return
	}
	_ = s.sleep(ctx, s.cfg.CallPause)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
