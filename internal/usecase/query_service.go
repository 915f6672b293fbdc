package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/match-tracker/internal/domain/appmeta"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/platform/cache"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// QueryService is the read side. Every accessor is a total function:
// failures are logged and degrade to empty results, readers never see
// an error from a failed refresh.
type QueryService struct {
	snapshot      *cache.Snapshot
	matchRepo     match.Repository
	scorerRepo    scorers.Repository
	standingsRepo standings.Repository
	metaRepo      appmeta.Repository
	logger        *logging.Logger
	now           func() time.Time
}

func NewQueryService(
	snapshot *cache.Snapshot,
	matchRepo match.Repository,
	scorerRepo scorers.Repository,
	standingsRepo standings.Repository,
	metaRepo appmeta.Repository,
	logger *logging.Logger,
) *QueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &QueryService{
		snapshot:      snapshot,
		matchRepo:     matchRepo,
		scorerRepo:    scorerRepo,
		standingsRepo: standingsRepo,
		metaRepo:      metaRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// Matches serves the cached grouped dataset when fresh, otherwise
// falls back to the store. Cache-only deployments return an empty map
// on a total miss.
func (s *QueryService) Matches(ctx context.Context) map[string][]match.Match {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Matches")
	defer span.End()

	if s.snapshot != nil {
		if value, ok := s.snapshot.Get(); ok {
			if grouped, ok := value.(map[string][]match.Match); ok {
				return grouped
			}
		}
	}

	if s.matchRepo == nil {
		return map[string][]match.Match{}
	}

	grouped, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list stored matches failed", "error", err)
		return map[string][]match.Match{}
	}
	return grouped
}

func (s *QueryService) Scorers(ctx context.Context) map[string][]scorers.Scorer {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Scorers")
	defer span.End()

	if s.scorerRepo == nil {
		return map[string][]scorers.Scorer{}
	}
	items, err := s.scorerRepo.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list stored scorers failed", "error", err)
		return map[string][]scorers.Scorer{}
	}
	return items
}

func (s *QueryService) Standings(ctx context.Context) map[string][]standings.Row {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Standings")
	defer span.End()

	if s.standingsRepo == nil {
		return map[string][]standings.Row{}
	}
	rows, err := s.standingsRepo.ListAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list stored standings failed", "error", err)
		return map[string][]standings.Row{}
	}
	return rows
}

// Summary returns the last persisted generated summary, empty when
// none has been produced yet.
func (s *QueryService) Summary(ctx context.Context) string {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Summary")
	defer span.End()

	if s.metaRepo == nil {
		return ""
	}
	entry, err := s.metaRepo.Get(ctx, appmeta.KeySummary)
	if err != nil {
		if !errors.Is(err, appmeta.ErrNotFound) {
			s.logger.ErrorContext(ctx, "read stored summary failed", "error", err)
		}
		return ""
	}
	return entry.Value
}

// LastUpdated renders a relative data-age indicator derived from the
// cache timestamp, falling back to the newest store row.
func (s *QueryService) LastUpdated(ctx context.Context) string {
	updatedAt := time.Time{}
	if s.snapshot != nil {
		updatedAt = s.snapshot.LastUpdated()
	}
	if updatedAt.IsZero() && s.matchRepo != nil {
		storeUpdatedAt, err := s.matchRepo.LastUpdatedAt(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "read store timestamp failed", "error", err)
		} else {
			updatedAt = storeUpdatedAt
		}
	}
	return relativeAge(s.now(), updatedAt)
}

// Overview bundles every read surface in one fan-out pass.
type Overview struct {
	Matches     map[string][]match.Match    `json:"matches"`
	Scorers     map[string][]scorers.Scorer `json:"scorers"`
	Standings   map[string][]standings.Row  `json:"standings"`
	Summary     string                      `json:"summary"`
	LastUpdated string                      `json:"lastUpdated"`
}

func (s *QueryService) Overview(ctx context.Context) Overview {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Overview")
	defer span.End()

	var overview Overview
	var wg conc.WaitGroup
	wg.Go(func() { overview.Matches = s.Matches(ctx) })
	wg.Go(func() { overview.Scorers = s.Scorers(ctx) })
	wg.Go(func() { overview.Standings = s.Standings(ctx) })
	wg.Go(func() { overview.Summary = s.Summary(ctx) })
	wg.Go(func() { overview.LastUpdated = s.LastUpdated(ctx) })
	wg.Wait()

	return overview
}

func relativeAge(now, updatedAt time.Time) string {
	if updatedAt.IsZero() {
		return "Never"
	}

	elapsed := now.Sub(updatedAt)
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute")
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour")
	default:
		return plural(int(elapsed.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
