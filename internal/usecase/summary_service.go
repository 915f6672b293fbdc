package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/match-tracker/internal/domain/appmeta"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// SummaryService regenerates the match-day narrative after a refresh
// cycle and persists it under a metadata key. A generation failure
// leaves the previously persisted summary untouched and never fails
// the cycle that triggered it.
type SummaryService struct {
	generator SummaryGenerator
	queries   *QueryService
	metaRepo  appmeta.Repository
	logger    *logging.Logger
}

func NewSummaryService(
	generator SummaryGenerator,
	queries *QueryService,
	metaRepo appmeta.Repository,
	logger *logging.Logger,
) *SummaryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SummaryService{
		generator: generator,
		queries:   queries,
		metaRepo:  metaRepo,
		logger:    logger,
	}
}

// Enabled reports whether a generator is wired; deployments without a
// text-generation credential simply skip summaries.
func (s *SummaryService) Enabled() bool {
	return s != nil && s.generator != nil
}

// Regenerate flattens the current grouped dataset, generates a new
// summary and persists it. Returns the generated text.
func (s *SummaryService) Regenerate(ctx context.Context) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SummaryService.Regenerate")
	defer span.End()

	if !s.Enabled() {
		return "", fmt.Errorf("%w: summary generator not configured", ErrDependencyUnavailable)
	}

	grouped := s.queries.Matches(ctx)
	flattened := flattenGrouped(grouped)
	if len(flattened) == 0 {
		return "", fmt.Errorf("%w: no matches available for summary", ErrInvalidInput)
	}

	text, err := s.generator.GenerateSummary(ctx, flattened)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	if s.metaRepo != nil {
		if err := s.metaRepo.Set(ctx, appmeta.KeySummary, text); err != nil {
			// the generated text is still returned to the caller
			s.logger.ErrorContext(ctx, "persist summary failed", "error", err)
		}
	}

	return text, nil
}

// flattenGrouped walks groups in a stable order so the prompt payload
// is deterministic for identical datasets.
func flattenGrouped(grouped map[string][]match.Match) []match.Match {
	codes := make([]string, 0, len(grouped))
	for code := range grouped {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]match.Match, 0, 64)
	for _, code := range codes {
		out = append(out, grouped[code]...)
	}
	return out
}
