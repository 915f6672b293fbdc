package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

type Handler struct {
	queries   *usecase.QueryService
	refresher *usecase.RefreshService
	summaries *usecase.SummaryService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(
	queries *usecase.QueryService,
	refresher *usecase.RefreshService,
	summaries *usecase.SummaryService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queries:   queries,
		refresher: refresher,
		summaries: summaries,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// competitionFilter narrows grouped responses to one competition code.
type competitionFilter struct {
	Competition string `validate:"omitempty,alphanum,uppercase,min=2,max=4"`
}

func (h *Handler) competitionFilterFromRequest(ctx context.Context, r *http.Request) (competitionFilter, error) {
	filter := competitionFilter{
		Competition: strings.TrimSpace(r.URL.Query().Get("competition")),
	}
	if err := h.validateRequest(ctx, filter); err != nil {
		return competitionFilter{}, err
	}
	return filter, nil
}

func filterGrouped[T any](grouped map[string][]T, code string) map[string][]T {
	if code == "" {
		return grouped
	}
	out := make(map[string][]T, 1)
	if items, ok := grouped[code]; ok {
		out[code] = items
	}
	return out
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchesDTO struct {
	Matches     map[string][]match.Match `json:"matches"`
	LastUpdated string                   `json:"lastUpdated"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	filter, err := h.competitionFilterFromRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesDTO{
		Matches:     filterGrouped(h.queries.Matches(ctx), filter.Competition),
		LastUpdated: h.queries.LastUpdated(ctx),
	})
}

type scorersDTO struct {
	Scorers map[string][]scorers.Scorer `json:"scorers"`
}

func (h *Handler) ListScorers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScorers")
	defer span.End()

	filter, err := h.competitionFilterFromRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scorersDTO{
		Scorers: filterGrouped(h.queries.Scorers(ctx), filter.Competition),
	})
}

type standingsDTO struct {
	Standings map[string][]standings.Row `json:"standings"`
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	filter, err := h.competitionFilterFromRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsDTO{
		Standings: filterGrouped(h.queries.Standings(ctx), filter.Competition),
	})
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetOverview")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.queries.Overview(ctx))
}

type summaryDTO struct {
	Summary     string `json:"summary"`
	LastUpdated string `json:"lastUpdated"`
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSummary")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, summaryDTO{
		Summary:     h.queries.Summary(ctx),
		LastUpdated: h.queries.LastUpdated(ctx),
	})
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.refresher == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.refresher.Run(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual refresh job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunSummaryJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSummaryJob")
	defer span.End()

	if !h.summaries.Enabled() {
		writeError(ctx, w, fmt.Errorf("%w: summary generator is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	text, err := h.summaries.Regenerate(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual summary job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summaryDTO{
		Summary:     text,
		LastUpdated: h.queries.LastUpdated(ctx),
	})
}
