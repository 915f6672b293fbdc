package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/external/footballdata"
	"github.com/riskibarqy/match-tracker/external/textgen"
	"github.com/riskibarqy/match-tracker/internal/config"
	"github.com/riskibarqy/match-tracker/internal/domain/appmeta"
	"github.com/riskibarqy/match-tracker/internal/domain/competition"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/match-tracker/internal/infrastructure/repository/sqlite"
	"github.com/riskibarqy/match-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/match-tracker/internal/platform/cache"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	"github.com/riskibarqy/match-tracker/internal/platform/resilience"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

// App bundles the HTTP server, the refresh scheduler and the owned
// store handle.
type App struct {
	Server    *http.Server
	Scheduler *Scheduler

	db     *sqlx.DB
	logger *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	snapshot := cache.NewSnapshot(cfg.CacheTTL)

	var (
		db            *sqlx.DB
		matchRepo     match.Repository
		scorerRepo    scorers.Repository
		standingsRepo standings.Repository
		metaRepo      appmeta.Repository
	)
	if cfg.CacheOnly() {
		logger.Info("store disabled, running cache-only", "reason", "SQLITE_PATH empty")
		metaRepo = memory.NewMetadataRepository()
	} else {
		var err error
		db, err = sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		matchRepo = sqlite.NewMatchRepository(db, logger)
		scorerRepo = sqlite.NewScorersRepository(db, logger)
		standingsRepo = sqlite.NewStandingsRepository(db, logger)
		metaRepo = sqlite.NewMetadataRepository(db, logger)
	}

	provider := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:    cfg.FootballDataBaseURL,
		Token:      cfg.FootballDataToken,
		Timeout:    cfg.FootballDataTimeout,
		RetryDelay: cfg.FootballDataRetryDelay,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FootballDataCircuitEnabled,
			FailureThreshold: cfg.FootballDataCircuitFailures,
			OpenTimeout:      cfg.FootballDataCircuitOpenWait,
			HalfOpenMaxReq:   cfg.FootballDataCircuitHalfOpen,
		},
	})

	refresher := usecase.NewRefreshService(provider, matchRepo, scorerRepo, standingsRepo, snapshot, usecase.RefreshConfig{
		Competitions: competition.FromCodes(cfg.CompetitionCodes),
		Lookback:     cfg.LookbackWindow,
		ScorersLimit: cfg.ScorersLimit,
		CallPause:    cfg.RefreshCallPause,
	}, logger)

	queries := usecase.NewQueryService(snapshot, matchRepo, scorerRepo, standingsRepo, metaRepo, logger)

	var generator usecase.SummaryGenerator
	if cfg.SummaryEnabled() {
		generator = textgen.NewClient(textgen.ClientConfig{
			HTTPClient: &http.Client{Timeout: cfg.SummaryTimeout},
			BaseURL:    cfg.SummaryAPIBaseURL,
			APIKey:     cfg.SummaryAPIKey,
			Model:      cfg.SummaryModel,
			MaxTokens:  cfg.SummaryMaxTokens,
			Logger:     logger,
		})
	} else {
		logger.Info("summary generation disabled", "reason", "SUMMARY_API_KEY empty")
	}
	summaries := usecase.NewSummaryService(generator, queries, metaRepo, logger)

	handler := httpapi.NewHandler(queries, refresher, summaries, logger)
	router := httpapi.NewRouter(handler, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	scheduler, err := NewScheduler(refresher, summaries, cfg.RefreshInterval, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	return &App{
		Server:    server,
		Scheduler: scheduler,
		db:        db,
		logger:    logger,
	}, nil
}

// Close stops the scheduler and releases the store handle. The HTTP
// server is shut down by the caller first so in-flight reads finish.
func (a *App) Close() error {
	a.Scheduler.Stop()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
