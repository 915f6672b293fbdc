package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
)

// MatchDataProvider is the upstream boundary. Each call kind is
// independent: a failure in one never affects the others for the same
// competition. Implementations classify transient failures with
// IsTransient-compatible errors and retry those once internally.
type MatchDataProvider interface {
	FetchMatches(ctx context.Context, code string, lookback time.Duration) (UpstreamMatchPage, error)
	FetchScorers(ctx context.Context, code string, limit int) ([]scorers.Scorer, error)
	FetchStandings(ctx context.Context, code string) ([]UpstreamStandingsTable, error)
}

// UpstreamMatchPage carries the decoded matches of one fetch plus the
// count of raw records that failed structural decode and were dropped.
type UpstreamMatchPage struct {
	Matches []UpstreamMatch
	Dropped int
}

// UpstreamMatch is the defensively decoded raw match record. Optional
// upstream fields stay optional here; normalization fills placeholders.
type UpstreamMatch struct {
	Status          string
	UTCDate         string
	HomeTeamName    string
	AwayTeamName    string
	FullTimeHome    *int
	FullTimeAway    *int
	CompetitionCode string
	CompetitionName string
}

// UpstreamStandingsTable is one standings split (TOTAL, HOME or AWAY).
type UpstreamStandingsTable struct {
	Type string
	Rows []standings.Row
}

// SummaryGenerator turns the flattened normalized matches into a short
// narrative text. Treated as an opaque blocking call with its own
// timeout, unrelated to the refresh cycle.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, records []match.Match) (string, error)
}
