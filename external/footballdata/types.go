package footballdata

import (
	"encoding/json"
	"strings"

	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/usecase"
)

// matchesEnvelope keeps individual records raw so one malformed record
// can be dropped without failing the whole page.
type matchesEnvelope struct {
	Competition rawCompetition    `json:"competition"`
	Matches     []json.RawMessage `json:"matches"`
}

type rawCompetition struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type rawMatch struct {
	UTCDate     string         `json:"utcDate"`
	Status      string         `json:"status"`
	HomeTeam    rawTeam        `json:"homeTeam"`
	AwayTeam    rawTeam        `json:"awayTeam"`
	Score       rawScore       `json:"score"`
	Competition rawCompetition `json:"competition"`
}

type rawTeam struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type rawScore struct {
	FullTime rawScorePair `json:"fullTime"`
}

type rawScorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type scorersEnvelope struct {
	Scorers []scorers.Scorer `json:"scorers"`
}

type standingsEnvelope struct {
	Standings []rawStandingsTable `json:"standings"`
}

type rawStandingsTable struct {
	Type  string          `json:"type"`
	Table []standings.Row `json:"table"`
}

func mapRawMatch(record rawMatch, fallback rawCompetition) usecase.UpstreamMatch {
	code := strings.TrimSpace(record.Competition.Code)
	name := strings.TrimSpace(record.Competition.Name)
	if code == "" {
		code = strings.TrimSpace(fallback.Code)
	}
	if name == "" {
		name = strings.TrimSpace(fallback.Name)
	}

	return usecase.UpstreamMatch{
		Status:          record.Status,
		UTCDate:         record.UTCDate,
		HomeTeamName:    record.HomeTeam.Name,
		AwayTeamName:    record.AwayTeam.Name,
		FullTimeHome:    record.Score.FullTime.Home,
		FullTimeAway:    record.Score.FullTime.Away,
		CompetitionCode: code,
		CompetitionName: name,
	}
}
