package usecase

import (
	"fmt"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/competition"
	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

const placeholderNA = "N/A"

// NormalizeMatch converts one decoded upstream match record into the
// canonical form. It is total: every anomaly short of an undecodable
// record (dropped at the client boundary) degrades to a placeholder
// field, never to a dropped record.
func NormalizeMatch(raw UpstreamMatch, comp competition.Competition) match.Match {
	status := raw.Status
	if status == "" {
		status = match.StatusScheduled
	}

	code := comp.Code
	if code == "" {
		code = raw.CompetitionCode
	}
	if code == "" {
		code = placeholderNA
	}
	name := comp.Name
	if name == "" {
		name = raw.CompetitionName
	}
	if name == "" {
		name = placeholderNA
	}

	home := raw.HomeTeamName
	if home == "" {
		home = placeholderNA
	}
	away := raw.AwayTeamName
	if away == "" {
		away = placeholderNA
	}

	return match.Match{
		Status:          status,
		ScoreText:       scoreText(status, raw),
		HomeTeam:        home,
		AwayTeam:        away,
		UTCKickoff:      raw.UTCDate,
		CompetitionCode: code,
		CompetitionName: name,
		DisplayDate:     displayDate(raw.UTCDate),
		SearchQuery:     fmt.Sprintf("%s %s vs %s", name, home, away),
	}
}

func scoreText(status string, raw UpstreamMatch) string {
	switch status {
	case match.StatusFinished:
		if raw.FullTimeHome == nil || raw.FullTimeAway == nil {
			logging.Default().Warn("finished match missing full-time score",
				"home_team", raw.HomeTeamName,
				"away_team", raw.AwayTeamName,
				"utc_date", raw.UTCDate,
			)
			return placeholderNA
		}
		return fmt.Sprintf("%d–%d", *raw.FullTimeHome, *raw.FullTimeAway)
	case match.StatusLive, match.StatusInPlay:
		return "LIVE"
	default:
		return "SCHEDULED"
	}
}

// displayDate renders "Sat, Nov 15" style dates. Parse failures are
// soft: the record survives with a placeholder.
func displayDate(utcDate string) string {
	if utcDate == "" {
		return placeholderNA
	}
	kickoff, err := time.Parse(time.RFC3339, utcDate)
	if err != nil {
		return placeholderNA
	}
	return kickoff.Format("Mon, Jan 02")
}
