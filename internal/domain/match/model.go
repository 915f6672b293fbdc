package match

import "sort"

const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusLive      = "LIVE"
	StatusInPlay    = "IN_PLAY"
	StatusPostponed = "POSTPONED"
	StatusFinished  = "FINISHED"
)

// Match is the canonical normalized record served to readers and
// persisted per competition. Score, display date and search query are
// derived at normalization time; raw upstream shapes never leave the
// client boundary.
type Match struct {
	Status          string `json:"status"`
	ScoreText       string `json:"score_text"`
	HomeTeam        string `json:"home_team"`
	AwayTeam        string `json:"away_team"`
	UTCKickoff      string `json:"utc_kickoff"`
	CompetitionCode string `json:"competition_code"`
	CompetitionName string `json:"competition_name"`
	DisplayDate     string `json:"display_date"`
	SearchQuery     string `json:"search_query"`
}

// GroupByCompetition partitions records by competition code, newest
// kickoff first within each group and kickoff ties broken by home team
// name so output order is stable across refreshes. ISO-8601 UTC
// strings order correctly under plain string comparison; records with
// an empty competition code are dropped, empty kickoffs sort to the
// end.
func GroupByCompetition(records []Match) map[string][]Match {
	grouped := make(map[string][]Match)
	for _, rec := range records {
		if rec.CompetitionCode == "" {
			continue
		}
		grouped[rec.CompetitionCode] = append(grouped[rec.CompetitionCode], rec)
	}

	for code := range grouped {
		group := grouped[code]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].UTCKickoff != group[j].UTCKickoff {
				return group[i].UTCKickoff > group[j].UTCKickoff
			}
			return group[i].HomeTeam < group[j].HomeTeam
		})
	}

	return grouped
}
