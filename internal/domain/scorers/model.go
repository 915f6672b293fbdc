package scorers

// Scorer mirrors one entry of the upstream scorers payload. Rows are
// persisted and served verbatim, so json tags follow the upstream
// field names.
type Scorer struct {
	Player        Player `json:"player"`
	Team          Team   `json:"team"`
	PlayedMatches int    `json:"playedMatches"`
	Goals         int    `json:"goals"`
	Assists       *int   `json:"assists"`
	Penalties     *int   `json:"penalties"`
}

type Player struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
}

type Team struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Crest     string `json:"crest"`
}
