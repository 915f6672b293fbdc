package competition

// Competition identifies one independently refreshed upstream source.
type Competition struct {
	Code string
	Name string
}

// Defaults returns the tracked competitions in refresh order.
func Defaults() []Competition {
	return []Competition{
		{Code: "PL", Name: "Premier League"},
		{Code: "PD", Name: "La Liga"},
		{Code: "BL1", Name: "Bundesliga"},
		{Code: "SA", Name: "Serie A"},
		{Code: "FL1", Name: "Ligue 1"},
		{Code: "CL", Name: "Champions League"},
	}
}

// FromCodes maps a configured code list onto known competitions,
// falling back to the code itself as display name for unknown codes.
func FromCodes(codes []string) []Competition {
	known := make(map[string]Competition, len(Defaults()))
	for _, c := range Defaults() {
		known[c.Code] = c
	}

	out := make([]Competition, 0, len(codes))
	for _, code := range codes {
		if code == "" {
			continue
		}
		if c, ok := known[code]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, Competition{Code: code, Name: code})
	}
	return out
}
