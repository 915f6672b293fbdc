package scorers

import "context"

type Repository interface {
	ReplaceByCompetition(ctx context.Context, code string, items []Scorer) error
	ListAll(ctx context.Context) (map[string][]Scorer, error)
}
