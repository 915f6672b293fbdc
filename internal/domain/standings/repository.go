package standings

import "context"

type Repository interface {
	ReplaceByCompetition(ctx context.Context, code string, rows []Row) error
	ListAll(ctx context.Context) (map[string][]Row, error)
}
