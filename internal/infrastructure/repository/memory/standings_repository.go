package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/standings"
)

type StandingsRepository struct {
	mu    sync.RWMutex
	items map[string][]standings.Row
}

func NewStandingsRepository() *StandingsRepository {
	return &StandingsRepository{items: make(map[string][]standings.Row)}
}

func (r *StandingsRepository) ReplaceByCompetition(_ context.Context, code string, rows []standings.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[code] = append([]standings.Row(nil), rows...)
	return nil
}

func (r *StandingsRepository) ListAll(_ context.Context) (map[string][]standings.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]standings.Row, len(r.items))
	for code, rows := range r.items {
		out[code] = append([]standings.Row(nil), rows...)
	}
	return out, nil
}
