package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
)

type ScorersRepository struct {
	mu    sync.RWMutex
	items map[string][]scorers.Scorer
}

func NewScorersRepository() *ScorersRepository {
	return &ScorersRepository{items: make(map[string][]scorers.Scorer)}
}

func (r *ScorersRepository) ReplaceByCompetition(_ context.Context, code string, items []scorers.Scorer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[code] = append([]scorers.Scorer(nil), items...)
	return nil
}

func (r *ScorersRepository) ListAll(_ context.Context) (map[string][]scorers.Scorer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]scorers.Scorer, len(r.items))
	for code, items := range r.items {
		out[code] = append([]scorers.Scorer(nil), items...)
	}
	return out, nil
}
