package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
)

type MatchRepository struct {
	mu        sync.RWMutex
	items     map[string][]match.Match
	updatedAt time.Time
	now       func() time.Time
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items: make(map[string][]match.Match),
		now:   time.Now,
	}
}

func (r *MatchRepository) ReplaceByCompetition(_ context.Context, code string, records []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[code] = append([]match.Match(nil), records...)
	r.updatedAt = r.now()
	return nil
}

func (r *MatchRepository) ListAll(_ context.Context) (map[string][]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]match.Match, len(r.items))
	for code, records := range r.items {
		out[code] = append([]match.Match(nil), records...)
	}
	return out, nil
}

func (r *MatchRepository) IsEmpty(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items) == 0, nil
}

func (r *MatchRepository) LastUpdatedAt(_ context.Context) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt, nil
}
