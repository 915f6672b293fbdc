package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/match-tracker/internal/domain/appmeta"
)

type MetadataRepository struct {
	mu    sync.RWMutex
	items map[string]appmeta.Entry
	now   func() time.Time
}

func NewMetadataRepository() *MetadataRepository {
	return &MetadataRepository{
		items: make(map[string]appmeta.Entry),
		now:   time.Now,
	}
}

func (r *MetadataRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[key] = appmeta.Entry{Key: key, Value: value, UpdatedAt: r.now()}
	return nil
}

func (r *MetadataRepository) Get(_ context.Context, key string) (appmeta.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.items[key]
	if !ok {
		return appmeta.Entry{}, appmeta.ErrNotFound
	}
	return entry, nil
}
