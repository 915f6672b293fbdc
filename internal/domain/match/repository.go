package match

import (
	"context"
	"time"
)

type Repository interface {
	// ReplaceByCompetition overwrites the stored list for one
	// competition wholesale. An empty list is a valid write.
	ReplaceByCompetition(ctx context.Context, code string, records []Match) error
	ListAll(ctx context.Context) (map[string][]Match, error)
	// IsEmpty reports whether no competition has stored matches yet.
	IsEmpty(ctx context.Context) (bool, error)
	// LastUpdatedAt returns the newest row timestamp, zero when empty.
	LastUpdatedAt(ctx context.Context) (time.Time, error)
}
