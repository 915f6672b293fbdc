package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

type MatchRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
	now    func() time.Time
}

func NewMatchRepository(db *sqlx.DB, logger *logging.Logger) *MatchRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchRepository{db: db, logger: logger, now: time.Now}
}

func (r *MatchRepository) ReplaceByCompetition(ctx context.Context, code string, records []match.Match) error {
	return replacePayload(ctx, r.db, "matches", code, records, r.now())
}

func (r *MatchRepository) ListAll(ctx context.Context) (map[string][]match.Match, error) {
	return listPayloads[match.Match](ctx, r.db, "matches", r.logger)
}

func (r *MatchRepository) IsEmpty(ctx context.Context) (bool, error) {
	count, err := tableCount(ctx, r.db, "matches")
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *MatchRepository) LastUpdatedAt(ctx context.Context) (time.Time, error) {
	return tableLastUpdated(ctx, r.db, "matches")
}
