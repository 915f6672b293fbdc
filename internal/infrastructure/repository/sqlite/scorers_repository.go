package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/internal/domain/scorers"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

type ScorersRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
	now    func() time.Time
}

func NewScorersRepository(db *sqlx.DB, logger *logging.Logger) *ScorersRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScorersRepository{db: db, logger: logger, now: time.Now}
}

func (r *ScorersRepository) ReplaceByCompetition(ctx context.Context, code string, items []scorers.Scorer) error {
	return replacePayload(ctx, r.db, "scorers", code, items, r.now())
}

func (r *ScorersRepository) ListAll(ctx context.Context) (map[string][]scorers.Scorer, error) {
	return listPayloads[scorers.Scorer](ctx, r.db, "scorers", r.logger)
}
