package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/internal/domain/standings"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

type StandingsRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
	now    func() time.Time
}

func NewStandingsRepository(db *sqlx.DB, logger *logging.Logger) *StandingsRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsRepository{db: db, logger: logger, now: time.Now}
}

func (r *StandingsRepository) ReplaceByCompetition(ctx context.Context, code string, rows []standings.Row) error {
	return replacePayload(ctx, r.db, "standings", code, rows, r.now())
}

func (r *StandingsRepository) ListAll(ctx context.Context) (map[string][]standings.Row, error) {
	return listPayloads[standings.Row](ctx, r.db, "standings", r.logger)
}
