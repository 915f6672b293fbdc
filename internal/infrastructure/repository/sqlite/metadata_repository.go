package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/internal/domain/appmeta"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

type metadataRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

type MetadataRepository struct {
	db     *sqlx.DB
	logger *logging.Logger
	now    func() time.Time
}

func NewMetadataRepository(db *sqlx.DB, logger *logging.Logger) *MetadataRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &MetadataRepository{db: db, logger: logger, now: time.Now}
}

func (r *MetadataRepository) Set(ctx context.Context, key, value string) error {
	query, args, err := qb.InsertModel("app_metadata", metadataRow{
		Key:       key,
		Value:     value,
		UpdatedAt: r.now(),
	}, `ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert metadata query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert metadata key=%s: %w", key, err)
	}
	return nil
}

func (r *MetadataRepository) Get(ctx context.Context, key string) (appmeta.Entry, error) {
	query, args, err := qb.Select("key", "value", "updated_at").
		From("app_metadata").
		Where(qb.Eq("key", key)).
		ToSQL()
	if err != nil {
		return appmeta.Entry{}, fmt.Errorf("build select metadata query: %w", err)
	}

	var row metadataRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return appmeta.Entry{}, appmeta.ErrNotFound
		}
		return appmeta.Entry{}, fmt.Errorf("select metadata key=%s: %w", key, err)
	}

	return appmeta.Entry{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt}, nil
}
