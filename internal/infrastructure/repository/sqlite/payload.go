package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/match-tracker/internal/platform/logging"
	qb "github.com/riskibarqy/match-tracker/internal/platform/querybuilder"
)

// payloadRow is the shared shape of the matches, scorers and standings
// tables: one serialized list per competition, replaced wholesale.
type payloadRow struct {
	CompetitionCode string    `db:"competition_code"`
	DataJSON        string    `db:"data_json"`
	UpdatedAt       time.Time `db:"updated_at"`
}

var payloadSelectColumns = []string{
	"competition_code",
	"data_json",
	"updated_at",
}

const payloadUpsertSuffix = `ON CONFLICT(competition_code) DO UPDATE SET
    data_json = excluded.data_json,
    updated_at = excluded.updated_at`

func replacePayload[T any](ctx context.Context, db *sqlx.DB, table, code string, items []T, now time.Time) error {
	if items == nil {
		// an empty upstream list is a valid full replacement
		items = []T{}
	}
	data, err := sonic.MarshalString(items)
	if err != nil {
		return fmt.Errorf("serialize %s payload competition=%s: %w", table, code, err)
	}

	query, args, err := qb.InsertModel(table, payloadRow{
		CompetitionCode: code,
		DataJSON:        data,
		UpdatedAt:       now,
	}, payloadUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert %s query: %w", table, err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s competition=%s: %w", table, code, err)
	}
	return nil
}

// listPayloads deserializes every row of a table. Rows that fail
// decode are logged and skipped rather than failing the read.
func listPayloads[T any](ctx context.Context, db *sqlx.DB, table string, logger *logging.Logger) (map[string][]T, error) {
	query, args, err := qb.Select(payloadSelectColumns...).From(table).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s query: %w", table, err)
	}

	var rows []payloadRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select %s rows: %w", table, err)
	}

	out := make(map[string][]T, len(rows))
	for _, row := range rows {
		var items []T
		if err := sonic.UnmarshalString(row.DataJSON, &items); err != nil {
			logger.WarnContext(ctx, "skipping undecodable stored payload",
				"table", table,
				"competition", row.CompetitionCode,
				"error", err,
			)
			continue
		}
		out[row.CompetitionCode] = items
	}
	return out, nil
}

func tableCount(ctx context.Context, db *sqlx.DB, table string) (int, error) {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count %s rows: %w", table, err)
	}
	return count, nil
}

func tableLastUpdated(ctx context.Context, db *sqlx.DB, table string) (time.Time, error) {
	var updatedAt sql.NullTime
	if err := db.GetContext(ctx, &updatedAt, "SELECT MAX(updated_at) FROM "+table); err != nil {
		return time.Time{}, fmt.Errorf("read %s max timestamp: %w", table, err)
	}
	if !updatedAt.Valid {
		return time.Time{}, nil
	}
	return updatedAt.Time, nil
}
