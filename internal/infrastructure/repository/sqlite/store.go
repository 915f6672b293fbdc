package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// Open connects to the embedded store at path, applying pending schema
// migrations. WAL keeps concurrent readers unblocked while the refresh
// cycle writes; the busy timeout covers the brief write locks that
// remain.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := otelsqlx.Connect("sqlite3", buildDSN(path),
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
		otelsql.WithDBName("match-tracker"),
		otelsql.WithQueryFormatter(formatQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	// a single writer by construction; extra pooled connections only
	// invite SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store: %w", err)
	}

	return db, nil
}

func buildDSN(path string) string {
	values := url.Values{}
	values.Set("_journal_mode", "WAL")
	values.Set("_busy_timeout", "5000")
	values.Set("_foreign_keys", "on")
	return "file:" + path + "?" + values.Encode()
}

const maxTracedQueryLength = 512

var queryWhitespaceRegex = regexp.MustCompile(`\s+`)

func formatQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}
