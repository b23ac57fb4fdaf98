// Package warehouse gives access to the tabular store holding raw events and their page data.
//
// Two backends are available: BigQuery, the production warehouse, and PostgreSQL.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
	"github.com/nameless-analytics/nameless-tools/internal/page"
)

var (
	// ErrPageNotFound is returned when no stored row matches the page id.
	ErrPageNotFound = errors.New("page id not found")
	// ErrUnknownBackend is returned when the configured backend is not supported.
	ErrUnknownBackend = errors.New("unknown warehouse backend")
)

// UnknownRows is returned by DeleteClient when the backend does not report the number of deleted rows.
const UnknownRows = -1

// Config holds the warehouse configuration.
type Config struct {
	// Backend is either bigquery (default) or postgres.
	Backend string

	// Project, Dataset and Table locate the BigQuery table. Table is also the PostgreSQL table.
	Project string
	Dataset string
	Table   string
	// Credentials is the path to a service account JSON key. Application default credentials are used when empty.
	Credentials string

	Postgres PostgresConfig
}

// Store is a warehouse connection.
type Store interface {
	// LookupPage returns the page record stored for pageID, or ErrPageNotFound.
	LookupPage(ctx context.Context, pageID string) (page.Record, error)
	// DeleteClient deletes every row of clientID and returns how many were deleted.
	DeleteClient(ctx context.Context, clientID string) (int64, error)
	Close() error
}

type options struct {
	newPool func(ctx context.Context, dsn string) (dbPool, error)
}

// Options represents an optional function to override Open default values.
type Options func(*options)

// Open connects to the configured warehouse backend.
func Open(ctx context.Context, cfg Config, args ...Options) (Store, error) {
	opts := options{
		newPool: newPgxPool,
	}
	for _, opt := range args {
		opt(&opts)
	}

	if cfg.Table == "" {
		cfg.Table = constants.DefaultTable
	}

	slog.Debug("Opening warehouse", "backend", cfg.Backend, "table", cfg.Table)
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", constants.BigQueryBackend:
		s, err = openBigQuery(ctx, cfg)
	case constants.PostgresBackend:
		s, err = openPostgres(ctx, cfg, opts.newPool)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
