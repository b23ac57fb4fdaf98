package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nameless-analytics/nameless-tools/internal/page"
	"github.com/ubuntu/decorate"
)

// PostgresConfig holds the configuration for connecting to the PostgreSQL database.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

func newPgxPool(ctx context.Context, dsn string) (dbPool, error) {
	return pgxpool.New(ctx, dsn)
}

// postgresStore is a Store backed by a PostgreSQL table.
type postgresStore struct {
	dbpool dbPool
	table  string
}

// openPostgres creates a connection pool and validates it with a ping. The connection is not maintained.
func openPostgres(ctx context.Context, cfg Config, newPool func(context.Context, string) (dbPool, error)) (*postgresStore, error) {
	dbpool, err := newPool(ctx, cfg.Postgres.URI("postgres"))
	if err != nil {
		return nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}

	slog.Debug("Testing database connection", "host", cfg.Postgres.Host, "port", cfg.Postgres.Port)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}

	slog.Info("Successfully pinged PostgreSQL database", "host", cfg.Postgres.Host, "port", cfg.Postgres.Port)
	return &postgresStore{
		dbpool: dbpool,
		table:  pgx.Identifier(strings.Split(cfg.Table, ".")).Sanitize(),
	}, nil
}

// storedValue is the JSON form of a page attribute value in the page_data column.
type storedValue struct {
	String *string  `json:"string"`
	Int    *int64   `json:"int"`
	Float  *float64 `json:"float"`
	JSON   any      `json:"json"`
	Bool   *bool    `json:"bool"`
}

type storedAttribute struct {
	Name  string       `json:"name"`
	Value *storedValue `json:"value"`
}

// LookupPage returns the first row stored for pageID.
func (db *postgresStore) LookupPage(ctx context.Context, pageID string) (r page.Record, err error) {
	defer decorate.OnError(&err, "PostgreSQL page lookup failed")

	if db.dbpool == nil {
		return page.Record{}, fmt.Errorf("database not initialized")
	}

	var (
		date pgtype.Date
		data []byte
	)
	query := fmt.Sprintf(`SELECT page_date, page_data FROM %s WHERE page_id = $1 LIMIT 1`, db.table)
	if err := db.dbpool.QueryRow(ctx, query, pageID).Scan(&date, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return page.Record{}, ErrPageNotFound
		}
		return page.Record{}, err
	}

	r = page.Record{ID: pageID}
	if date.Valid {
		r.Date = civil.DateOf(date.Time)
	}

	if len(data) == 0 {
		return r, nil
	}
	var stored []storedAttribute
	if err := json.Unmarshal(data, &stored); err != nil {
		return page.Record{}, fmt.Errorf("invalid page_data column: %v", err)
	}

	r.Attributes = make([]page.Attribute, 0, len(stored))
	for _, a := range stored {
		attr := page.Attribute{Name: a.Name}
		if a.Value != nil {
			attr.Value = page.Union{
				String: a.Value.String,
				Int:    a.Value.Int,
				Float:  a.Value.Float,
				JSON:   a.Value.JSON,
				Bool:   a.Value.Bool,
			}.Resolve()
		}
		r.Attributes = append(r.Attributes, attr)
	}
	return r, nil
}

// DeleteClient deletes the rows of clientID.
func (db *postgresStore) DeleteClient(ctx context.Context, clientID string) (n int64, err error) {
	defer decorate.OnError(&err, "PostgreSQL delete failed")

	if db.dbpool == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tag, err := db.dbpool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE client_id = $1`, db.table), clientID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, fmt.Errorf("delete canceled: %v", err)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Close releases the connection pool. Closing an already closed store is a no-op.
func (db *postgresStore) Close() error {
	if db.dbpool == nil {
		return nil
	}

	closed := make(chan struct{})
	go func() {
		db.dbpool.Close()
		close(closed)
	}()

	timer := time.NewTimer(10 * time.Second)
	defer timer.Stop()
	select {
	case <-closed:
		db.dbpool = nil
		return nil
	case <-timer.C:
		return errors.New("postgres pool did not close in time, connections may still be open")
	}
}

// URI returns the connection URI of the configuration, credentials included. Values are not validated.
func (c PostgresConfig) URI(scheme string) string {
	u := url.URL{Scheme: scheme, Host: c.Host, Path: c.DBName, User: url.User(c.User)}
	if c.Port != 0 {
		u.Host = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}
