// Package docstore gives access to the document store holding one profile document per client.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nameless-analytics/nameless-tools/internal/constants"
)

// ErrUnknownBackend is returned when the configured backend is not supported.
var ErrUnknownBackend = errors.New("unknown document store backend")

// Config holds the document store configuration.
type Config struct {
	// Backend is either firestore (default) or redis.
	Backend string

	// Project and Database locate the Firestore database.
	Project  string
	Database string
	// Collection holds the client documents.
	Collection string
	// Credentials is the path to a service account JSON key. Application default credentials are used when empty.
	Credentials string

	Redis RedisConfig
}

// RedisConfig holds the configuration for connecting to Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Store is a document store connection.
type Store interface {
	// Exists reports whether the document of id is stored.
	Exists(ctx context.Context, id string) (bool, error)
	// Delete removes the document of id.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open connects to the configured document store backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = constants.DefaultCollection
	}

	slog.Debug("Opening document store", "backend", cfg.Backend, "collection", cfg.Collection)
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", constants.FirestoreBackend:
		s, err = openFirestore(ctx, cfg)
	case constants.RedisBackend:
		s, err = openRedis(ctx, cfg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
