package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ubuntu/decorate"
)

// redisStore is a Store keeping each document under a "<collection>:<id>" key.
type redisStore struct {
	client     *redis.Client
	collection string
}

func openRedis(ctx context.Context, cfg Config) (s *redisStore, err error) {
	defer decorate.OnError(&err, "could not open Redis document store")

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %v", err)
	}

	slog.Info("Successfully pinged Redis", "addr", cfg.Redis.Addr)
	return &redisStore{client: client, collection: cfg.Collection}, nil
}

func (s *redisStore) key(id string) string {
	return s.collection + ":" + id
}

// Exists reports whether the document of id is stored.
func (s *redisStore) Exists(ctx context.Context, id string) (exists bool, err error) {
	defer decorate.OnError(&err, "Redis lookup failed")

	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the document of id.
func (s *redisStore) Delete(ctx context.Context, id string) (err error) {
	defer decorate.OnError(&err, "Redis delete failed")

	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
