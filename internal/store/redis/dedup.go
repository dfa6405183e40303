// Package redis persists the gate's dedup fingerprints so a restart does
// not re-alert every signal still visible in the candle window.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	dedupKey = "signalbot:dedup"
	// Fingerprints older than a weekend gap are stale anyway.
	dedupTTL = 72 * time.Hour
)

// Config configures the Redis dedup store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// DedupStore saves and loads the gate's fingerprint state in a Redis hash.
type DedupStore struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (s *DedupStore) Client() *goredis.Client { return s.client }

// New creates a DedupStore and pings the server.
func New(cfg Config) (*DedupStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &DedupStore{client: client}, nil
}

// Save replaces the stored fingerprint state with the given snapshot.
func (s *DedupStore) Save(ctx context.Context, state map[string]string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, dedupKey)
	if len(state) > 0 {
		fields := make(map[string]interface{}, len(state))
		for k, v := range state {
			fields[k] = v
		}
		pipe.HSet(ctx, dedupKey, fields)
		pipe.Expire(ctx, dedupKey, dedupTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save dedup: %w", err)
	}
	return nil
}

// Load returns the stored fingerprint state. A missing key yields an empty
// map, not an error.
func (s *DedupStore) Load(ctx context.Context) (map[string]string, error) {
	state, err := s.client.HGetAll(ctx, dedupKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load dedup: %w", err)
	}
	return state, nil
}

// Close closes the client.
func (s *DedupStore) Close() error {
	return s.client.Close()
}
