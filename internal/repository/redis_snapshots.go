package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "latest_snapshot:"

// RedisSnapshotStore keeps the most recent MarketSnapshot per symbol.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures the snapshot store connection.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	ReadTimeout time.Duration
	TTL         time.Duration
}

// NewRedisSnapshotStore connects to Redis and verifies it with a ping.
func NewRedisSnapshotStore(opts RedisOptions) (*RedisSnapshotStore, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.DialTimeout,
		ReadTimeout: opts.ReadTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSnapshotStore{client: client, ttl: opts.TTL}, nil
}

// NewRedisSnapshotStoreWithClient wraps an existing client, used by the
// redis bus to share one connection pool.
func NewRedisSnapshotStoreWithClient(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func snapshotKey(symbol string) string {
	return snapshotKeyPrefix + symbol
}

// Save overwrites the latest snapshot for the snapshot's symbol.
func (s *RedisSnapshotStore) Save(ctx context.Context, snapshot *models.MarketSnapshot) error {
	if snapshot == nil || snapshot.Symbol == "" {
		return fmt.Errorf("snapshot with symbol is required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, snapshotKey(snapshot.Symbol), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snapshot.Symbol, err)
	}
	return nil
}

// FindLatest returns the latest snapshot, or (nil, nil) when none exists.
func (s *RedisSnapshotStore) FindLatest(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot %s: %w", symbol, err)
	}

	var snap models.MarketSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", symbol, err)
	}
	return &snap, nil
}

// FindLatestAsync performs the read on a goroutine and delivers the
// result on a buffered channel, so callers in send loops never block.
func (s *RedisSnapshotStore) FindLatestAsync(ctx context.Context, symbol string) <-chan drepo.SnapshotResult {
	out := make(chan drepo.SnapshotResult, 1)
	go func() {
		snap, err := s.FindLatest(ctx, symbol)
		out <- drepo.SnapshotResult{Snapshot: snap, Err: err}
		close(out)
	}()
	return out
}

// Delete removes the stored snapshot for a symbol.
func (s *RedisSnapshotStore) Delete(ctx context.Context, symbol string) error {
	return s.client.Unlink(ctx, snapshotKey(symbol)).Err()
}

// Health pings the backing Redis.
func (s *RedisSnapshotStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
