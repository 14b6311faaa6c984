package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kcscroggins/water-institute-chatbot/internal/config"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the Redis client as a process-wide
// singleton. The connection is established once for the application lifetime.
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		ctx := context.Background()
		if err := rdb.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("cannot connect to Redis at %s: %w", cfg.Address, err)
			return
		}
		client = rdb
	})

	return client, initErr
}

// Close safely shuts down the singleton Redis connection.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// IngestLock is a single-flight lock guarding the ingestion pipeline. Two
// concurrent ingestion runs against the same collection would interleave
// deletes and upserts, so only the holder of the lock may write.
type IngestLock struct {
	client *redis.Client
	key    string
	token  string
}

// NewIngestLock creates a lock scoped to the given collection.
func NewIngestLock(rdb *redis.Client, collection, token string) *IngestLock {
	return &IngestLock{
		client: rdb,
		key:    "ingest_lock:" + collection,
		token:  token,
	}
}

// Acquire takes the lock, failing immediately when another run holds it.
// The TTL bounds how long a crashed run can keep the collection locked.
func (l *IngestLock) Acquire(ctx context.Context, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquiring ingest lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another ingestion run is already in flight for this collection")
	}
	return nil
}

// Release frees the lock if this run still owns it.
func (l *IngestLock) Release(ctx context.Context) error {
	val, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val != l.token {
		// Expired and re-acquired by someone else; not ours to delete.
		return nil
	}
	return l.client.Del(ctx, l.key).Err()
}
