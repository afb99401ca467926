package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bunchhieng/coursetree/internal/model"
)

const (
	// KeyPrefixTree is the prefix for tree content keys.
	KeyPrefixTree = "coursetree:tree:"
	// KeyTreesByUpdate is a sorted set of tree IDs scored by last update time.
	KeyTreesByUpdate = "coursetree:trees:updated"
	// KeyPrefixCreated holds the creation timestamp of each tree.
	KeyPrefixCreated = "coursetree:created:"
)

// TreeKey returns the Redis key holding a tree's content.
func TreeKey(id string) string {
	return KeyPrefixTree + id
}

// RedisOptions configures a Redis-backed store.
type RedisOptions struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
	PingTimeout time.Duration
}

// RedisStorage implements Storage on top of Redis string keys.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage connects to Redis and verifies the connection with a ping.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Username:    opts.Username,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}

	return NewRedisStorageFromClient(client), nil
}

// NewRedisStorageFromClient wraps an existing client.
func NewRedisStorageFromClient(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client}
}

// Create stores content under a fresh ID. SETNX guards against the
// negligible chance of an ID collision.
func (s *RedisStorage) Create(ctx context.Context, content []byte) (string, error) {
	id := model.GenerateShortID()
	ok, err := s.client.SetNX(ctx, TreeKey(id), content, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to save tree: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("failed to save tree: id %s already taken", id)
	}

	now := time.Now()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeyPrefixCreated+id, now.Unix(), 0)
	pipe.ZAdd(ctx, KeyTreesByUpdate, redis.Z{Score: float64(now.UnixNano()), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to index tree: %w", err)
	}
	return id, nil
}

// Read fetches a tree's content.
func (s *RedisStorage) Read(ctx context.Context, id string) ([]byte, error) {
	if !model.ValidateTreeID(id) {
		return nil, model.ErrInvalidID
	}
	data, err := s.client.Get(ctx, TreeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	return data, nil
}

// Update overwrites a tree's content. SET XX refuses to create a missing key.
func (s *RedisStorage) Update(ctx context.Context, id string, content []byte) error {
	if !model.ValidateTreeID(id) {
		return model.ErrInvalidID
	}
	ok, err := s.client.SetXX(ctx, TreeKey(id), content, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update tree: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	if err := s.client.ZAdd(ctx, KeyTreesByUpdate, redis.Z{Score: float64(time.Now().UnixNano()), Member: id}).Err(); err != nil {
		return fmt.Errorf("failed to index tree: %w", err)
	}
	return nil
}

// List returns tree summaries from the update index, newest first.
func (s *RedisStorage) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	stop := int64(-1)
	if opts.Limit > 0 {
		stop = int64(opts.Limit - 1)
	}
	entries, err := s.client.ZRevRangeWithScores(ctx, KeyTreesByUpdate, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list trees: %w", err)
	}

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		id, ok := e.Member.(string)
		if !ok {
			continue
		}
		sum := Summary{ID: id, UpdatedAt: time.Unix(0, int64(e.Score))}
		if created, err := s.client.Get(ctx, KeyPrefixCreated+id).Int64(); err == nil {
			sum.CreatedAt = time.Unix(created, 0)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Close closes the Redis client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
