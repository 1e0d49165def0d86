package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/filmorate/backend/internal/models"
)

const (
	popularGenerationKey = "filmorate:popular:gen"
	popularKeyPrefix     = "filmorate:popular"
)

// RedisOptions configures the Redis connection used by RedisPopular.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	slog.Info("connected to redis", "addr", opts.Addr)
	return client, nil
}

// RedisPopular caches popular-film lists in Redis. Entries are namespaced by a
// generation counter; invalidation bumps the counter so every older entry is
// orphaned and left to expire.
type RedisPopular struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPopular wraps client as a popular-film cache with the given TTL.
func NewRedisPopular(client *redis.Client, ttl time.Duration) *RedisPopular {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisPopular{client: client, ttl: ttl}
}

func popularKey(generation int64, count int) string {
	return fmt.Sprintf("%s:%d:%d", popularKeyPrefix, generation, count)
}

// Generation reports the current cache generation. Lists are stored under
// their generation, so bumping it orphans everything cached before.
func (c *RedisPopular) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, popularGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the list cached for count under generation, if any.
func (c *RedisPopular) Get(ctx context.Context, generation int64, count int) ([]models.Film, bool, error) {
	payload, err := c.client.Get(ctx, popularKey(generation, count)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read popular films: %w", err)
	}

	var films []models.Film
	if err := json.Unmarshal(payload, &films); err != nil {
		return nil, false, fmt.Errorf("decode popular films: %w", err)
	}
	return films, true, nil
}

// Set stores the list for count under generation. A list computed before an
// invalidation lands under an orphaned key and expires with the TTL.
func (c *RedisPopular) Set(ctx context.Context, generation int64, count int, films []models.Film) error {
	payload, err := json.Marshal(films)
	if err != nil {
		return fmt.Errorf("encode popular films: %w", err)
	}
	if err := c.client.Set(ctx, popularKey(generation, count), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("write popular films: %w", err)
	}
	return nil
}

// Invalidate orphans every cached list.
func (c *RedisPopular) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, popularGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}
