package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/filmorate/backend/internal/cache"
	"github.com/filmorate/backend/internal/config"
	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/handlers"
	"github.com/filmorate/backend/internal/middleware"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/users"
)

var (
	_ films.PopularCache = (*cache.RedisPopular)(nil)
	_ films.PopularCache = (*cache.MemoryPopular)(nil)
	_ handlers.Pinger    = (db.Pool)(nil)

	_ users.PopularInvalidator = (films.PopularCache)(nil)
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool is only consulted for postgres storage. The returned cleanup releases
// anything opened here and is always safe to call.
func buildDependencies(ctx context.Context, cfg config.Config, pool db.Pool, logger *slog.Logger) (handlers.Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	deps := handlers.Dependencies{
		Limiter: middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 0),
		Logger:  logger,
	}

	var (
		userRepo   repositories.UserRepository
		friendRepo repositories.FriendRepository
		filmRepos  films.Repositories
	)

	switch cfg.Storage {
	case config.StorageMemory:
		store := repositories.NewMemoryStore()
		userRepo = store.Users()
		friendRepo = store.Friends()
		filmRepos = films.Repositories{
			Films:  store.Films(),
			Likes:  store.Likes(),
			Genres: store.Genres(),
			MPA:    store.MPA(),
			Users:  userRepo,
		}
	case config.StoragePostgres:
		if pool == nil {
			return handlers.Dependencies{}, func() {}, errors.New("postgres storage requires a database pool")
		}
		userRepo = repositories.NewPostgresUserRepository(pool)
		friendRepo = repositories.NewPostgresFriendRepository(pool)
		filmRepos = films.Repositories{
			Films:  repositories.NewPostgresFilmRepository(pool),
			Likes:  repositories.NewPostgresLikeRepository(pool),
			Genres: repositories.NewPostgresGenreRepository(pool),
			MPA:    repositories.NewPostgresMPARepository(pool),
			Users:  userRepo,
		}
		deps.Store = pool
	default:
		return handlers.Dependencies{}, func() {}, errors.New("unsupported storage " + cfg.Storage)
	}

	popular, cleanup := buildPopularCache(ctx, cfg, logger)

	deps.Users = users.NewService(userRepo, friendRepo, popular)
	deps.Films = films.NewService(filmRepos, popular)
	return deps, cleanup, nil
}

// buildPopularCache prefers Redis when an address is configured and falls back
// to an in-process cache when it cannot be reached.
func buildPopularCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (films.PopularCache, func()) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemoryPopular(cfg.PopularCacheTTL), func() {}
	}

	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("redis unavailable, using in-memory popular cache", "addr", cfg.Redis.Addr, "error", err)
		return cache.NewMemoryPopular(cfg.PopularCacheTTL), func() {}
	}

	logger.Info("popular cache backed by redis", "addr", cfg.Redis.Addr)
	return cache.NewRedisPopular(client, cfg.PopularCacheTTL), closeRedis(client, logger)
}

func closeRedis(client *redis.Client, logger *slog.Logger) func() {
	return func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis client", "error", err)
		}
	}
}
