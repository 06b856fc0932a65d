package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/clipsort/internal/config"
	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/redis"
	filestore "github.com/MrSnakeDoc/clipsort/internal/store/file"
	redisstore "github.com/MrSnakeDoc/clipsort/internal/store/redis"
)

// Backend is an opened category store with its lifecycle hooks.
type Backend struct {
	Name  string
	Store domain.CategoryStore
	// Ping reports backend reachability; nil when there is nothing to ping.
	Ping  func(ctx context.Context) error
	close func() error
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend opens the category store selected by cfg.CategoryBackend.
// The redis backend blocks until the server answers or the connect
// timeout expires.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	switch cfg.CategoryBackend {
	case config.BackendRedis:
		opts := redis.DefaultConnectOptions(cfg.RedisAddr)
		opts.User = cfg.RedisUser
		opts.Password = cfg.RedisPassword
		opts.DB = cfg.RedisDB
		opts.ConnectTimeout = cfg.RedisConnectTimeout
		opts.RetryInterval = cfg.RedisRetryInterval

		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, opts, log)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := redisstore.NewStore(client, cfg.RedisNamespace, cfg.DefaultCategories, log)
		return &Backend{
			Name:  config.BackendRedis,
			Store: store,
			Ping:  store.Ping,
			close: closeRedis(client, log),
		}, nil

	case config.BackendFile:
		return &Backend{
			Name:  config.BackendFile,
			Store: filestore.New(cfg.CategoriesFile, cfg.DefaultCategories, log),
		}, nil
	}
	return nil, fmt.Errorf("unknown category backend %q", cfg.CategoryBackend)
}

func closeRedis(client *goredis.Client, log logger.Logger) func() error {
	return func() error {
		if err := client.Close(); err != nil {
			return err
		}
		log.Info("Redis closed cleanly")
		return nil
	}
}
