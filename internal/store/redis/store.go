// Package redis is the optional Redis backend for the category list.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

// Store handles Redis operations for categories.
type Store struct {
	client   redis.UniversalClient
	keys     Keys
	defaults []string
	log      logger.Logger

	seedMu sync.Mutex
	seeded bool
}

var _ domain.CategoryStore = (*Store)(nil)

// NewStore creates a new Redis category store.
func NewStore(client redis.UniversalClient, namespace string, defaults []string, log logger.Logger) *Store {
	if defaults == nil {
		defaults = domain.DefaultCategories
	}
	return &Store{
		client:   client,
		keys:     KeysFor(namespace),
		defaults: append([]string(nil), defaults...),
		log:      log.With(logger.Component("categories"), logger.String("backend", "redis")),
	}
}

// List returns all categories in insertion order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx)
}

// Add appends name when it is not stored yet and returns the full list.
func (s *Store) Add(ctx context.Context, name string) ([]string, error) {
	name = domain.NormalizeCategory(name)
	if err := domain.ValidateSegment("category", name); err != nil {
		return nil, err
	}
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}

	added, err := s.client.SAdd(ctx, s.keys.Set, name).Result()
	if err != nil {
		return nil, domain.IO("add category to set", err)
	}
	if added == 1 {
		if err := s.client.RPush(ctx, s.keys.List, name).Err(); err != nil {
			// Keep set and list consistent so the name can be retried.
			_ = s.client.SRem(ctx, s.keys.Set, name).Err()
			return nil, domain.IO("append category", err)
		}
		s.log.Info("category added", logger.String("category", name))
	}

	return s.list(ctx)
}

func (s *Store) list(ctx context.Context) ([]string, error) {
	list, err := s.client.LRange(ctx, s.keys.List, 0, -1).Result()
	if err != nil {
		return nil, domain.IO("list categories", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// ensureSeeded writes the defaults the first time any process talks to
// this database. The seeded marker is claimed with SETNX so concurrent
// instances seed at most once.
func (s *Store) ensureSeeded(ctx context.Context) error {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()

	if s.seeded {
		return nil
	}

	claimed, err := s.client.SetNX(ctx, s.keys.Seeded, "1", 0).Result()
	if err != nil {
		return domain.IO("check category seed marker", err)
	}
	if claimed {
		if err := s.seed(ctx); err != nil {
			_ = s.client.Del(ctx, s.keys.Seeded).Err()
			return err
		}
		s.log.Info("seeded categories", logger.Int("count", len(s.defaults)))
	}

	s.seeded = true
	return nil
}

func (s *Store) seed(ctx context.Context) error {
	for _, name := range s.defaults {
		name = domain.NormalizeCategory(name)
		if name == "" {
			continue
		}
		added, err := s.client.SAdd(ctx, s.keys.Set, name).Result()
		if err != nil {
			return domain.IO("seed categories", fmt.Errorf("%s: %w", name, err))
		}
		if added == 0 {
			continue
		}
		if err := s.client.RPush(ctx, s.keys.List, name).Err(); err != nil {
			return domain.IO("seed categories", fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

// Ping reports whether the backend is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
