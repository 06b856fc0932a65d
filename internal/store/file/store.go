// Package file keeps the category list in a JSON array on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/fsx"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

const lockRetryDelay = 25 * time.Millisecond

// Store is a domain.CategoryStore backed by a JSON file.
//
// Every call re-reads the file so edits made by another process are
// picked up. Read-modify-write cycles hold an advisory lock on
// "<path>.lock".
type Store struct {
	path     string
	defaults []string
	lock     *flock.Flock
	log      logger.Logger

	mu sync.Mutex
}

var _ domain.CategoryStore = (*Store)(nil)

// New returns a Store for path. defaults seed the file when it does not
// exist yet; nil means domain.DefaultCategories.
func New(path string, defaults []string, log logger.Logger) *Store {
	if defaults == nil {
		defaults = domain.DefaultCategories
	}
	return &Store{
		path:     path,
		defaults: append([]string(nil), defaults...),
		lock:     flock.New(path + ".lock"),
		log:      log.With(logger.Component("categories"), logger.String("file", path)),
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// List returns the categories in insertion order, seeding the file on
// first use.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var out []string
	err := s.locked(ctx, func() error {
		list, err := s.loadOrSeed()
		out = list
		return err
	})
	return out, err
}

// Add appends name unless it is already present and returns the
// resulting list.
func (s *Store) Add(ctx context.Context, name string) ([]string, error) {
	name = domain.NormalizeCategory(name)
	if err := domain.ValidateSegment("category", name); err != nil {
		return nil, err
	}

	var out []string
	err := s.locked(ctx, func() error {
		list, err := s.loadOrSeed()
		if err != nil {
			return err
		}
		if domain.ContainsCategory(list, name) {
			out = list
			return nil
		}

		list = append(list, name)
		if err := s.save(list); err != nil {
			return err
		}
		s.log.Info("category added", logger.String("category", name))
		out = list
		return nil
	})
	return out, err
}

func (s *Store) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.IO("create categories directory", err)
	}

	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.IO("lock categories file", err)
	}
	if !ok {
		return domain.IO("lock categories file", errors.New("lock not acquired"))
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn("failed to release categories lock", logger.Error(err))
		}
	}()

	return fn()
}

func (s *Store) loadOrSeed() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		list := dedupe(s.defaults)
		if err := s.save(list); err != nil {
			return nil, err
		}
		s.log.Info("seeded categories", logger.Int("count", len(list)))
		return list, nil
	}
	if err != nil {
		return nil, domain.IO("read categories file", err)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, domain.IO("parse categories file", fmt.Errorf("%s: %w", s.path, err))
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *Store) save(list []string) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return domain.IO("encode categories", err)
	}
	data = append(data, '\n')

	if err := fsx.WriteFileAtomic(filepath.Dir(s.path), filepath.Base(s.path), data, 0o644); err != nil {
		return domain.IO("write categories file", err)
	}
	return nil
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = domain.NormalizeCategory(c)
		if c == "" || domain.ContainsCategory(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
