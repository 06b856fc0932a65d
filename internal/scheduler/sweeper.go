package scheduler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

// DefaultSweepInterval is how often listed files are checked for existence.
const DefaultSweepInterval = 30 * time.Second

// Tracker is the list the sweeper keeps honest.
type Tracker interface {
	Paths() []string
	Forget(path string) bool
}

// StaleSweeper drops listed videos whose file disappeared without the
// watcher noticing (network shares, watcher disabled, rename across
// directories).
type StaleSweeper struct {
	tracker       Tracker
	logger        logger.Logger
	interval      time.Duration
	stat          func(string) (os.FileInfo, error)
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
}

// NewStaleSweeper creates a sweeper. manualTrigger may be nil; sends on it
// run a sweep out of schedule.
func NewStaleSweeper(
	tracker Tracker,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *StaleSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &StaleSweeper{
		tracker:       tracker,
		logger:        log.With(logger.Component("sweeper")),
		interval:      interval,
		stat:          os.Stat,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the periodic sweep until Stop is called or ctx is done.
func (s *StaleSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.manualTrigger:
				s.logger.Info("manual sweep triggered")
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper.
func (s *StaleSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Sweep forgets every listed file that no longer exists and returns how
// many entries were dropped.
func (s *StaleSweeper) Sweep(ctx context.Context) int {
	removed := 0
	for _, path := range s.tracker.Paths() {
		if ctx.Err() != nil {
			break
		}

		_, err := s.stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			// Unreachable share or permission change; keep the entry.
			s.logger.Debug("cannot stat listed video",
				logger.String("path", path),
				logger.Error(err))
			continue
		}

		if s.tracker.Forget(path) {
			removed++
			s.logger.Info("dropped vanished video", logger.String("path", path))
		}
	}

	if removed > 0 {
		s.logger.Info("sweep completed", logger.Int("removed", removed))
	} else {
		s.logger.Debug("nothing to sweep")
	}
	return removed
}
