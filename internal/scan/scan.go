// Package scan enumerates video files below a directory.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/fsx"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

// DefaultExtensions is the canonical allow-list of video extensions.
var DefaultExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".wmv", ".flv", ".m4v"}

// DefaultExclude skips hidden files and directories (e.g. macOS "._clip.mp4").
var DefaultExclude = []string{".*"}

// Options configures a Scanner.
type Options struct {
	Extensions []string // lowercased with leading dot; empty = DefaultExtensions
	Exclude    []string // glob patterns matched against base names
}

// Scanner lists video files. It is safe for concurrent use.
type Scanner struct {
	exts    map[string]struct{}
	exclude []glob.Glob
	log     logger.Logger
}

// New compiles the exclude patterns and returns a Scanner.
func New(opts Options, log logger.Logger) (*Scanner, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	s := &Scanner{
		exts: make(map[string]struct{}, len(exts)),
		log:  log.With(logger.Component("scanner")),
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.exts[ext] = struct{}{}
	}

	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		s.exclude = append(s.exclude, g)
	}

	return s, nil
}

// Extensions returns the allow-list in sorted order.
func (s *Scanner) Extensions() []string {
	out := make([]string, 0, len(s.exts))
	for ext := range s.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Accepts reports whether name has an allowed extension and is not excluded.
func (s *Scanner) Accepts(name string) bool {
	base := filepath.Base(name)
	if s.excluded(base) {
		return false
	}
	_, ok := s.exts[strings.ToLower(filepath.Ext(base))]
	return ok
}

func (s *Scanner) excluded(base string) bool {
	for _, g := range s.exclude {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// Scan lists the videos in root, descending into subdirectories when
// recursive is set. A missing root is a not-found error; per-file failures
// are logged and skipped. An empty result is not an error.
func (s *Scanner) Scan(ctx context.Context, root string, recursive bool) ([]domain.VideoEntry, error) {
	if strings.TrimSpace(root) == "" {
		return nil, domain.Validation("directory is required")
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NotFound(fmt.Sprintf("directory %s does not exist", root), err)
		}
		return nil, domain.IO("failed to access directory", err)
	}
	if !info.IsDir() {
		return nil, domain.Validation("%s is not a directory", root)
	}

	entries := make([]domain.VideoEntry, 0, 64)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}
			s.log.Warn("skipping unreadable entry",
				logger.String("path", path),
				logger.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		if d.IsDir() {
			if !recursive || s.excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if !s.Accepts(d.Name()) {
			return nil
		}

		entry, err := s.Entry(path)
		if err != nil {
			s.log.Warn("skipping file",
				logger.String("path", path),
				logger.Error(err))
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, domain.IO("failed to scan directory", walkErr)
	}

	s.log.Debug("scan finished",
		logger.String("root", root),
		logger.Bool("recursive", recursive),
		logger.Int("videos", len(entries)))

	return entries, nil
}

// Entry stats a single file and builds its VideoEntry. Symlinks are
// followed; anything that is not a regular file is rejected.
func (s *Scanner) Entry(path string) (domain.VideoEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.VideoEntry{}, err
	}
	if !info.Mode().IsRegular() {
		return domain.VideoEntry{}, fmt.Errorf("%s is not a regular file", path)
	}

	name := info.Name()
	entry := domain.VideoEntry{
		ID:       uuid.NewString(),
		Path:     path,
		Name:     name,
		BaseName: strings.TrimSuffix(name, filepath.Ext(name)),
		Size:     info.Size(),
	}
	if created, ok := fsx.BirthTime(path, info); ok {
		entry.CreatedAt = &created
	}
	return entry, nil
}
