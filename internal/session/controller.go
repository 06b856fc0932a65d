// Package session owns the state of one triage session: the source and
// target directories, the list of pending videos, the current selection
// and the transient messages shown by the UI.
//
// All mutations go through Controller. Long operations (scan, organize)
// run outside the lock and are guarded by a pending flag, so only one of
// them is in flight at a time.
package session

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/index"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
)

// EmptyMessage is reported when a scan finds nothing to triage.
const EmptyMessage = "No video files found in the selected directory"

// DefaultNotificationTTL is how long a success message stays visible.
const DefaultNotificationTTL = 3 * time.Second

// TimeNow is the controller's clock; tests replace it.
var TimeNow = time.Now

// Scanner lists the videos of a directory.
type Scanner interface {
	Scan(ctx context.Context, root string, recursive bool) ([]domain.VideoEntry, error)
}

// Organizer moves one video into its category folder.
type Organizer interface {
	Organize(ctx context.Context, req domain.OrganizeRequest) (string, error)
}

// Watcher follows the source directory for external changes.
type Watcher interface {
	Watch(dir string, recursive bool) error
	Unwatch()
}

// Options tune a Controller.
type Options struct {
	Recursive       bool
	NotificationTTL time.Duration
	// MediaURL maps a file path to the URL the UI plays; defaults to
	// stream.URLFor.
	MediaURL func(path string) string
}

// Controller is the single owner of session state.
type Controller struct {
	scanner    Scanner
	organizer  Organizer
	categories domain.CategoryStore
	log        logger.Logger
	ttl        time.Duration
	mediaURL   func(string) string

	mu           sync.Mutex
	watcher      Watcher
	state        State
	sourceDir    string
	targetDir    string
	recursive    bool
	videos       *index.VideoList
	current      int
	fileName     string
	category     string
	categoryList []string
	pending      bool
	lastErr      *ErrorInfo
	note         *Notification
	placed       map[string]struct{} // destinations organized this session
}

// New creates an idle Controller.
func New(scanner Scanner, organizer Organizer, categories domain.CategoryStore, opts Options, log logger.Logger) *Controller {
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = DefaultNotificationTTL
	}
	if opts.MediaURL == nil {
		opts.MediaURL = stream.URLFor
	}
	return &Controller{
		scanner:    scanner,
		organizer:  organizer,
		categories: categories,
		log:        log.With(logger.Component("session")),
		ttl:        opts.NotificationTTL,
		mediaURL:   opts.MediaURL,
		state:      StateIdle,
		recursive:  opts.Recursive,
		videos:     index.NewVideoList(),
		placed:     make(map[string]struct{}),
	}
}

// SetWatcher attaches w; the watcher usually needs the controller itself,
// hence the separate setter.
func (c *Controller) SetWatcher(w Watcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watcher = w
}

// Snapshot returns the current state. Expired notifications are dropped.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LoadCategories refreshes the cached category list from the store.
func (c *Controller) LoadCategories(ctx context.Context) ([]string, error) {
	list, err := c.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.categoryList = list
	c.mu.Unlock()
	return append([]string(nil), list...), nil
}

// SetSource scans dir and makes its videos the working list. An empty
// directory puts the session in the error state with EmptyMessage and
// returns a KindEmpty error.
func (c *Controller) SetSource(ctx context.Context, dir string) (Snapshot, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return c.Snapshot(), domain.Validation("source directory is required")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return c.Snapshot(), busy()
	}
	c.pending = true
	c.state = StateScanning
	c.sourceDir = dir
	c.lastErr = nil
	c.videos.Clear()
	c.current = 0
	c.fileName = ""
	clear(c.placed)
	recursive := c.recursive
	watcher := c.watcher
	c.mu.Unlock()

	scanned, err := c.scanner.Scan(ctx, dir, recursive)

	c.mu.Lock()
	c.pending = false
	entries := make([]domain.VideoEntry, 0, len(scanned))
	for _, e := range scanned {
		if !c.organizedLocked(e.Path) {
			entries = append(entries, e)
		}
	}
	if err == nil && len(entries) == 0 {
		err = domain.Empty(EmptyMessage)
	}
	if err != nil {
		c.state = StateError
		c.sourceDir = ""
		c.lastErr = errorInfo(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		if watcher != nil {
			watcher.Unwatch()
		}
		c.log.Info("source scan failed",
			logger.String("dir", dir),
			logger.String("kind", string(domain.KindOf(err))),
			logger.Error(err))
		return snap, err
	}

	c.videos.Replace(entries)
	c.state = StateReady
	c.resetSelectionLocked(0)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("source loaded",
		logger.String("dir", dir),
		logger.Bool("recursive", recursive),
		logger.Int("videos", len(entries)))

	if watcher != nil {
		if err := watcher.Watch(dir, recursive); err != nil {
			c.log.Warn("cannot watch source directory",
				logger.String("dir", dir),
				logger.Error(err))
		}
	}
	return snap, nil
}

// SetTarget sets the directory categories are created under.
func (c *Controller) SetTarget(dir string) (Snapshot, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return c.Snapshot(), domain.Validation("target directory is required")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return c.Snapshot(), domain.NotFound("target directory "+dir+" does not exist", err)
	case err != nil:
		return c.Snapshot(), domain.IO("failed to access target directory", err)
	case !info.IsDir():
		return c.Snapshot(), domain.Validation("%s is not a directory", dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return c.snapshotLocked(), busy()
	}
	c.targetDir = dir
	return c.snapshotLocked(), nil
}

// SetRecursive changes whether the next scan descends into subdirectories.
func (c *Controller) SetRecursive(recursive bool) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recursive = recursive
	return c.snapshotLocked()
}

// Select makes the i-th video current and resets the file name.
func (c *Controller) Select(i int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return c.snapshotLocked(), busy()
	}
	if i < 0 || i >= c.videos.Len() {
		return c.snapshotLocked(), domain.Validation("index %d out of range", i)
	}
	c.resetSelectionLocked(i)
	return c.snapshotLocked(), nil
}

// Next advances to the following video and clears the category. On the
// last video it does nothing.
func (c *Controller) Next() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return c.snapshotLocked(), busy()
	}
	if c.current < c.videos.Len()-1 {
		c.resetSelectionLocked(c.current + 1)
		c.category = ""
	}
	return c.snapshotLocked(), nil
}

// SetFileName sets the name (without extension) the current video is
// moved under.
func (c *Controller) SetFileName(name string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending {
		return c.snapshotLocked(), busy()
	}
	c.fileName = name
	return c.snapshotLocked(), nil
}

// SetCategory selects a known category; an empty name clears it.
func (c *Controller) SetCategory(ctx context.Context, name string) (Snapshot, error) {
	name = domain.NormalizeCategory(name)
	if name != "" && !c.knownCategory(name) {
		// Another process may have added it.
		if _, err := c.LoadCategories(ctx); err != nil {
			return c.Snapshot(), err
		}
		if !c.knownCategory(name) {
			return c.Snapshot(), domain.Validation("unknown category %q", name)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return c.snapshotLocked(), busy()
	}
	c.category = name
	return c.snapshotLocked(), nil
}

// AddCategory stores name and selects it.
func (c *Controller) AddCategory(ctx context.Context, name string) (Snapshot, error) {
	list, err := c.categories.Add(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = errorInfo(err)
		return c.snapshotLocked(), err
	}
	c.lastErr = nil
	c.categoryList = list
	c.category = domain.NormalizeCategory(name)
	return c.snapshotLocked(), nil
}

// Organize moves the current video to <target>/<category>/<fileName><ext>.
// On success the video leaves the list and a notification is raised.
func (c *Controller) Organize(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return c.Snapshot(), busy()
	}
	entry, ok := c.videos.At(c.current)
	var err error
	switch {
	case !ok:
		err = domain.Validation("no video selected")
	case c.category == "":
		err = domain.Validation("category is required")
	case strings.TrimSpace(c.fileName) == "":
		err = domain.Validation("new file name is required")
	case c.targetDir == "":
		err = domain.Validation("target directory is required")
	}
	if err != nil {
		c.lastErr = errorInfo(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}

	req := domain.OrganizeRequest{
		SourcePath:  entry.Path,
		TargetRoot:  c.targetDir,
		Category:    c.category,
		NewBaseName: c.fileName,
	}
	c.pending = true
	c.lastErr = nil
	c.mu.Unlock()

	dst, err := c.organizer.Organize(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.lastErr = errorInfo(err)
		return c.snapshotLocked(), err
	}

	c.removeLocked(entry.ID)
	c.placed[filepath.Clean(dst)] = struct{}{}
	c.category = ""
	c.note = &Notification{
		Message:   "Successfully moved video to " + req.Category,
		ExpiresAt: TimeNow().Add(c.ttl),
	}
	c.log.Info("video organized",
		logger.String("from", req.SourcePath),
		logger.String("to", dst),
		logger.Int("remaining", c.videos.Len()))
	return c.snapshotLocked(), nil
}

// DismissNotification hides the success message early.
func (c *Controller) DismissNotification() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.note = nil
	return c.snapshotLocked()
}

// Paths lists the files currently awaiting triage.
func (c *Controller) Paths() []string {
	return c.videos.Paths()
}

// Forget drops the entry for path, e.g. after it was moved or deleted
// outside clipsort. It reports whether an entry was removed.
func (c *Controller) Forget(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.videos.FindByPath(path)
	if !ok {
		return false
	}
	entry, _ := c.videos.At(i)
	c.removeLocked(entry.ID)
	c.log.Debug("forgot video", logger.String("path", path))
	return true
}

// Track adds a video that appeared in the source directory. Videos that
// clipsort itself placed under the target are ignored, which matters when
// the target lives inside a recursively watched source.
func (c *Controller) Track(entry domain.VideoEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sourceDir == "" || c.state == StateScanning {
		return false
	}
	if c.organizedLocked(entry.Path) {
		c.log.Debug("ignoring organized video", logger.String("path", entry.Path))
		return false
	}
	wasEmpty := c.videos.Len() == 0
	i, added := c.videos.Insert(entry)
	if !added {
		return false
	}

	if wasEmpty {
		c.state = StateReady
		c.resetSelectionLocked(0)
	} else if i <= c.current {
		// Keep the same video selected.
		c.current++
	}
	c.log.Debug("tracking new video", logger.String("path", entry.Path))
	return true
}

// organizedLocked reports whether path was organized this session or sits
// in a category folder of the target directory.
func (c *Controller) organizedLocked(path string) bool {
	path = filepath.Clean(path)
	if _, ok := c.placed[path]; ok {
		return true
	}
	if c.targetDir == "" {
		return false
	}
	rel, err := filepath.Rel(c.targetDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	category, rest, found := strings.Cut(rel, string(filepath.Separator))
	return found && rest != "" && domain.ContainsCategory(c.categoryList, category)
}

// removeLocked deletes id and keeps the selection on a valid entry.
func (c *Controller) removeLocked(id string) {
	removed, ok := c.videos.Remove(id)
	if !ok {
		return
	}

	n := c.videos.Len()
	if n == 0 {
		c.current = 0
		c.fileName = ""
		c.state = StateIdle
		return
	}

	switch {
	case removed < c.current:
		c.current--
	case removed == c.current:
		if c.current >= n {
			c.current = n - 1
		}
		c.resetSelectionLocked(c.current)
	}
}

func (c *Controller) resetSelectionLocked(i int) {
	c.current = i
	c.fileName = ""
	if e, ok := c.videos.At(i); ok {
		c.fileName = e.BaseName
	}
}

func (c *Controller) knownCategory(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ContainsCategory(c.categoryList, name)
}

func (c *Controller) snapshotLocked() Snapshot {
	if c.note != nil && !TimeNow().Before(c.note.ExpiresAt) {
		c.note = nil
	}

	entries := c.videos.All()
	videos := make([]Video, len(entries))
	for i, e := range entries {
		videos[i] = Video{VideoEntry: e, URL: c.mediaURL(e.Path)}
	}

	snap := Snapshot{
		State:      c.state,
		SourceDir:  c.sourceDir,
		TargetDir:  c.targetDir,
		Recursive:  c.recursive,
		Videos:     videos,
		Current:    c.current,
		FileName:   c.fileName,
		Category:   c.category,
		Categories: append([]string{}, c.categoryList...),
		Pending:    c.pending,
	}
	if c.current < len(videos) {
		v := videos[c.current]
		snap.CurrentVideo = &v
	}
	if c.lastErr != nil {
		e := *c.lastErr
		snap.Error = &e
	}
	if c.note != nil {
		n := *c.note
		snap.Notification = &n
	}
	return snap
}

func busy() error {
	return domain.Conflict("another operation is in progress")
}
