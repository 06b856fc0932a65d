package deps

import (
	"context"
	"io/fs"
	"time"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/session"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
)

// Watcher reports which directory is followed, for status output.
type Watcher interface {
	Root() string
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	AllowedHosts []string // Host headers allowed to access the server
	AllowedCIDRS []string // client IPs allowed to access the server

	Categories       domain.CategoryStore
	CategoryBackend  string                          // "file" | "redis", for status output
	Ping             func(ctx context.Context) error // backend reachability, nil = always ready
	Scanner          session.Scanner
	Accepts          func(name string) bool // media allow-list, nil serves any regular file
	Organizer        session.Organizer
	Streamer         *stream.Streamer
	Session          *session.Controller
	Watcher          Watcher       // nil when watching is disabled
	SweepTrigger     chan struct{} // manual stale sweep, nil when the sweeper is off
	DefaultRecursive bool          // used when a scan request omits "recursive"
	HomeDir          string        // starting point of the directory picker
	UI               fs.FS         // embedded web UI, nil disables "/"
}

// Now returns d.TimeNow() or time.Now().
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
