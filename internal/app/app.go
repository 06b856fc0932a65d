package app

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/pkg/browser"

	"github.com/MrSnakeDoc/clipsort/internal/config"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver"
	"github.com/MrSnakeDoc/clipsort/internal/httpserver/deps"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
	"github.com/MrSnakeDoc/clipsort/internal/organize"
	"github.com/MrSnakeDoc/clipsort/internal/scan"
	"github.com/MrSnakeDoc/clipsort/internal/scheduler"
	"github.com/MrSnakeDoc/clipsort/internal/session"
	"github.com/MrSnakeDoc/clipsort/internal/stream"
	"github.com/MrSnakeDoc/clipsort/internal/version"
	"github.com/MrSnakeDoc/clipsort/internal/watch"
	"github.com/MrSnakeDoc/clipsort/internal/web"
)

// openURL is replaced in tests.
var openURL = browser.OpenURL

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	backend *Backend
	session *session.Controller
	watcher *watch.Watcher
	sweeper *scheduler.StaleSweeper
}

// New wires every component from cfg. Nothing listens until Run.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	scanner, err := scan.New(scan.Options{
		Extensions: cfg.Extensions,
		Exclude:    cfg.Exclude,
	}, loggerClient)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	organizer := organize.New(loggerClient)

	ctrl := session.New(scanner, organizer, backend.Store, session.Options{
		Recursive:       cfg.Recursive,
		NotificationTTL: cfg.NotificationTTL,
	}, loggerClient)

	// A broken store must not prevent the UI from starting: the error is
	// reported again on the first category request.
	if list, err := ctrl.LoadCategories(ctx); err != nil {
		loggerClient.Warn("failed to load categories", logger.Error(err))
	} else {
		loggerClient.Info("categories loaded",
			logger.String("backend", backend.Name),
			logger.Int("count", len(list)))
	}

	a := &App{
		cfg:     cfg,
		logger:  loggerClient,
		backend: backend,
		session: ctrl,
	}

	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		Categories:       backend.Store,
		CategoryBackend:  backend.Name,
		Ping:             backend.Ping,
		Scanner:          scanner,
		Accepts:          scanner.Accepts,
		Organizer:        organizer,
		Streamer:         stream.New(loggerClient),
		Session:          ctrl,
		DefaultRecursive: cfg.Recursive,
		HomeDir:          homeDir(),
		UI:               web.FS(),
	}

	if cfg.Watch {
		a.watcher = watch.New(ctrl, scanner, loggerClient)
		ctrl.SetWatcher(a.watcher)
		d.Watcher = a.watcher
	} else {
		loggerClient.Info("directory watching disabled")
	}

	if cfg.SweepInterval > 0 {
		trigger := make(chan struct{}, 1)
		a.sweeper = scheduler.NewStaleSweeper(ctrl, loggerClient, cfg.SweepInterval, trigger)
		d.SweepTrigger = trigger
	} else {
		loggerClient.Info("stale sweep disabled")
	}

	a.server = httpserver.New(cfg.ListenAddr, loggerClient, d)
	return a, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🎬 Starting clipsort %s on %s", version.Version, a.cfg.ListenAddr)
	a.logger.Info(version.String())

	if err := a.server.Listen(); err != nil {
		a.closeBackend()
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.ListenAddr, err)
	}

	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			a.closeBackend()
			return fmt.Errorf("failed to start stale sweeper: %w", err)
		}
		a.logger.Info("stale sweeper started",
			logger.Duration("interval", a.cfg.SweepInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	uiURL := browserURL(a.server.URL())
	a.logger.Infof("UI available at %s", uiURL)
	if a.cfg.OpenBrowser {
		if err := openURL(uiURL); err != nil {
			a.logger.Warn("failed to open browser", logger.Error(err))
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warnf("failed to close watcher: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.closeBackend()

	if runErr == nil {
		a.logger.Info("✅ clipsort stopped cleanly")
	}
	return runErr
}

// Session exposes the controller, mainly for tests.
func (a *App) Session() *session.Controller { return a.session }

// URL is the address the UI is served on; empty before Run binds it.
func (a *App) URL() string { return browserURL(a.server.URL()) }

func (a *App) closeBackend() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warnf("failed to close category backend: %v", err)
	}
}

// browserURL swaps an unspecified listen host (0.0.0.0, ::) for
// localhost, which the host allow-list accepts by default.
func browserURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return raw
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		u.Host = net.JoinHostPort("localhost", port)
	}
	return u.String()
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return string(os.PathSeparator)
}
