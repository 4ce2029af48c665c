package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"podcaster/internal/config"
	"podcaster/internal/logging"
)

// LockFileName is the lock held in the data directory while a daemon runs.
const LockFileName = "podcasterd.lock"

const shutdownTimeout = 10 * time.Second

// Daemon serves the HTTP front end and enforces single-instance execution.
type Daemon struct {
	bind   string
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	handler http.Handler
	addr    atomic.Value
	running atomic.Bool
}

// New constructs a daemon serving svc on the configured bind address.
func New(cfg *config.Config, svc Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and service")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	lockPath := filepath.Join(cfg.Paths.DataDir, LockFileName)
	return &Daemon{
		bind:     cfg.Paths.APIBind,
		logger:   logger,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		handler:  NewHandler(svc, cfg.Paths.APIToken, logger),
	}, nil
}

// Handler exposes the router, mainly for in-process tests.
func (d *Daemon) Handler() http.Handler {
	return d.handler
}

// Addr returns the bound listen address once Run is serving, or "".
func (d *Daemon) Addr() string {
	if v, ok := d.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Running reports whether Run is currently serving.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the daemon lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Run acquires the daemon lock and serves until ctx is cancelled, then shuts
// the server down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another podcaster daemon instance is already running (lock %s)", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", d.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	d.addr.Store(listener.Addr().String())
	defer d.addr.Store("")

	server := newHTTPServer(d.handler)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	d.logger.Info("podcaster daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("address", listener.Addr().String()),
		logging.String("lock", d.lockPath),
	)
	err = g.Wait()
	d.logger.Info("podcaster daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	return err
}
