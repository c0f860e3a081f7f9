package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"studyhall/internal/config"
	"studyhall/internal/generator"
	"studyhall/internal/logging"
	"studyhall/internal/preflight"
	"studyhall/internal/server"
	"studyhall/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	retentionInterval = 24 * time.Hour
)

// Daemon owns the backend's store, HTTP server, and document processor.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	server    *server.Server
	processor *Processor
	gen       server.Generator
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ready   chan struct{}
	once    sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DatabasePath string
	LockFilePath string
	LLMEnabled   bool
	Pending      int
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLogPath names the active log file so retention never prunes it.
func WithLogPath(path string) Option {
	return func(d *Daemon) {
		d.logPath = path
	}
}

// WithGenerator replaces the LLM-backed generator, mainly for tests.
func WithGenerator(gen server.Generator) Option {
	return func(d *Daemon) {
		d.gen = gen
	}
}

// New opens the store and wires the server. The caller must Close the daemon.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, result := range preflight.Failed(preflight.RunServer(cfg)) {
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.Hint(result.Detail),
			logging.EventType("preflight_failed"),
		)
	}

	st, err := store.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	d.store = st

	auth, err := server.NewAuthenticator(cfg.Server.JWTSecret, cfg.TokenTTL())
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	metrics := server.NewMetrics()
	hub := server.NewHub(cfg.Server.AllowedOrigins, logger, metrics)
	d.processor = NewProcessor(st, hub, metrics, logger)

	if d.gen == nil && cfg.LLMEnabled() {
		d.gen = generator.NewClient(generator.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Title:          "studyhall",
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
	}

	srv, err := server.New(server.Config{
		Bind:                  cfg.Server.Bind,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		GenerateRatePerMinute: cfg.Server.GenerateRatePerMinute,
		MaxUploadBytes:        int64(cfg.Server.MaxUploadMiB) << 20,
		DefaultGenerateCount:  cfg.Review.GenerateCount,
	}, server.Deps{
		Store:     st,
		Auth:      auth,
		Generator: d.gen,
		Processor: d.processor,
		Hub:       hub,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	d.server = srv
	return d, nil
}

// Run acquires the instance lock and serves until ctx is cancelled or a
// component fails. It returns nil after a clean shutdown.
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
		return fmt.Errorf("another studyhalld instance is already running (lock %s)", d.lockPath)
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
				logging.Error(err),
				logging.Hint("remove the lock file manually if the next start fails"),
				logging.Impact("a stale lock file may remain"),
			)
		}
	}()

	if err := d.server.Start(ctx); err != nil {
		return err
	}
	d.once.Do(func() { close(d.ready) })
	d.logger.Info("studyhall daemon started",
		logging.String("address", d.server.Addr()),
		logging.String("lock", d.lockPath),
		logging.Bool("llm_enabled", d.cfg.LLMEnabled()),
		logging.EventType("daemon_started"),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(d.server.Serve)
	group.Go(func() error {
		return d.processor.Run(groupCtx)
	})
	group.Go(func() error {
		d.pruneLogs(groupCtx)
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return d.server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	d.logger.Info("studyhall daemon stopped", logging.EventType("daemon_stopped"))
	return err
}

// Ready is closed once the server is listening.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound listener address. It is only meaningful after Ready.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LLMEnabled:   d.cfg.LLMEnabled(),
		Pending:      d.processor.Pending(),
	}
	select {
	case <-d.ready:
		status.Address = d.server.Addr()
	default:
	}
	return status
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *Daemon) pruneLogs(ctx context.Context) {
	prune := func() {
		logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, d.cfg.Logging.Dir, "studyhalld*.log", d.logPath)
	}
	prune()
	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
