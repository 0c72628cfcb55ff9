package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"docket/internal/config"
	"docket/internal/dispatch"
	"docket/internal/history"
	"docket/internal/intake"
	"docket/internal/logging"
	"docket/internal/notifications"
	"docket/internal/preflight"
	"docket/internal/queue"
	"docket/internal/services/extractor"
)

// Daemon coordinates the background services and enforces single-instance
// execution via a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *queue.Store
	dispatcher *dispatch.Dispatcher
	scanner    *intake.Scanner
	journal    *history.Store
	notifier   notifications.Service
	apiSrv     *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Paused        bool
	PID           int
	Queue         queue.Stats
	LockFilePath  string
	HistoryDBPath string
}

// Option overrides a daemon dependency, primarily for tests.
type Option func(*options)

type options struct {
	processor dispatch.Processor
}

// WithProcessor substitutes the extraction client with a custom processor.
func WithProcessor(proc dispatch.Processor) Option {
	return func(o *options) { o.processor = proc }
}

// New constructs a daemon with initialized dependencies. The outcome
// journal and lock file live under the configured data directory.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	proc := o.processor
	if proc == nil {
		client, err := extractor.NewFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build extractor client: %w", err)
		}
		proc = client.Processor()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	journal, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history journal: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "docketd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:    queue.NewStore(),
		journal:  journal,
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	d.dispatcher = dispatch.New(d.store, proc, logger, dispatch.Config{
		MaxConcurrent:    cfg.Queue.MaxConcurrent,
		MaxRetries:       cfg.Queue.MaxRetries,
		RetryDelay:       time.Duration(cfg.Queue.RetryDelay) * time.Millisecond,
		BackoffCap:       time.Duration(cfg.Queue.RetryBackoffCap) * time.Millisecond,
		DispatchInterval: time.Duration(cfg.Queue.DispatchInterval) * time.Millisecond,
		PollInterval:     time.Duration(cfg.Queue.PollInterval) * time.Second,
	},
		dispatch.OnItemComplete(d.recordCompletion),
		dispatch.OnItemError(d.recordFailure),
	)

	if cfg.Intake.Enabled {
		d.scanner = intake.NewScanner(cfg, d.dispatcher, logger)
	}

	d.apiSrv, err = newAPIServer(cfg, d, logger)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}
	return d, nil
}

// Start acquires the daemon lock and launches background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docket daemon instance is already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.dispatcher.Start(runCtx); err != nil {
		d.releaseLock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start dispatcher: %w", err)
	}
	if d.scanner != nil {
		if err := d.scanner.Start(runCtx); err != nil {
			d.dispatcher.Stop()
			d.releaseLock()
			cancel()
			d.cancel = nil
			return fmt.Errorf("start intake scanner: %w", err)
		}
	}
	if d.apiSrv != nil {
		if err := d.apiSrv.start(runCtx); err != nil {
			if d.scanner != nil {
				d.scanner.Stop()
			}
			d.dispatcher.Stop()
			d.releaseLock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("docket daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background services and releases the daemon lock. In-flight
// extractions settle before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	if d.scanner != nil {
		d.scanner.Stop()
	}
	d.dispatcher.Stop()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("docket daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}

// Status reports daemon runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		Paused:        d.dispatcher.Paused(),
		PID:           os.Getpid(),
		Queue:         d.dispatcher.Stats(),
		LockFilePath:  d.lockPath,
		HistoryDBPath: d.journal.Path(),
	}
}

// Dispatcher exposes queue controls for the API server.
func (d *Daemon) Dispatcher() *dispatch.Dispatcher {
	return d.dispatcher
}

// Journal exposes the outcome journal for the API server.
func (d *Daemon) Journal() *history.Store {
	return d.journal
}

// APIAddr returns the bound control API address, empty when disabled.
func (d *Daemon) APIAddr() string {
	if d.apiSrv == nil {
		return ""
	}
	return d.apiSrv.addr()
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

func (d *Daemon) recordCompletion(id string, result any) {
	rec := history.Record{ItemID: id, Outcome: history.OutcomeComplete, Result: result}
	if item, ok := d.store.Find(id); ok {
		rec.Title = item.Title
		rec.Retries = item.Retries
		if path, isPath := item.Payload.(string); isPath {
			rec.SourcePath = path
		}
	}
	d.appendJournal(rec)
	d.notify(func(ctx context.Context) error {
		return d.notifier.NotifyExtractionComplete(ctx, rec.Title)
	})
}

func (d *Daemon) recordFailure(id string, message string) {
	rec := history.Record{ItemID: id, Outcome: history.OutcomeError, ErrorMessage: message}
	if item, ok := d.store.Find(id); ok {
		rec.Title = item.Title
		rec.Retries = item.Retries
		if path, isPath := item.Payload.(string); isPath {
			rec.SourcePath = path
		}
	}
	d.appendJournal(rec)
	d.notify(func(ctx context.Context) error {
		return d.notifier.NotifyExtractionFailed(ctx, rec.Title, message)
	})
}

// notify publishes best-effort: a failed notification is logged, never
// surfaced to queue processing.
func (d *Daemon) notify(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		d.logger.Warn("notification failed", logging.Error(err))
	}
}

func (d *Daemon) appendJournal(rec history.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := d.journal.Append(ctx, rec); err != nil {
		d.logger.Warn("failed to journal outcome",
			logging.String(logging.FieldItemID, rec.ItemID),
			logging.Error(err),
		)
	}
}
