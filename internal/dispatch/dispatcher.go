package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"docket/internal/logging"
	"docket/internal/queue"
)

// Config holds dispatcher tuning knobs.
type Config struct {
	// MaxConcurrent caps the number of items simultaneously owned by
	// in-flight processor calls.
	MaxConcurrent int
	// MaxRetries caps automatic retry attempts per item.
	MaxRetries int
	// RetryDelay is the exponential backoff base.
	RetryDelay time.Duration
	// BackoffCap bounds the backoff delay. Zero leaves it unbounded.
	BackoffCap time.Duration
	// DispatchInterval is the cooperative yield between loop iterations.
	DispatchInterval time.Duration
	// PollInterval is the backstop wake-up when no trigger arrives.
	PollInterval time.Duration
}

const (
	defaultMaxConcurrent    = 3
	defaultMaxRetries       = 3
	defaultRetryDelay       = time.Second
	defaultDispatchInterval = 10 * time.Millisecond
	defaultPollInterval     = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = defaultDispatchInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Dispatcher owns the scheduling loop over a queue.Store.
type Dispatcher struct {
	store  *queue.Store
	proc   Processor
	logger *slog.Logger
	cfg    Config

	onComplete func(id string, result any)
	onError    func(id string, message string)

	// loopToken makes the "one dispatch pass at a time" invariant
	// structural: a pass runs only while holding the token.
	loopToken chan struct{}
	// wake coalesces triggers; capacity 1 so a kick during a pass is
	// never lost and repeated kicks collapse into one.
	wake chan struct{}

	paused atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures optional dispatcher behavior.
type Option func(*Dispatcher)

// OnItemComplete registers the completion callback, invoked exactly once
// per item that reaches the complete status.
func OnItemComplete(fn func(id string, result any)) Option {
	return func(d *Dispatcher) { d.onComplete = fn }
}

// OnItemError registers the error callback, invoked exactly once per item
// whose retry budget is exhausted.
func OnItemError(fn func(id string, message string)) Option {
	return func(d *Dispatcher) { d.onError = fn }
}

// New constructs a dispatcher over the given store and processor.
func New(store *queue.Store, proc Processor, logger *slog.Logger, cfg Config, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Dispatcher{
		store:     store,
		proc:      proc,
		logger:    logger.With(logging.String(logging.FieldComponent, "dispatcher")),
		cfg:       cfg.withDefaults(),
		loopToken: make(chan struct{}, 1),
		wake:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins background scheduling.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.store == nil || d.proc == nil {
		return errors.New("dispatcher requires store and processor")
	}

	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return errors.New("dispatcher already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(runCtx)
	d.Kick()
	return nil
}

// Stop terminates scheduling and waits for in-flight work to settle.
// Pending items stay pending; they are picked up on the next Start.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.cancel = nil
	d.mu.Unlock()

	cancel()
	d.wg.Wait()
}

// Running reports whether the background loop is active.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Kick requests a dispatch pass. Safe to call from any goroutine; kicks
// coalesce while a pass is pending.
func (d *Dispatcher) Kick() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-time.After(d.cfg.PollInterval):
		}
		d.dispatchPass(ctx)
	}
}

// dispatchPass advances pending items into processing until the queue is
// paused, drained, or the concurrency cap is reached. The pass recomputes
// pending and active sets from store snapshots on every iteration, so
// settlements that land mid-pass are observed.
func (d *Dispatcher) dispatchPass(ctx context.Context) {
	select {
	case d.loopToken <- struct{}{}:
	default:
		return
	}
	defer func() { <-d.loopToken }()

	for {
		if ctx.Err() != nil || d.paused.Load() {
			return
		}

		pending := d.store.Pending()
		if len(pending) == 0 {
			return
		}
		if d.store.ActiveCount() >= d.cfg.MaxConcurrent {
			return
		}

		// FIFO over eligible items. An item waiting out its retry backoff
		// is skipped, not a head-of-line blocker; the kick scheduled at
		// settlement wakes the loop once its delay expires.
		head := firstEligible(pending, time.Now())
		if head == nil {
			return
		}
		item, ok := d.store.TransitionStatus(head.ID, queue.StatusPending, queue.StatusUploading)
		if !ok {
			// Removed or claimed since the snapshot; re-evaluate.
			continue
		}

		d.logger.Debug("item dispatched",
			logging.String(logging.FieldItemID, item.ID),
			logging.Int("retries", item.Retries),
			logging.Int("active", d.store.ActiveCount()),
		)

		d.wg.Add(1)
		go d.processItem(ctx, item.ID, item.Payload)

		// Cooperative yield so one pass cannot monopolize the scheduler.
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.cfg.DispatchInterval):
		}
	}
}

func firstEligible(pending []*queue.Item, now time.Time) *queue.Item {
	for _, item := range pending {
		if item.NotBefore.IsZero() || !now.Before(item.NotBefore) {
			return item
		}
	}
	return nil
}
