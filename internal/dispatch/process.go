package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"docket/internal/logging"
	"docket/internal/queue"
)

// processItem owns one item from dispatch to settlement. Every path out
// of this function kicks the loop so a freed concurrency slot is reused.
func (d *Dispatcher) processItem(ctx context.Context, id string, payload any) {
	defer d.wg.Done()
	defer d.Kick()

	requestID := uuid.NewString()
	logger := d.logger.With(
		logging.String(logging.FieldItemID, id),
		logging.String(logging.FieldRequestID, requestID),
	)

	// Presentation stages before the opaque call. Each transition is a
	// no-op when the item has been removed, in which case the call is
	// skipped entirely since it never started.
	if _, ok := d.store.UpdateStatus(id, queue.StatusAnalyzing, ""); !ok {
		logger.Debug("item removed before processing")
		return
	}
	if _, ok := d.store.UpdateStatus(id, queue.StatusExtracting, ""); !ok {
		logger.Debug("item removed before processing")
		return
	}

	start := time.Now()
	logger.Info("processing started", logging.String(logging.FieldEventType, "process_start"))

	result, err := d.invoke(ctx, payload)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			// Hand the item back so the next Start redispatches it; an
			// interrupted attempt does not consume a retry.
			if _, ok := d.store.UpdateStatus(id, queue.StatusPending, ""); ok {
				logger.Debug("processing interrupted by shutdown, item requeued")
			}
			return
		}
		d.settleFailure(ctx, logger, id, err)
		return
	}

	// Settlement against a removed id must be a harmless no-op: no store
	// mutation and no callback.
	if _, ok := d.store.SetResult(id, result); !ok {
		logger.Debug("item removed during processing; result dropped")
		return
	}

	logger.Info("processing completed",
		logging.String(logging.FieldEventType, "process_complete"),
		logging.Duration("duration", time.Since(start)),
	)
	if d.onComplete != nil {
		d.onComplete(id, result)
	}
}

// invoke calls the processor, converting panics into errors so one item's
// failure can never crash the loop or block other items.
func (d *Dispatcher) invoke(ctx context.Context, payload any) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("processor panic: %v", recovered)
		}
	}()
	return d.proc.Process(ctx, payload)
}

func (d *Dispatcher) settleFailure(ctx context.Context, logger *slog.Logger, id string, procErr error) {
	message := strings.TrimSpace(procErr.Error())
	if message == "" {
		message = "processing failed"
	}

	item, ok := d.store.Find(id)
	if !ok {
		return
	}

	if item.Retries < d.cfg.MaxRetries {
		delay := retryBackoff(d.cfg.RetryDelay, d.cfg.BackoffCap, item.Retries)
		updated, ok := d.store.MarkRetry(id, message, time.Now().Add(delay))
		if !ok {
			return
		}
		logger.Warn("transient failure, retry scheduled",
			logging.String(logging.FieldEventType, "process_retry"),
			logging.Int("retries", updated.Retries),
			logging.Int("max_retries", d.cfg.MaxRetries),
			logging.Duration("backoff", delay),
			logging.String("error_message", message),
		)
		d.scheduleKick(ctx, delay)
		return
	}

	if _, ok := d.store.UpdateStatus(id, queue.StatusError, message); !ok {
		return
	}
	logger.Error("retry budget exhausted",
		logging.String(logging.FieldEventType, "process_failed"),
		logging.Int("retries", item.Retries),
		logging.String("error_message", message),
	)
	if d.onError != nil {
		d.onError(id, message)
	}
}

// scheduleKick triggers a dispatch pass after the backoff delay, or
// immediately on shutdown so Stop never waits out a backoff timer.
func (d *Dispatcher) scheduleKick(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		d.Kick()
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-ctx.Done():
		case <-time.After(delay):
			d.Kick()
		}
	}()
}
