package dispatch

import (
	"docket/internal/logging"
	"docket/internal/queue"
)

// Add enqueues a new item and triggers a dispatch pass. Duplicate ids are
// rejected with queue.ErrDuplicateID.
func (d *Dispatcher) Add(id, title string, payload any) (*queue.Item, error) {
	item, err := d.store.Add(id, title, payload)
	if err != nil {
		return nil, err
	}
	d.logger.Info("item enqueued",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldItemTitle, item.Title),
		logging.String(logging.FieldEventType, "item_enqueued"),
	)
	d.Kick()
	return item, nil
}

// Remove drops an item unconditionally. An in-flight processor call for
// the item is not interrupted; its settlement becomes a no-op.
func (d *Dispatcher) Remove(id string) bool {
	removed := d.store.Remove(id)
	if removed {
		d.logger.Info("item removed",
			logging.String(logging.FieldItemID, id),
			logging.String(logging.FieldEventType, "item_removed"),
		)
	}
	d.Kick()
	return removed
}

// Retry is the explicit external retry request: a settled item returns to
// pending with a fresh retry budget. Unknown, pending, and in-flight ids
// report false; requeueing an item a processor call still owns would put
// two invocations on it at once.
func (d *Dispatcher) Retry(id string) bool {
	_, ok := d.store.ResetForRetry(id)
	if ok {
		d.logger.Info("item retry requested",
			logging.String(logging.FieldItemID, id),
			logging.String(logging.FieldEventType, "item_retry"),
		)
		d.Kick()
	}
	return ok
}

// Pause blocks new dispatches. Items already processing run to settlement.
func (d *Dispatcher) Pause() {
	if d.paused.CompareAndSwap(false, true) {
		d.logger.Info("queue paused", logging.String(logging.FieldEventType, "queue_paused"))
	}
}

// Resume lifts a pause and triggers a fresh dispatch pass.
func (d *Dispatcher) Resume() {
	if d.paused.CompareAndSwap(true, false) {
		d.logger.Info("queue resumed", logging.String(logging.FieldEventType, "queue_resumed"))
	}
	d.Kick()
}

// Paused reports whether dispatching is currently gated.
func (d *Dispatcher) Paused() bool {
	return d.paused.Load()
}

// Clear empties the store. Truly in-flight processor calls are not
// cancelled; their settlements no-op against the emptied store.
func (d *Dispatcher) Clear() int {
	dropped := d.store.Clear()
	if dropped > 0 {
		d.logger.Info("queue cleared",
			logging.Int("dropped", dropped),
			logging.String(logging.FieldEventType, "queue_cleared"),
		)
	}
	return dropped
}

// ItemStatus returns the current copy of an item.
func (d *Dispatcher) ItemStatus(id string) (*queue.Item, bool) {
	return d.store.Find(id)
}

// Items returns the current queue snapshot in insertion order.
func (d *Dispatcher) Items() []*queue.Item {
	return d.store.All()
}

// Stats derives live counts from the store snapshot.
func (d *Dispatcher) Stats() queue.Stats {
	return d.store.Stats()
}
