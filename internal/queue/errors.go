package queue

import "errors"

var (
	// ErrDuplicateID is returned when an item id is already present in the
	// store. Enqueueing the same id twice is rejected rather than silently
	// replacing the existing item.
	ErrDuplicateID = errors.New("queue: duplicate item id")

	// ErrEmptyID is returned when an item is added without an identifier.
	ErrEmptyID = errors.New("queue: item id is required")
)
