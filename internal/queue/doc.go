// Package queue holds the in-memory work queue state: items, their
// lifecycle statuses, and the snapshot store the dispatcher schedules
// from. The package is a pure state container; scheduling lives in
// internal/dispatch.
package queue
