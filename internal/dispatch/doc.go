// Package dispatch schedules queue items into an external processor under
// a fixed concurrency cap. A single dispatch pass runs at a time (enforced
// by a capacity-1 token), pending items are selected FIFO, failures are
// retried with exponential backoff, and pause/resume/removal controls gate
// the loop without preempting in-flight work.
package dispatch
