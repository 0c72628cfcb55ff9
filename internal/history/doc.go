// Package history persists terminal queue outcomes to SQLite. The live
// queue is in-memory and forgets items on restart; the journal is the
// durable record of what was extracted and what failed.
package history
