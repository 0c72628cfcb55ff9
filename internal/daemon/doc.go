// Package daemon wires the queue, dispatcher, intake scanner, outcome
// journal, and control API into a single-instance background process.
package daemon
