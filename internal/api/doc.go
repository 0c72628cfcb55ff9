// Package api defines the wire types for the daemon control API and the
// HTTP client the CLI uses to talk to a running daemon.
package api
