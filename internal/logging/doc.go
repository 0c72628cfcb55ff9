// Package logging wraps log/slog with the handlers and attribute helpers
// used across docket: a console handler for interactive use, a JSON
// handler for machine consumption, and standardized field names so log
// lines stay greppable.
package logging
