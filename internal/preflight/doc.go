// Package preflight provides readiness checks for the directories and
// the extraction service that docket depends on.
//
// The daemon runs the checks once at startup and logs failures without
// refusing to start: the queue retries around a flaky extractor, and an
// inbox that appears later is picked up by the next scan. The CLI status
// command reuses the same checks for display.
package preflight
