// Package intake watches the inbox directory and enqueues new files for
// extraction. Detection is polling-based: the scanner walks the inbox on
// an interval, filters by extension, and enqueues each file once.
package intake
