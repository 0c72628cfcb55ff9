// Package services holds shared plumbing for external service clients:
// the error taxonomy and wrapping helpers used to classify failures.
package services
