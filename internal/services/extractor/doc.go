// Package extractor is the client for the external extraction service.
// The queue treats it as an opaque processor: a file goes in, extracted
// fields come out, and any failure is a candidate for retry.
package extractor
