package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusUploading  Status = "uploading"
	StatusAnalyzing  Status = "analyzing"
	StatusExtracting Status = "extracting"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusAnalyzing,
	StatusExtracting,
	StatusComplete,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// activeStatuses are the sub-states owned by an in-flight processor call.
// They all occupy a single concurrency slot; the split exists only to give
// consumers a finer-grained progress signal.
var activeStatuses = map[Status]struct{}{
	StatusUploading:  {},
	StatusAnalyzing:  {},
	StatusExtracting: {},
}

// Item represents one unit of caller-supplied work.
//
// ID is caller-assigned, opaque, and stable for the item's lifetime.
// Payload is whatever the processor consumes; the queue never inspects it.
type Item struct {
	ID           string
	Title        string
	Payload      any
	Status       Status
	Retries      int
	// NotBefore gates redispatch of a pending item: the dispatcher skips
	// it until this instant has passed. Zero means immediately eligible.
	NotBefore    time.Time
	ErrorMessage string
	Result       any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsActive reports whether a status occupies a concurrency slot.
func IsActive(status Status) bool {
	_, ok := activeStatuses[status]
	return ok
}

// IsActive reports whether the item is owned by an in-flight processor call.
func (i Item) IsActive() bool {
	return IsActive(i.Status)
}

// IsTerminal reports whether the item has settled and will not be
// redispatched without an explicit retry request.
func (i Item) IsTerminal() bool {
	return i.Status == StatusComplete || i.Status == StatusError
}
