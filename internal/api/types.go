package api

import (
	"time"

	"docket/internal/history"
	"docket/internal/queue"
)

// ItemView is the wire representation of a queue item.
type ItemView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SourcePath   string    `json:"source_path,omitempty"`
	Status       string    `json:"status"`
	Retries      int       `json:"retries"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Result       any       `json:"result,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromQueueItem converts a store item into its wire representation.
func FromQueueItem(item *queue.Item) ItemView {
	view := ItemView{
		ID:           item.ID,
		Title:        item.Title,
		Status:       string(item.Status),
		Retries:      item.Retries,
		ErrorMessage: item.ErrorMessage,
		Result:       item.Result,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if path, ok := item.Payload.(string); ok {
		view.SourcePath = path
	}
	return view
}

// QueueStats mirrors queue.Stats on the wire.
type QueueStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Active   int `json:"active"`
	Complete int `json:"complete"`
	Error    int `json:"error"`
}

// FromQueueStats converts store stats into their wire representation.
func FromQueueStats(stats queue.Stats) QueueStats {
	return QueueStats{
		Total:    stats.Total,
		Pending:  stats.Pending,
		Active:   stats.Active,
		Complete: stats.Complete,
		Error:    stats.Error,
	}
}

// DaemonStatus reports daemon runtime information.
type DaemonStatus struct {
	Running       bool       `json:"running"`
	Paused        bool       `json:"paused"`
	PID           int        `json:"pid"`
	Queue         QueueStats `json:"queue"`
	LockFilePath  string     `json:"lock_file_path"`
	HistoryDBPath string     `json:"history_db_path"`
}

// HistoryEntryView is the wire representation of a journal entry.
type HistoryEntryView struct {
	ID           int64     `json:"id"`
	ItemID       string    `json:"item_id"`
	Title        string    `json:"title"`
	SourcePath   string    `json:"source_path,omitempty"`
	Outcome      string    `json:"outcome"`
	Retries      int       `json:"retries"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ResultJSON   string    `json:"result_json,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// FromHistoryEntry converts a journal entry into its wire representation.
func FromHistoryEntry(entry *history.Entry) HistoryEntryView {
	return HistoryEntryView{
		ID:           entry.ID,
		ItemID:       entry.ItemID,
		Title:        entry.Title,
		SourcePath:   entry.SourcePath,
		Outcome:      string(entry.Outcome),
		Retries:      entry.Retries,
		ErrorMessage: entry.ErrorMessage,
		ResultJSON:   entry.ResultJSON,
		RecordedAt:   entry.RecordedAt,
	}
}

// AddRequest enqueues a file by path.
type AddRequest struct {
	SourcePath string `json:"source_path"`
	Title      string `json:"title,omitempty"`
}

// QueueListResponse carries the queue snapshot.
type QueueListResponse struct {
	Items []ItemView `json:"items"`
}

// QueueItemResponse carries a single item.
type QueueItemResponse struct {
	Item ItemView `json:"item"`
}

// ActionResponse acknowledges a state-changing request.
type ActionResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// ClearResponse reports how many items a clear dropped.
type ClearResponse struct {
	Dropped int `json:"dropped"`
}

// HistoryListResponse carries journal entries, newest first.
type HistoryListResponse struct {
	Entries []HistoryEntryView `json:"entries"`
}
