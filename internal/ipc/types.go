package ipc

import (
	"time"

	"docforge/internal/document"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/worker status information.
type StatusResponse struct {
	Running          bool      `json:"running"`
	PID              int       `json:"pid"`
	StartedAt        time.Time `json:"started_at"`
	QueueDepth       int       `json:"queue_depth"`
	CurrentDocument  string    `json:"current_document"`
	SessionCompleted int       `json:"session_completed"`
	LastError        string    `json:"last_error"`
	StatusFilePath   string    `json:"status_file_path"`
	LockFilePath     string    `json:"lock_file_path"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ListRequest filters document listing by status names; empty means all.
type ListRequest struct {
	Statuses []string `json:"statuses"`
}

// ListResponse contains document records, most recently updated first.
type ListResponse struct {
	Documents []*document.Record `json:"documents"`
}

// DescribeRequest fetches a single document by ID.
type DescribeRequest struct {
	ID string `json:"id"`
}

// DescribeResponse carries one document record.
type DescribeResponse struct {
	Found    bool             `json:"found"`
	Document *document.Record `json:"document"`
}

// AddRequest submits and enqueues a document in one step.
type AddRequest struct {
	Path    string                     `json:"path"`
	Options document.ConversionOptions `json:"options"`
}

// AddResponse returns the queued record.
type AddResponse struct {
	Document *document.Record `json:"document"`
}

// CancelRequest asks for cooperative cancellation of a processing document.
type CancelRequest struct {
	ID string `json:"id"`
}

// CancelResponse acknowledges the cancel flag write.
type CancelResponse struct {
	Requested bool `json:"requested"`
}

// ResetRequest forces a finished document back to ready.
type ResetRequest struct {
	ID string `json:"id"`
}

// ReprocessRequest re-enqueues a finished document with its stored options.
type ReprocessRequest struct {
	ID string `json:"id"`
}

// QueueListRequest fetches pending queue entries.
type QueueListRequest struct{}

// QueueListResponse contains pending document IDs in enqueue order.
type QueueListResponse struct {
	IDs []string `json:"ids"`
}
