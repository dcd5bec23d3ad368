package types

import "encoding/json"

// CallRecord is the wire representation of a logged tool call.
type CallRecord struct {
	ID      uint   `json:"id"`
	TraceID string `json:"trace_id"`
	Tool    string `json:"tool"`

	// Request is the raw argument snapshot exactly as submitted by the caller.
	Request json.RawMessage `json:"request,omitempty"`
	// Response is the raw result or structured error returned to the caller.
	Response json.RawMessage `json:"response,omitempty"`

	IsError   bool   `json:"is_error"`
	ErrorKind string `json:"error_kind,omitempty"`

	ReceivedAt  string `json:"received_at"`
	CompletedAt string `json:"completed_at"`
	DurationMs  int64  `json:"duration_ms"`
}

// CallPage is a single page of call records, newest first.
type CallPage struct {
	Calls      []CallRecord `json:"calls"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	TotalPages int          `json:"total_pages"`
}
