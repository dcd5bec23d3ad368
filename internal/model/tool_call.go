package model

import (
	"time"

	"gorm.io/datatypes"
)

// ToolCall is the durable, append-only record of a single tool invocation.
// A record is created when a request is dispatched and sealed once the
// handler returns; it is never mutated afterward.
type ToolCall struct {
	// ID is assigned by the database and increases monotonically, so it
	// doubles as the position of the record in the log.
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	// TraceID is a ULID minted by the bridge for this invocation.
	// It is echoed to the caller so a logged record can be located later.
	TraceID string `json:"trace_id" gorm:"uniqueIndex;not null"`

	// Tool is the name of the invoked tool. Protocol-level failures that
	// never reach a handler are recorded with the method name instead.
	Tool string `json:"tool" gorm:"index;not null"`

	// Request is the raw argument snapshot exactly as submitted by the
	// caller, preserved even when validation rejected it.
	Request datatypes.JSON `json:"request" gorm:"type:jsonb"`

	// Response is the result payload or the structured error returned to
	// the caller.
	Response datatypes.JSON `json:"response" gorm:"type:jsonb"`

	IsError bool `json:"is_error"`

	// ErrorKind is the error taxonomy value for failed calls, empty on success.
	ErrorKind string `json:"error_kind"`

	ReceivedAt  time.Time `json:"received_at" gorm:"not null"`
	CompletedAt time.Time `json:"completed_at" gorm:"not null"`
	DurationMs  int64     `json:"duration_ms"`
}
