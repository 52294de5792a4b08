package dispatch

import (
	"time"
)

// EventType represents the type of dispatch event.
type EventType string

const (
	// EventSubtaskStarted indicates a subtask has begun executing.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskSucceeded indicates a subtask completed successfully.
	EventSubtaskSucceeded EventType = "subtask_succeeded"
	// EventSubtaskFailed indicates a subtask failed or was abandoned.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventTaskConsolidated indicates all results were merged into an outcome.
	EventTaskConsolidated EventType = "task_consolidated"
	// EventOutcomePersisted indicates the outcome was written to the store.
	EventOutcomePersisted EventType = "outcome_persisted"
	// EventPersistFailed indicates the store rejected the outcome.
	EventPersistFailed EventType = "persist_failed"
)

// Event is emitted by the dispatcher as subtasks progress. Events are
// advisory: a slow observer causes events to be dropped, never a stalled
// dispatch.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task.
	TaskID string
	// WorkerID is the worker involved, if applicable.
	WorkerID string
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
