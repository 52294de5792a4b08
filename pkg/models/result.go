package models

import "time"

// WorkerResult is the outcome of one subtask execution. It is written
// once by the owning execution and read-only thereafter.
type WorkerResult struct {
	// WorkerID is the worker that produced this result.
	WorkerID string `json:"worker_id"`
	// Status is the terminal state of the subtask (succeeded or failed).
	Status SubtaskStatus `json:"status"`
	// Payload is the success output, nil on failure.
	Payload map[string]any `json:"payload,omitempty"`
	// Quality is the worker-reported quality of the result in [0,1].
	// Only meaningful on success.
	Quality float64 `json:"quality"`
	// FailureReason describes why the subtask failed, empty on success.
	FailureReason string `json:"failure_reason,omitempty"`
	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// Succeeded returns true if the subtask completed successfully.
func (r WorkerResult) Succeeded() bool {
	return r.Status == SubtaskSucceeded
}

// OutcomeStatus summarizes a consolidated task outcome.
type OutcomeStatus string

const (
	// OutcomeSucceeded indicates every subtask succeeded.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeDegraded indicates some but not all subtasks succeeded.
	OutcomeDegraded OutcomeStatus = "degraded"
	// OutcomeFailed indicates no subtask succeeded.
	OutcomeFailed OutcomeStatus = "failed"
)

// TaskOutcome is the consolidation of all worker results for one task.
// Invariants: Succeeded+Failed == Total, and Confidence == 0 when
// Succeeded == 0.
type TaskOutcome struct {
	// TaskID is the task this outcome belongs to.
	TaskID string `json:"task_id"`
	// Status summarizes the outcome: succeeded, degraded, or failed.
	Status OutcomeStatus `json:"status"`
	// Total is the number of subtasks dispatched.
	Total int `json:"total"`
	// Succeeded is the number of subtasks that completed successfully.
	Succeeded int `json:"succeeded"`
	// Failed is the number of subtasks that failed or were abandoned.
	Failed int `json:"failed"`
	// Output is the merged success payload. Empty when nothing succeeded.
	Output map[string]any `json:"output,omitempty"`
	// Results holds the per-worker results in worker-ID order.
	Results []WorkerResult `json:"results,omitempty"`
	// Confidence is the mean quality over successful results, 0 if none.
	Confidence float64 `json:"confidence"`
	// CompletedAt is when consolidation finished.
	CompletedAt time.Time `json:"completed_at"`
}
