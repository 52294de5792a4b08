package dispatch

import "fmt"

// InvalidTaskError indicates malformed dispatch input: an empty worker
// set, a missing task ID, or duplicate worker identities. It is surfaced
// to the caller before any executor call is made.
type InvalidTaskError struct {
	Reason string
}

func (e *InvalidTaskError) Error() string {
	return "invalid task: " + e.Reason
}

// WorkerUnavailableError indicates a worker could not accept a subtask.
// It is recovered locally into a failed WorkerResult and never aborts
// sibling subtasks.
type WorkerUnavailableError struct {
	WorkerID string
	Err      error
}

func (e *WorkerUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("worker %s unavailable: %v", e.WorkerID, e.Err)
	}
	return fmt.Sprintf("worker %s unavailable", e.WorkerID)
}

func (e *WorkerUnavailableError) Unwrap() error {
	return e.Err
}

// WorkerTimeoutError indicates a subtask exceeded its deadline and was
// abandoned. Like WorkerUnavailableError it is recovered locally.
type WorkerTimeoutError struct {
	WorkerID string
}

func (e *WorkerTimeoutError) Error() string {
	return fmt.Sprintf("worker %s timed out", e.WorkerID)
}

// ConsolidationError indicates a consolidation invariant was violated,
// such as a result count that does not match the dispatched subtask
// count. This signals a programming bug and is fatal to the dispatch.
type ConsolidationError struct {
	Reason string
}

func (e *ConsolidationError) Error() string {
	return "consolidation: " + e.Reason
}
