package models

// WorkerKind classifies a worker identity within the pool.
type WorkerKind string

const (
	// WorkerKindTrinity is a member of a fixed three-role coordination team.
	WorkerKindTrinity WorkerKind = "trinity"
	// WorkerKindSpecialist is a worker with a single primary specialization.
	WorkerKindSpecialist WorkerKind = "specialist"
)

// WorkerIdentity is a named unit of concurrent execution capacity.
// Identities are created at pool initialization and immutable for the
// process lifetime.
type WorkerIdentity struct {
	// ID is the stable identifier for this worker.
	ID string `json:"id"`
	// Kind classifies the worker within the pool.
	Kind WorkerKind `json:"kind"`
	// Capabilities lists the capability tags this worker carries.
	Capabilities []string `json:"capabilities,omitempty"`
}

// HasCapability returns true if the worker carries the given capability tag.
func (w WorkerIdentity) HasCapability(cap string) bool {
	for _, c := range w.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// SubtaskAction tags the action a worker is asked to perform.
type SubtaskAction string

const (
	// ActionIngest asks a trinity worker to pull the task input in.
	ActionIngest SubtaskAction = "data_ingestion"
	// ActionAnalyze asks a trinity worker to analyze ingested input.
	ActionAnalyze SubtaskAction = "analysis"
	// ActionPublish asks a trinity worker to synthesize the result.
	ActionPublish SubtaskAction = "result_synthesis"
	// ActionSpecialized asks a specialist to apply its primary capability.
	ActionSpecialized SubtaskAction = "specialized_processing"
	// ActionGeneral is the fallback action carrying the full payload.
	ActionGeneral SubtaskAction = "general_processing"
)

// SubtaskStatus represents the execution state of a subtask.
type SubtaskStatus string

const (
	// SubtaskPending indicates the subtask has not started.
	SubtaskPending SubtaskStatus = "pending"
	// SubtaskRunning indicates the subtask is executing.
	SubtaskRunning SubtaskStatus = "running"
	// SubtaskSucceeded indicates the subtask completed successfully.
	SubtaskSucceeded SubtaskStatus = "succeeded"
	// SubtaskFailed indicates the subtask failed or was abandoned.
	SubtaskFailed SubtaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskPending, SubtaskRunning, SubtaskSucceeded, SubtaskFailed:
		return true
	default:
		return false
	}
}

// Subtask is the per-worker decomposition of a Task. It is created by
// decomposition, consumed once by an executor, and never persisted.
type Subtask struct {
	// TaskID is the ID of the parent task.
	TaskID string `json:"task_id"`
	// WorkerID is the worker this subtask is assigned to.
	WorkerID string `json:"worker_id"`
	// Action is what the worker is asked to do.
	Action SubtaskAction `json:"action"`
	// Payload is the slice of the task payload relevant to this action.
	Payload map[string]any `json:"payload,omitempty"`
	// Context is the caller-provided context shared by all siblings.
	Context map[string]any `json:"context,omitempty"`
}
