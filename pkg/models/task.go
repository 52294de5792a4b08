package models

import "time"

// TaskType tags a task so the dispatcher can pick a decomposition rule
// and the pool can pick a capability allocation.
type TaskType string

const (
	// TaskTypeGeneral is the default type for tasks with no special handling.
	TaskTypeGeneral TaskType = "general"
	// TaskTypeCoordination is handled by a fixed-size team split into roles.
	TaskTypeCoordination TaskType = "coordination"
	// TaskTypeFileOrganization routes to file categorization specialists.
	TaskTypeFileOrganization TaskType = "file_organization"
	// TaskTypeDocumentProcessing routes to document analysis specialists.
	TaskTypeDocumentProcessing TaskType = "document_processing"
	// TaskTypeCodeAnalysis routes to code review specialists.
	TaskTypeCodeAnalysis TaskType = "code_analysis"
)

// Task is a unit of work submitted by a caller. It is immutable once
// submitted; the dispatcher never writes to it.
type Task struct {
	// ID is the unique identifier for this task. Callers must keep IDs
	// unique per logical task for store idempotence to be meaningful.
	ID string `json:"id" validate:"required"`
	// Type selects the decomposition rule for this task.
	Type TaskType `json:"type" validate:"required"`
	// Payload is the opaque task input handed to workers.
	Payload map[string]any `json:"payload,omitempty"`
	// Context carries caller-provided context shared by all subtasks.
	Context map[string]any `json:"context,omitempty"`
	// CreatedAt is when the task was submitted.
	CreatedAt time.Time `json:"created_at"`
}
