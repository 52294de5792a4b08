package dispatch

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/apexmind/swarm/pkg/models"
)

// validate checks struct tags on submitted tasks. A single instance is
// shared because validator caches struct metadata.
var validate = validator.New()

// decomposeFunc turns a task into one subtask for the worker at index i.
type decomposeFunc func(task models.Task, w models.WorkerIdentity, i, n int) models.Subtask

// decomposeTable maps task types to their decomposition rules. Types not
// present fall back to decomposeGeneral.
var decomposeTable = map[models.TaskType]decomposeFunc{
	models.TaskTypeCoordination:       decomposeTrinity,
	models.TaskTypeFileOrganization:   decomposeSpecialist,
	models.TaskTypeDocumentProcessing: decomposeSpecialist,
	models.TaskTypeCodeAnalysis:       decomposeSpecialist,
}

// Decompose derives one subtask per worker identity from the given task.
// The rule is chosen from the decomposition table by task type; unknown
// types give every worker an identical general_processing subtask with
// the full payload. Returns InvalidTaskError for an empty worker set, a
// missing task ID, or duplicate worker IDs.
func Decompose(task models.Task, workers []models.WorkerIdentity) ([]models.Subtask, error) {
	if err := validate.Struct(task); err != nil {
		return nil, &InvalidTaskError{Reason: fmt.Sprintf("task validation: %v", err)}
	}
	if len(workers) == 0 {
		return nil, &InvalidTaskError{Reason: "empty worker set"}
	}

	seen := make(map[string]bool, len(workers))
	for _, w := range workers {
		if w.ID == "" {
			return nil, &InvalidTaskError{Reason: "worker with empty ID"}
		}
		if seen[w.ID] {
			return nil, &InvalidTaskError{Reason: "duplicate worker ID " + w.ID}
		}
		seen[w.ID] = true
	}

	rule, ok := decomposeTable[task.Type]
	if !ok {
		rule = decomposeGeneral
	}

	subs := make([]models.Subtask, len(workers))
	for i, w := range workers {
		subs[i] = rule(task, w, i, len(workers))
	}
	return subs, nil
}

// decomposeTrinity splits a coordination team into thirds: the first
// third ingests, the second analyzes, the final third publishes.
func decomposeTrinity(task models.Task, w models.WorkerIdentity, i, n int) models.Subtask {
	sub := models.Subtask{
		TaskID:   task.ID,
		WorkerID: w.ID,
		Context:  task.Context,
	}

	switch i * 3 / n {
	case 0:
		sub.Action = models.ActionIngest
		sub.Payload = map[string]any{"target": task.Payload["input"]}
	case 1:
		sub.Action = models.ActionAnalyze
		sub.Payload = map[string]any{"focus": task.Payload["analysis_type"]}
	default:
		sub.Action = models.ActionPublish
		sub.Payload = map[string]any{"format": task.Payload["output_format"]}
	}
	return sub
}

// decomposeSpecialist hands each worker its primary capability as the
// specialty, with the full task payload as data.
func decomposeSpecialist(task models.Task, w models.WorkerIdentity, _, _ int) models.Subtask {
	var specialty string
	if len(w.Capabilities) > 0 {
		specialty = w.Capabilities[0]
	}
	return models.Subtask{
		TaskID:   task.ID,
		WorkerID: w.ID,
		Action:   models.ActionSpecialized,
		Payload: map[string]any{
			"specialty": specialty,
			"data":      task.Payload,
		},
		Context: task.Context,
	}
}

// decomposeGeneral gives every worker the full payload.
func decomposeGeneral(task models.Task, w models.WorkerIdentity, _, _ int) models.Subtask {
	return models.Subtask{
		TaskID:   task.ID,
		WorkerID: w.ID,
		Action:   models.ActionGeneral,
		Payload:  task.Payload,
		Context:  task.Context,
	}
}
