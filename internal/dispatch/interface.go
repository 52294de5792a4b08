// Package dispatch implements the task-dispatch core: decomposing a task
// into per-worker subtasks, executing them concurrently under a bounded
// limit, consolidating partial results, and handing the outcome to a
// result store.
package dispatch

import (
	"context"

	"github.com/apexmind/swarm/pkg/models"
)

// Executor performs one unit of work for one worker identity. Execution
// failures are returned as errors; the dispatcher recovers them into
// failed WorkerResults. Retry policy, if any, belongs to the executor,
// never to the dispatcher.
type Executor interface {
	Execute(ctx context.Context, sub models.Subtask) (models.WorkerResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
	return f(ctx, sub)
}

// ResultStore durably records the outcome of a completed task keyed by
// task ID. Persist must be idempotent: persisting the same task ID twice
// with the same outcome leaves the store in the same observable state as
// persisting once.
type ResultStore interface {
	Persist(ctx context.Context, taskID string, outcome *models.TaskOutcome) error
}
