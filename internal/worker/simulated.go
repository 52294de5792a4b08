package worker

import (
	"context"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

// SimulatedExecutor completes every subtask locally after a fixed delay.
// It exists for dry runs and smoke tests of the dispatch path when no
// worker service is configured.
type SimulatedExecutor struct {
	// Delay is how long each subtask pretends to work.
	Delay time.Duration
	// Quality is reported on every simulated result.
	Quality float64
}

// Execute waits for the delay, honoring cancellation, then reports a
// successful result echoing the subtask action.
func (e *SimulatedExecutor) Execute(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return models.WorkerResult{}, ctx.Err()
		}
	}

	return models.WorkerResult{
		WorkerID: sub.WorkerID,
		Status:   models.SubtaskSucceeded,
		Payload: map[string]any{
			string(sub.Action): "completed",
		},
		Quality:   e.Quality,
		Timestamp: time.Now().UTC(),
	}, nil
}
