package dispatch

import (
	"fmt"
	"sort"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

// Consolidate merges worker results into a single task outcome. It is a
// pure reduction over the result set: given the same results it produces
// the same outcome regardless of the order subtasks completed in.
//
// Confidence is the mean of the Quality values over successful results,
// or 0 when nothing succeeded. The output payload is merged from success
// payloads last-writer-wins per key, with workers applied in worker-ID
// order; the per-worker results are kept alongside under Results.
//
// Returns ConsolidationError if len(results) does not match the number
// of dispatched subtasks. That means a result was lost or duplicated,
// which is a bug in the dispatcher, not a recoverable worker failure.
func Consolidate(taskID string, total int, results []models.WorkerResult) (*models.TaskOutcome, error) {
	if len(results) != total {
		return nil, &ConsolidationError{
			Reason: fmt.Sprintf("task %s: %d results for %d dispatched subtasks", taskID, len(results), total),
		}
	}

	outcome := &models.TaskOutcome{
		TaskID:      taskID,
		Total:       total,
		Output:      make(map[string]any),
		Results:     sortedByWorker(results),
		CompletedAt: time.Now().UTC(),
	}

	var qualitySum float64
	for _, res := range outcome.Results {
		if !res.Succeeded() {
			outcome.Failed++
			continue
		}
		outcome.Succeeded++
		qualitySum += res.Quality
		for k, v := range res.Payload {
			outcome.Output[k] = v
		}
	}

	if outcome.Succeeded > 0 {
		outcome.Confidence = qualitySum / float64(outcome.Succeeded)
	}

	switch {
	case outcome.Succeeded == total:
		outcome.Status = models.OutcomeSucceeded
	case outcome.Succeeded > 0:
		outcome.Status = models.OutcomeDegraded
	default:
		outcome.Status = models.OutcomeFailed
	}

	return outcome, nil
}

// sortedByWorker returns a copy of results ordered by worker ID.
func sortedByWorker(results []models.WorkerResult) []models.WorkerResult {
	out := make([]models.WorkerResult, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool {
		return out[i].WorkerID < out[j].WorkerID
	})
	return out
}
