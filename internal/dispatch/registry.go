package dispatch

import (
	"sort"
	"sync"

	"github.com/apexmind/swarm/pkg/models"
)

// ResultRegistry accumulates worker results for one dispatch call. Each
// subtask execution writes its result exactly once; consolidation reads
// the snapshot after the fan-in barrier. The registry is discarded when
// the dispatch returns.
type ResultRegistry struct {
	// status tracks the state machine per worker.
	status map[string]models.SubtaskStatus
	// results maps worker IDs to their terminal results.
	results map[string]models.WorkerResult
	// mu protects all fields.
	mu sync.RWMutex
}

// NewResultRegistry creates a registry pre-seeded with every worker in
// the pending state.
func NewResultRegistry(workers []models.WorkerIdentity) *ResultRegistry {
	status := make(map[string]models.SubtaskStatus, len(workers))
	for _, w := range workers {
		status[w.ID] = models.SubtaskPending
	}
	return &ResultRegistry{
		status:  status,
		results: make(map[string]models.WorkerResult, len(workers)),
	}
}

// MarkRunning records that a worker's subtask has started.
func (r *ResultRegistry) MarkRunning(workerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[workerID] = models.SubtaskRunning
}

// Store records the terminal result for a worker.
func (r *ResultRegistry) Store(res models.WorkerResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[res.WorkerID] = res.Status
	r.results[res.WorkerID] = res
}

// Status returns the current state of a worker's subtask.
func (r *ResultRegistry) Status(workerID string) models.SubtaskStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status[workerID]
}

// Count returns the number of terminal results recorded so far.
func (r *ResultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

// Snapshot returns the recorded results sorted by worker ID, plus the
// IDs of workers that never reached a terminal state.
func (r *ResultRegistry) Snapshot() (results []models.WorkerResult, missing []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results = make([]models.WorkerResult, 0, len(r.results))
	for _, res := range r.results {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].WorkerID < results[j].WorkerID
	})

	for id, st := range r.status {
		if st == models.SubtaskPending || st == models.SubtaskRunning {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return results, missing
}
