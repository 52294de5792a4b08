package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

// okExecutor succeeds for every subtask with the given quality.
func okExecutor(quality float64) Executor {
	return ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		return models.WorkerResult{
			WorkerID:  sub.WorkerID,
			Status:    models.SubtaskSucceeded,
			Payload:   map[string]any{sub.WorkerID: "done"},
			Quality:   quality,
			Timestamp: time.Now(),
		}, nil
	})
}

// memStore records persisted outcomes keyed by task ID.
type memStore struct {
	mu       sync.Mutex
	outcomes map[string]*models.TaskOutcome
	calls    int
	failWith error
}

func newMemStore() *memStore {
	return &memStore{outcomes: make(map[string]*models.TaskOutcome)}
}

func (s *memStore) Persist(_ context.Context, taskID string, outcome *models.TaskOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failWith != nil {
		return s.failWith
	}
	s.outcomes[taskID] = outcome
	return nil
}

func newTestDispatcher(t *testing.T, cfg Config) *Dispatcher {
	t.Helper()
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func TestNewRequiresExecutor(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing executor")
	}
}

func TestDispatchAllSucceed(t *testing.T) {
	store := newMemStore()
	d := newTestDispatcher(t, Config{Executor: okExecutor(0.9), Store: store})

	workers := testWorkers("w1", "w2", "w3", "w4")
	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), workers)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	outcome := report.Outcome
	if outcome.Succeeded+outcome.Failed != len(workers) {
		t.Errorf("succeeded+failed=%d, want %d", outcome.Succeeded+outcome.Failed, len(workers))
	}
	if outcome.Failed != 0 {
		t.Errorf("expected no failures, got %d", outcome.Failed)
	}
	if outcome.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %f", outcome.Confidence)
	}
	if outcome.Status != models.OutcomeSucceeded {
		t.Errorf("expected succeeded status, got %q", outcome.Status)
	}
	if !report.Stored {
		t.Error("expected outcome to be stored")
	}
	if store.outcomes["t1"] == nil {
		t.Error("store should hold the outcome under the task ID")
	}
}

func TestDispatchAllFail(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		return models.WorkerResult{}, &WorkerUnavailableError{WorkerID: sub.WorkerID}
	})
	d := newTestDispatcher(t, Config{Executor: exec})

	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1", "w2", "w3"))
	if err != nil {
		t.Fatalf("dispatch must not fail on worker errors: %v", err)
	}

	outcome := report.Outcome
	if outcome.Succeeded != 0 {
		t.Errorf("expected 0 succeeded, got %d", outcome.Succeeded)
	}
	if outcome.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", outcome.Confidence)
	}
	if outcome.Status != models.OutcomeFailed {
		t.Errorf("expected failed status, got %q", outcome.Status)
	}
}

// One worker times out, two succeed with quality 1.0: the outcome must
// report succeeded=2, failed=1, confidence=1.0.
func TestDispatchPartialFailure(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		if sub.WorkerID == "w2" {
			return models.WorkerResult{}, &WorkerTimeoutError{WorkerID: "w2"}
		}
		return models.WorkerResult{
			WorkerID: sub.WorkerID,
			Status:   models.SubtaskSucceeded,
			Quality:  1.0,
		}, nil
	})
	d := newTestDispatcher(t, Config{Executor: exec})

	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1", "w2", "w3"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	outcome := report.Outcome
	if outcome.Succeeded != 2 || outcome.Failed != 1 {
		t.Errorf("expected succeeded=2 failed=1, got %d/%d", outcome.Succeeded, outcome.Failed)
	}
	if outcome.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", outcome.Confidence)
	}

	var failed *models.WorkerResult
	for i := range outcome.Results {
		if outcome.Results[i].WorkerID == "w2" {
			failed = &outcome.Results[i]
		}
	}
	if failed == nil || failed.Succeeded() {
		t.Fatal("expected a failed result for w2")
	}
	if failed.FailureReason == "" {
		t.Error("failed result should carry a reason")
	}
}

func TestDispatchExecutorPanicIsolated(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		if sub.WorkerID == "w1" {
			panic("boom")
		}
		return models.WorkerResult{WorkerID: sub.WorkerID, Status: models.SubtaskSucceeded, Quality: 1}, nil
	})
	d := newTestDispatcher(t, Config{Executor: exec})

	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1", "w2"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Outcome.Succeeded != 1 || report.Outcome.Failed != 1 {
		t.Errorf("expected 1/1, got %d/%d", report.Outcome.Succeeded, report.Outcome.Failed)
	}
}

// With a concurrency limit of 1, five workers must never overlap.
func TestDispatchConcurrencyLimit(t *testing.T) {
	var inflight, peak int64
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		cur := atomic.AddInt64(&inflight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inflight, -1)
		return models.WorkerResult{WorkerID: sub.WorkerID, Status: models.SubtaskSucceeded, Quality: 1}, nil
	})

	d := newTestDispatcher(t, Config{Executor: exec, ConcurrencyLimit: 1})

	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1", "w2", "w3", "w4", "w5"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if report.Outcome.Succeeded != 5 {
		t.Errorf("expected 5 succeeded, got %d", report.Outcome.Succeeded)
	}
	if got := atomic.LoadInt64(&peak); got > 1 {
		t.Errorf("expected at most 1 in-flight execution, observed %d", got)
	}
}

// The deadline expires after two of five subtasks complete. The
// remaining three are abandoned and marked failed by timeout, and
// dispatch returns within a bounded grace period of the deadline.
func TestDispatchDeadline(t *testing.T) {
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		if sub.WorkerID == "w1" || sub.WorkerID == "w2" {
			return models.WorkerResult{WorkerID: sub.WorkerID, Status: models.SubtaskSucceeded, Quality: 1}, nil
		}
		<-ctx.Done()
		return models.WorkerResult{}, ctx.Err()
	})

	grace := 200 * time.Millisecond
	d := newTestDispatcher(t, Config{Executor: exec, GracePeriod: grace})

	deadline := 100 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	start := time.Now()
	report, err := d.Dispatch(ctx, testTask(models.TaskTypeGeneral), testWorkers("w1", "w2", "w3", "w4", "w5"))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	outcome := report.Outcome
	if outcome.Succeeded > 2 {
		t.Errorf("expected at most 2 succeeded, got %d", outcome.Succeeded)
	}
	if outcome.Failed < 3 {
		t.Errorf("expected at least 3 failed, got %d", outcome.Failed)
	}
	if outcome.Succeeded+outcome.Failed != 5 {
		t.Errorf("succeeded+failed=%d, want 5", outcome.Succeeded+outcome.Failed)
	}
	if elapsed > deadline+grace+500*time.Millisecond {
		t.Errorf("dispatch took %v, want bounded by deadline+grace", elapsed)
	}
}

func TestDispatchStoreFailureReported(t *testing.T) {
	store := newMemStore()
	store.failWith = fmt.Errorf("disk full")
	d := newTestDispatcher(t, Config{Executor: okExecutor(1), Store: store})

	report, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1"))
	if err != nil {
		t.Fatalf("storage failure must not fail the dispatch: %v", err)
	}

	if report.Stored {
		t.Error("expected Stored=false")
	}
	if report.StoreErr == nil {
		t.Error("expected StoreErr to be set")
	}
	if report.Outcome == nil || report.Outcome.Succeeded != 1 {
		t.Error("outcome must survive a storage failure")
	}
}

func TestDispatchInvalidInputBeforeExecutorCall(t *testing.T) {
	var calls int64
	exec := ExecutorFunc(func(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
		atomic.AddInt64(&calls, 1)
		return models.WorkerResult{WorkerID: sub.WorkerID, Status: models.SubtaskSucceeded}, nil
	})
	d := newTestDispatcher(t, Config{Executor: exec})

	_, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), nil)

	var invalid *InvalidTaskError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTaskError, got %v", err)
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Errorf("executor must not be called for invalid input, got %d calls", calls)
	}
}

func TestDispatchEmitsEvents(t *testing.T) {
	d := newTestDispatcher(t, Config{Executor: okExecutor(1)})

	if _, err := d.Dispatch(context.Background(), testTask(models.TaskTypeGeneral), testWorkers("w1")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	seen := make(map[EventType]bool)
	for {
		select {
		case ev := <-d.Events():
			seen[ev.Type] = true
		default:
			if !seen[EventSubtaskStarted] || !seen[EventSubtaskSucceeded] || !seen[EventTaskConsolidated] {
				t.Errorf("missing expected events, saw %v", seen)
			}
			return
		}
	}
}
