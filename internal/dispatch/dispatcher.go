package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apexmind/swarm/internal/metrics"
	"github.com/apexmind/swarm/pkg/models"
)

const (
	// DefaultConcurrencyLimit caps simultaneous in-flight subtask
	// executions when the caller does not set one.
	DefaultConcurrencyLimit = 16

	// defaultGracePeriod bounds how long Dispatch waits for in-flight
	// executions after the caller's deadline expires.
	defaultGracePeriod = 2 * time.Second
)

// Config contains construction options for a Dispatcher.
type Config struct {
	// Executor performs subtask work. Required.
	Executor Executor
	// Store receives consolidated outcomes. Optional; when nil the
	// dispatch report is returned with Stored=false.
	Store ResultStore
	// ConcurrencyLimit caps in-flight subtask executions. Values < 1
	// fall back to DefaultConcurrencyLimit.
	ConcurrencyLimit int
	// GracePeriod bounds the wait for in-flight subtasks after the
	// caller's deadline expires. Zero means the default.
	GracePeriod time.Duration
	// Logger receives debug output. Nil disables debug logging.
	Logger *DebugLogger
}

// Dispatcher assigns named work items to a pool of worker identities,
// executes them concurrently under a bounded limit, and consolidates
// partial results without losing successful ones. All mutable dispatch
// state lives in a per-call registry; a Dispatcher is safe for
// concurrent use.
type Dispatcher struct {
	executor Executor
	store    ResultStore
	limit    int
	grace    time.Duration
	logger   *DebugLogger

	// events carries progress events to observers.
	events chan Event
	// dropped counts events discarded because no observer kept up.
	dropped atomic.Uint64
}

// New creates a Dispatcher from the given config.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("dispatcher requires an executor")
	}

	limit := cfg.ConcurrencyLimit
	if limit < 1 {
		limit = DefaultConcurrencyLimit
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	return &Dispatcher{
		executor: cfg.Executor,
		store:    cfg.Store,
		limit:    limit,
		grace:    grace,
		logger:   cfg.Logger,
		events:   make(chan Event, 256),
	}, nil
}

// Report is the result of one dispatch: the consolidated outcome plus
// whether it reached the result store. A storage failure never
// invalidates the outcome itself.
type Report struct {
	// Outcome is the consolidated task outcome.
	Outcome *models.TaskOutcome
	// Stored indicates the outcome was persisted.
	Stored bool
	// StoreErr holds the persist error when Stored is false and a store
	// was configured.
	StoreErr error
}

// Dispatch decomposes the task into one subtask per worker, executes
// them concurrently capped at the configured limit, and consolidates the
// results into a single outcome. A single subtask failure never aborts
// its siblings. When the context deadline expires, in-flight subtasks
// are abandoned after a bounded grace period and recorded as failed with
// a timeout error; results already completed are kept.
func (d *Dispatcher) Dispatch(ctx context.Context, task models.Task, workers []models.WorkerIdentity) (*Report, error) {
	subs, err := Decompose(task, workers)
	if err != nil {
		return nil, err
	}

	d.logger.Log("[dispatch] task %s: %d subtasks, limit %d", task.ID, len(subs), d.limit)

	reg := NewResultRegistry(workers)
	sem := make(chan struct{}, d.limit)
	var wg sync.WaitGroup

	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.Subtask) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Never started; the snapshot marks it abandoned.
				return
			}
			defer func() { <-sem }()

			d.runSubtask(ctx, reg, sub)
		}(sub)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(d.grace):
			d.logger.Log("[dispatch] task %s: grace period elapsed, abandoning %d in-flight subtasks",
				task.ID, len(subs)-reg.Count())
		}
	}

	results, missing := reg.Snapshot()
	now := time.Now().UTC()
	for _, workerID := range missing {
		terr := &WorkerTimeoutError{WorkerID: workerID}
		results = append(results, models.WorkerResult{
			WorkerID:      workerID,
			Status:        models.SubtaskFailed,
			FailureReason: terr.Error(),
			Timestamp:     now,
		})
		metrics.SubtasksTotal.WithLabelValues(string(models.SubtaskFailed)).Inc()
		d.emit(Event{Type: EventSubtaskFailed, TaskID: task.ID, WorkerID: workerID, Error: terr, Timestamp: now})
	}

	outcome, err := Consolidate(task.ID, len(subs), results)
	if err != nil {
		// Invariant breach: a lost or duplicated result. Fatal, not swallowed.
		log.Printf("[dispatch] task %s: %v", task.ID, err)
		return nil, err
	}

	metrics.DispatchesTotal.WithLabelValues(string(outcome.Status)).Inc()
	d.emit(Event{
		Type:      EventTaskConsolidated,
		TaskID:    task.ID,
		Message:   fmt.Sprintf("%d/%d succeeded, confidence %.2f", outcome.Succeeded, outcome.Total, outcome.Confidence),
		Timestamp: outcome.CompletedAt,
	})
	d.logger.Log("[dispatch] task %s consolidated: status=%s succeeded=%d failed=%d confidence=%.2f",
		task.ID, outcome.Status, outcome.Succeeded, outcome.Failed, outcome.Confidence)

	report := &Report{Outcome: outcome}
	if d.store != nil {
		// Storage is attempted even when the dispatch deadline already
		// expired; the outcome is computed and must not be lost to the
		// caller's timeout.
		sctx := context.WithoutCancel(ctx)
		if err := d.store.Persist(sctx, task.ID, outcome); err != nil {
			report.StoreErr = err
			metrics.PersistFailuresTotal.Inc()
			d.emit(Event{Type: EventPersistFailed, TaskID: task.ID, Error: err, Timestamp: time.Now()})
			log.Printf("[dispatch] task %s: persist outcome: %v", task.ID, err)
		} else {
			report.Stored = true
			d.emit(Event{Type: EventOutcomePersisted, TaskID: task.ID, Timestamp: time.Now()})
		}
	}

	return report, nil
}

// runSubtask executes one subtask and records its terminal result. Any
// executor error or panic becomes a failed WorkerResult; nothing
// propagates to sibling subtasks.
func (d *Dispatcher) runSubtask(ctx context.Context, reg *ResultRegistry, sub models.Subtask) {
	reg.MarkRunning(sub.WorkerID)
	d.emit(Event{Type: EventSubtaskStarted, TaskID: sub.TaskID, WorkerID: sub.WorkerID, Timestamp: time.Now()})

	metrics.InflightSubtasks.Inc()
	defer metrics.InflightSubtasks.Dec()

	res, err := d.executeRecovering(ctx, sub)
	if err != nil {
		res = failedResult(sub, err)
	}
	res = normalizeResult(sub, res)

	reg.Store(res)
	metrics.SubtasksTotal.WithLabelValues(string(res.Status)).Inc()

	ev := Event{Type: EventSubtaskSucceeded, TaskID: sub.TaskID, WorkerID: sub.WorkerID, Timestamp: res.Timestamp}
	if !res.Succeeded() {
		ev.Type = EventSubtaskFailed
		ev.Message = res.FailureReason
	}
	d.emit(ev)
}

// executeRecovering calls the executor, converting panics to errors.
func (d *Dispatcher) executeRecovering(ctx context.Context, sub models.Subtask) (res models.WorkerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return d.executor.Execute(ctx, sub)
}

// failedResult converts an executor error into a failed WorkerResult,
// classifying deadline expiry as a worker timeout.
func failedResult(sub models.Subtask, err error) models.WorkerResult {
	if errors.Is(err, context.DeadlineExceeded) {
		err = &WorkerTimeoutError{WorkerID: sub.WorkerID}
	}
	return models.WorkerResult{
		WorkerID:      sub.WorkerID,
		Status:        models.SubtaskFailed,
		FailureReason: err.Error(),
		Timestamp:     time.Now().UTC(),
	}
}

// normalizeResult fills in fields executors commonly leave blank.
func normalizeResult(sub models.Subtask, res models.WorkerResult) models.WorkerResult {
	if res.WorkerID == "" {
		res.WorkerID = sub.WorkerID
	}
	if res.Status == "" {
		res.Status = models.SubtaskSucceeded
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}
	return res
}

// Events returns the channel observers read dispatch events from.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// DroppedEventCount returns the number of events dropped because no
// observer kept up with the event channel.
func (d *Dispatcher) DroppedEventCount() uint64 {
	return d.dropped.Load()
}

// emit delivers an event without blocking the dispatch path.
func (d *Dispatcher) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.dropped.Add(1)
	}
}
