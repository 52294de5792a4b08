package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apexmind/swarm/internal/config"
	"github.com/apexmind/swarm/internal/dispatch"
	"github.com/apexmind/swarm/internal/memorybank"
	"github.com/apexmind/swarm/internal/pool"
	"github.com/apexmind/swarm/internal/store"
	"github.com/apexmind/swarm/internal/worker"
	"github.com/apexmind/swarm/pkg/models"
)

var (
	runTaskID   string
	runTaskType string
	runPayload  []string
	runContext  []string
	runLimit    int
	runTimeout  time.Duration
	runNoStore  bool
	runDebugLog string
	runShowJSON bool
)

var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Dispatch a task across the worker pool",
	Long: `Dispatch a task across the worker pool and print the consolidated
outcome.

The input is the task's primary payload: a path for file_organization,
a document set for document_processing, a repository for code_analysis,
or free-form input for general tasks. Workers are selected by the task
type's capability mapping; unmapped types go to the first three trinity
teams.

Examples:
  swarm run ./inbox --type file_organization
  swarm run ./repo --type code_analysis --timeout 2m
  swarm run "summarize quarterly data" --payload analysis_type=trends`,
	Args: cobra.ExactArgs(1),
	RunE: runDispatch,
}

func init() {
	runCmd.Flags().StringVar(&runTaskID, "id", "", "Task ID (default: generated)")
	runCmd.Flags().StringVar(&runTaskType, "type", string(models.TaskTypeGeneral), "Task type")
	runCmd.Flags().StringArrayVar(&runPayload, "payload", nil, "Extra payload entries as key=value")
	runCmd.Flags().StringArrayVar(&runContext, "context", nil, "Task context entries as key=value")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "Concurrency limit override")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Dispatch deadline override")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "Skip persisting the outcome")
	runCmd.Flags().StringVar(&runDebugLog, "debug-log", "", "Write dispatch debug output to this file")
	runCmd.Flags().BoolVar(&runShowJSON, "json", false, "Print the full outcome as JSON")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	task, err := buildTask(args[0])
	if err != nil {
		return err
	}

	workers, err := buildPool(cfg)
	if err != nil {
		return err
	}
	selected := pool.ForTask(workers, task.Type)
	if len(selected) == 0 {
		return fmt.Errorf("no workers available for task type %s", task.Type)
	}

	resultStore, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	logger, err := dispatch.NewDebugLogger(runDebugLog)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer logger.Close()

	limit := cfg.Dispatch.ConcurrencyLimit
	if runLimit > 0 {
		limit = runLimit
	}

	d, err := dispatch.New(dispatch.Config{
		Executor:         buildExecutor(cfg),
		Store:            resultStore,
		ConcurrencyLimit: limit,
		GracePeriod:      cfg.Dispatch.GracePeriod,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	timeout := cfg.Dispatch.Timeout
	if runTimeout > 0 {
		timeout = runTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	fmt.Printf("Dispatching task %s (%s) to %d workers, limit %d\n",
		task.ID, task.Type, len(selected), limit)

	eventsDone := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printEvents(d.Events(), eventsDone)
	}()

	report, err := d.Dispatch(ctx, task, selected)
	close(eventsDone)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	printOutcome(report)
	if report.Outcome.Status == models.OutcomeFailed {
		os.Exit(1)
	}
	return nil
}

// buildTask assembles the task from the positional input and flags.
func buildTask(input string) (models.Task, error) {
	taskType := models.TaskType(runTaskType)

	payload := map[string]any{"input": input}
	for _, kv := range runPayload {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return models.Task{}, fmt.Errorf("invalid payload entry %q, expected key=value", kv)
		}
		payload[k] = v
	}

	taskCtx := map[string]any{}
	for _, kv := range runContext {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return models.Task{}, fmt.Errorf("invalid context entry %q, expected key=value", kv)
		}
		taskCtx[k] = v
	}

	id := runTaskID
	if id == "" {
		id = uuid.New().String()
	}

	return models.Task{
		ID:        id,
		Type:      taskType,
		Payload:   payload,
		Context:   taskCtx,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// buildPool constructs worker identities from the manifest when one is
// configured, otherwise from the configured shape.
func buildPool(cfg *config.Config) ([]models.WorkerIdentity, error) {
	if cfg.Pool.Manifest != "" {
		m, err := pool.LoadManifest(cfg.Pool.Manifest)
		if err != nil {
			return nil, err
		}
		return m.Build(), nil
	}

	return pool.Build(pool.Config{
		TrinityTeams:    cfg.Pool.TrinityTeams,
		Specialists:     cfg.Pool.Specialists,
		Specializations: cfg.Pool.Specializations,
	}), nil
}

// buildExecutor selects the HTTP executor when a worker endpoint is
// configured and the local simulated executor otherwise.
func buildExecutor(cfg *config.Config) dispatch.Executor {
	if cfg.Worker.Endpoint != "" {
		return worker.NewHTTPExecutor(worker.HTTPConfig{
			Endpoint:   cfg.Worker.Endpoint,
			Timeout:    cfg.Worker.Timeout,
			MaxRetries: cfg.Worker.MaxRetries,
			Backoff:    cfg.Worker.Backoff,
		})
	}
	return &worker.SimulatedExecutor{Quality: 0.85}
}

// buildStore assembles the result store: the SQLite outcome database,
// plus the memory bank when uploads are enabled. The returned closer
// releases the database handle.
func buildStore(cfg *config.Config) (dispatch.ResultStore, func(), error) {
	if runNoStore {
		return nil, func() {}, nil
	}

	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultPath()
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open outcome store: %w", err)
	}

	stores := []dispatch.ResultStore{db}
	if cfg.Memory.Enabled {
		stores = append(stores, memorybank.New(cfg.Memory.Endpoint, cfg.Memory.APIKey))
	}

	if len(stores) == 1 {
		return db, func() { db.Close() }, nil
	}
	return multiStore(stores), func() { db.Close() }, nil
}

// multiStore fans a persist out to every backing store. All stores are
// attempted; errors are joined so one failing backend does not hide the
// others.
type multiStore []dispatch.ResultStore

func (m multiStore) Persist(ctx context.Context, taskID string, outcome *models.TaskOutcome) error {
	var errs []string
	for _, s := range m {
		if err := s.Persist(ctx, taskID, outcome); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("persist outcome: %s", strings.Join(errs, "; "))
	}
	return nil
}

// printEvents streams dispatch progress to the terminal until done is
// closed, then drains whatever is still buffered.
func printEvents(events <-chan dispatch.Event, done <-chan struct{}) {
	for {
		select {
		case ev := <-events:
			printEvent(ev)
		case <-done:
			for {
				select {
				case ev := <-events:
					printEvent(ev)
				default:
					return
				}
			}
		}
	}
}

func printEvent(ev dispatch.Event) {
	switch ev.Type {
	case dispatch.EventSubtaskSucceeded:
		color.New(color.FgGreen).Printf("  ✓ %s\n", ev.WorkerID)
	case dispatch.EventSubtaskFailed:
		color.New(color.FgRed).Printf("  ✗ %s: %s\n", ev.WorkerID, eventReason(ev))
	case dispatch.EventTaskConsolidated:
		fmt.Printf("Consolidated: %s\n", ev.Message)
	case dispatch.EventPersistFailed:
		color.New(color.FgRed).Printf("Persist failed: %v\n", ev.Error)
	}
}

func eventReason(ev dispatch.Event) string {
	if ev.Message != "" {
		return ev.Message
	}
	if ev.Error != nil {
		return ev.Error.Error()
	}
	return "failed"
}

// printOutcome prints the consolidated outcome summary.
func printOutcome(report *dispatch.Report) {
	o := report.Outcome

	statusColor := color.New(color.FgGreen)
	switch o.Status {
	case models.OutcomeDegraded:
		statusColor = color.New(color.FgYellow)
	case models.OutcomeFailed:
		statusColor = color.New(color.FgRed)
	}

	fmt.Println()
	fmt.Printf("Task %s: ", o.TaskID)
	statusColor.Println(string(o.Status))
	fmt.Printf("  Workers: %d succeeded, %d failed of %d\n", o.Succeeded, o.Failed, o.Total)
	fmt.Printf("  Confidence: %.2f\n", o.Confidence)

	if report.Stored {
		fmt.Println("  Outcome persisted")
	} else if report.StoreErr != nil {
		color.New(color.FgYellow).Printf("  Outcome not persisted: %v\n", report.StoreErr)
	}

	if runShowJSON {
		data, err := json.MarshalIndent(o, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
	}
}
