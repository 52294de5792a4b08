package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

func testTask(typ models.TaskType) models.Task {
	return models.Task{
		ID:        "t1",
		Type:      typ,
		Payload:   map[string]any{"input": "./workspace"},
		CreatedAt: time.Now(),
	}
}

func testWorkers(ids ...string) []models.WorkerIdentity {
	workers := make([]models.WorkerIdentity, len(ids))
	for i, id := range ids {
		workers[i] = models.WorkerIdentity{ID: id, Kind: models.WorkerKindTrinity}
	}
	return workers
}

func TestDecomposeOneSubtaskPerWorker(t *testing.T) {
	subs, err := Decompose(testTask(models.TaskTypeGeneral), testWorkers("w1", "w2", "w3"))
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}

	if len(subs) != 3 {
		t.Fatalf("expected 3 subtasks, got %d", len(subs))
	}
	for i, sub := range subs {
		if sub.TaskID != "t1" {
			t.Errorf("subtask %d: expected task ID t1, got %q", i, sub.TaskID)
		}
		if sub.Action != models.ActionGeneral {
			t.Errorf("subtask %d: expected general action, got %q", i, sub.Action)
		}
		if sub.Payload["input"] != "./workspace" {
			t.Errorf("subtask %d: expected full payload", i)
		}
	}
}

func TestDecomposeTrinityThirds(t *testing.T) {
	task := models.Task{
		ID:   "t1",
		Type: models.TaskTypeCoordination,
		Payload: map[string]any{
			"input":         "./data",
			"analysis_type": "semantic",
			"output_format": "pdf",
		},
	}

	workers := testWorkers("w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9")
	subs, err := Decompose(task, workers)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}

	wantActions := []models.SubtaskAction{
		models.ActionIngest, models.ActionIngest, models.ActionIngest,
		models.ActionAnalyze, models.ActionAnalyze, models.ActionAnalyze,
		models.ActionPublish, models.ActionPublish, models.ActionPublish,
	}
	for i, sub := range subs {
		if sub.Action != wantActions[i] {
			t.Errorf("subtask %d: expected action %q, got %q", i, wantActions[i], sub.Action)
		}
	}

	if subs[0].Payload["target"] != "./data" {
		t.Errorf("ingest subtask should carry the input target")
	}
	if subs[3].Payload["focus"] != "semantic" {
		t.Errorf("analyze subtask should carry the analysis focus")
	}
	if subs[8].Payload["format"] != "pdf" {
		t.Errorf("publish subtask should carry the output format")
	}
}

func TestDecomposeSpecialist(t *testing.T) {
	workers := []models.WorkerIdentity{
		{ID: "specialist_000_code_review", Kind: models.WorkerKindSpecialist, Capabilities: []string{"code_review", "collaboration"}},
	}

	subs, err := Decompose(testTask(models.TaskTypeCodeAnalysis), workers)
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}

	if subs[0].Action != models.ActionSpecialized {
		t.Errorf("expected specialized action, got %q", subs[0].Action)
	}
	if subs[0].Payload["specialty"] != "code_review" {
		t.Errorf("expected primary capability as specialty, got %v", subs[0].Payload["specialty"])
	}
}

func TestDecomposeEmptyWorkers(t *testing.T) {
	_, err := Decompose(testTask(models.TaskTypeGeneral), nil)

	var invalid *InvalidTaskError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTaskError, got %v", err)
	}
}

func TestDecomposeMissingTaskID(t *testing.T) {
	task := models.Task{Type: models.TaskTypeGeneral}
	_, err := Decompose(task, testWorkers("w1"))

	var invalid *InvalidTaskError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTaskError, got %v", err)
	}
}

func TestDecomposeDuplicateWorkers(t *testing.T) {
	_, err := Decompose(testTask(models.TaskTypeGeneral), testWorkers("w1", "w1"))

	var invalid *InvalidTaskError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTaskError, got %v", err)
	}
}
