package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "outcomes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testOutcome(taskID string) *models.TaskOutcome {
	completed := time.Date(2026, 8, 24, 12, 30, 0, 123456789, time.UTC)
	return &models.TaskOutcome{
		TaskID:     taskID,
		Status:     models.OutcomeDegraded,
		Total:      3,
		Succeeded:  2,
		Failed:     1,
		Output:     map[string]any{"summary": "partial", "count": float64(2)},
		Confidence: 0.75,
		Results: []models.WorkerResult{
			{WorkerID: "w1", Status: models.SubtaskSucceeded, Quality: 0.5, Timestamp: completed},
			{WorkerID: "w2", Status: models.SubtaskFailed, FailureReason: "worker w2 timed out", Timestamp: completed},
			{WorkerID: "w3", Status: models.SubtaskSucceeded, Quality: 1.0, Timestamp: completed},
		},
		CompletedAt: completed,
	}
}

func TestPersistRoundTrip(t *testing.T) {
	db := openTestDB(t)
	want := testOutcome("t1")

	if err := db.Persist(context.Background(), "t1", want); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := db.GetOutcome("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored outcome")
	}

	if got.TaskID != want.TaskID || got.Status != want.Status {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.Total != want.Total || got.Succeeded != want.Succeeded || got.Failed != want.Failed {
		t.Errorf("count mismatch: %d/%d/%d", got.Succeeded, got.Failed, got.Total)
	}
	if got.Confidence != want.Confidence {
		t.Errorf("confidence mismatch: %f", got.Confidence)
	}
	if !reflect.DeepEqual(got.Output, want.Output) {
		t.Errorf("output mismatch: %v vs %v", got.Output, want.Output)
	}
	if !got.CompletedAt.Equal(want.CompletedAt) {
		t.Errorf("completed_at mismatch: %v vs %v", got.CompletedAt, want.CompletedAt)
	}
	if len(got.Results) != 3 || got.Results[1].FailureReason != "worker w2 timed out" {
		t.Errorf("results mismatch: %+v", got.Results)
	}
}

func TestPersistIdempotent(t *testing.T) {
	db := openTestDB(t)
	outcome := testOutcome("t1")

	if err := db.Persist(context.Background(), "t1", outcome); err != nil {
		t.Fatalf("first persist: %v", err)
	}
	first, err := db.GetOutcome("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if err := db.Persist(context.Background(), "t1", outcome); err != nil {
		t.Fatalf("second persist: %v", err)
	}
	second, err := db.GetOutcome("t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat persist changed stored state:\n%+v\n%+v", first, second)
	}

	all, err := db.ListRecent(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected exactly one stored outcome, got %d", len(all))
	}
}

func TestGetOutcomeMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetOutcome("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing outcome, got %+v", got)
	}
}

func TestListRecentOrder(t *testing.T) {
	db := openTestDB(t)

	older := testOutcome("t-old")
	older.CompletedAt = older.CompletedAt.Add(-time.Hour)
	newer := testOutcome("t-new")

	if err := db.Persist(context.Background(), "t-old", older); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := db.Persist(context.Background(), "t-new", newer); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := db.ListRecent(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].TaskID != "t-new" {
		t.Errorf("expected newest first, got %+v", got)
	}
}
