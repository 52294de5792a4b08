package memorybank

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

func testOutcome() *models.TaskOutcome {
	return &models.TaskOutcome{
		TaskID:      "t1",
		Status:      models.OutcomeSucceeded,
		Total:       3,
		Succeeded:   3,
		Output:      map[string]any{"summary": "done"},
		Confidence:  0.9,
		CompletedAt: time.Now().UTC(),
	}
}

func TestPersistUploadsDocument(t *testing.T) {
	var gotAuth string
	var gotReq uploadRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/documents" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("unmarshal request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	if err := client.Persist(context.Background(), "t1", testOutcome()); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if gotAuth != "Bearer secret-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.CustomID != "t1" {
		t.Errorf("expected custom ID t1, got %q", gotReq.CustomID)
	}

	var doc document
	if err := json.Unmarshal([]byte(gotReq.Content), &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if doc.TaskID != "t1" || doc.Metrics.WorkerCount != 3 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestPersistServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "secret-key")
	if err := client.Persist(context.Background(), "t1", testOutcome()); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}

func TestPersistRequiresAPIKey(t *testing.T) {
	client := New("http://localhost:1", "")
	if err := client.Persist(context.Background(), "t1", testOutcome()); err == nil {
		t.Fatal("expected error without API key")
	}
}
