// Package memorybank persists task outcomes to a remote memory service
// over HTTP. It is a best-effort ResultStore binding: a failed upload is
// reported to the caller and never invalidates the computed outcome.
package memorybank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apexmind/swarm/pkg/models"
)

// defaultTimeout bounds a single upload attempt.
const defaultTimeout = 15 * time.Second

// Client uploads outcome documents to a memory service.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// New creates a memory-bank client for the given endpoint and API key.
func New(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// document is the uploaded representation of a task outcome.
type document struct {
	TaskID        string         `json:"task_id"`
	ResultSummary map[string]any `json:"result_summary"`
	Metrics       docMetrics     `json:"cognitive_metrics"`
	Timestamp     time.Time      `json:"timestamp"`
}

// docMetrics summarizes the outcome for retrieval-time ranking.
type docMetrics struct {
	Confidence  float64 `json:"confidence"`
	WorkerCount int     `json:"worker_count"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
}

// uploadRequest is the wire envelope the documents endpoint expects.
// The custom ID keys the document by task, so re-uploads of the same
// task converge on one stored document.
type uploadRequest struct {
	Content  string `json:"content"`
	CustomID string `json:"customId"`
}

// Persist uploads the outcome as a memory document keyed by task ID.
func (c *Client) Persist(ctx context.Context, taskID string, outcome *models.TaskOutcome) error {
	if c.apiKey == "" {
		return fmt.Errorf("memory bank: API key not configured")
	}

	doc := document{
		TaskID:        taskID,
		ResultSummary: outcome.Output,
		Metrics: docMetrics{
			Confidence:  outcome.Confidence,
			WorkerCount: outcome.Total,
			Succeeded:   outcome.Succeeded,
			Failed:      outcome.Failed,
		},
		Timestamp: outcome.CompletedAt,
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal memory document: %w", err)
	}

	body, err := json.Marshal(uploadRequest{
		Content:  string(content),
		CustomID: taskID,
	})
	if err != nil {
		return fmt.Errorf("marshal upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/documents", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload memory document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("memory bank returned %s: %s", resp.Status, snippet)
	}

	return nil
}
