// Package worker provides WorkerExecutor bindings for the dispatch core.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/apexmind/swarm/internal/dispatch"
	"github.com/apexmind/swarm/pkg/models"
)

// HTTPConfig configures an HTTPExecutor.
type HTTPConfig struct {
	// Endpoint is the base URL of the worker service.
	Endpoint string
	// Timeout bounds a single execution request. Zero means 15s.
	Timeout time.Duration
	// MaxRetries is how many times a timed-out or 5xx request is
	// retried. Retries live here, not in the dispatcher.
	MaxRetries int
	// Backoff is the pause between retries.
	Backoff time.Duration
}

// HTTPExecutor executes subtasks by POSTing them to a worker service.
type HTTPExecutor struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPExecutor creates an executor for the given config.
func NewHTTPExecutor(cfg HTTPConfig) *HTTPExecutor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPExecutor{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// workerResponse is what the worker service returns for a subtask.
type workerResponse struct {
	Status        string         `json:"status"`
	Payload       map[string]any `json:"payload,omitempty"`
	Quality       float64        `json:"quality"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// Execute POSTs the subtask and converts the response into a
// WorkerResult. Timeouts surface as WorkerTimeoutError and connection
// failures or 5xx responses as WorkerUnavailableError; both are retried
// up to MaxRetries.
func (e *HTTPExecutor) Execute(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.cfg.Backoff):
			case <-ctx.Done():
				return models.WorkerResult{}, &dispatch.WorkerTimeoutError{WorkerID: sub.WorkerID}
			}
		}

		res, err := e.doExecute(ctx, sub)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if !retriable(err) {
			return models.WorkerResult{}, err
		}
	}
	return models.WorkerResult{}, lastErr
}

// retriable reports whether an execution error is worth another attempt.
func retriable(err error) bool {
	var timeout *dispatch.WorkerTimeoutError
	var unavailable *dispatch.WorkerUnavailableError
	return errors.As(err, &timeout) || errors.As(err, &unavailable)
}

// doExecute performs a single request.
func (e *HTTPExecutor) doExecute(ctx context.Context, sub models.Subtask) (models.WorkerResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return models.WorkerResult{}, fmt.Errorf("marshal subtask: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint+"/subtasks", bytes.NewReader(body))
	if err != nil {
		return models.WorkerResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return models.WorkerResult{}, &dispatch.WorkerTimeoutError{WorkerID: sub.WorkerID}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return models.WorkerResult{}, &dispatch.WorkerTimeoutError{WorkerID: sub.WorkerID}
		}
		return models.WorkerResult{}, &dispatch.WorkerUnavailableError{WorkerID: sub.WorkerID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return models.WorkerResult{}, &dispatch.WorkerUnavailableError{
			WorkerID: sub.WorkerID,
			Err:      fmt.Errorf("worker service returned %s", resp.Status),
		}
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.WorkerResult{}, fmt.Errorf("worker service rejected subtask: %s: %s", resp.Status, snippet)
	}

	var wr workerResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return models.WorkerResult{}, fmt.Errorf("decode worker response: %w", err)
	}

	result := models.WorkerResult{
		WorkerID:      sub.WorkerID,
		Status:        models.SubtaskSucceeded,
		Payload:       wr.Payload,
		Quality:       wr.Quality,
		FailureReason: wr.FailureReason,
		Timestamp:     time.Now().UTC(),
	}
	if wr.Status == "failed" {
		result.Status = models.SubtaskFailed
		result.Payload = nil
		result.Quality = 0
	}
	return result, nil
}
