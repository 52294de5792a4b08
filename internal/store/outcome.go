package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/apexmind/swarm/pkg/models"
)

// Persist records the outcome under the given task ID. Re-persisting
// the same task ID overwrites the row, so identical calls converge on
// the same stored state.
func (db *DB) Persist(ctx context.Context, taskID string, outcome *models.TaskOutcome) error {
	output, err := json.Marshal(outcome.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	results, err := json.Marshal(outcome.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO outcomes (task_id, status, total, succeeded, failed, confidence, output, results, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			status = excluded.status,
			total = excluded.total,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			confidence = excluded.confidence,
			output = excluded.output,
			results = excluded.results,
			completed_at = excluded.completed_at
	`, taskID, string(outcome.Status), outcome.Total, outcome.Succeeded, outcome.Failed,
		outcome.Confidence, string(output), string(results), formatTime(outcome.CompletedAt))
	if err != nil {
		return fmt.Errorf("persist outcome: %w", err)
	}
	return nil
}

// GetOutcome retrieves a stored outcome by task ID.
// Returns nil if no outcome is stored for the task.
func (db *DB) GetOutcome(taskID string) (*models.TaskOutcome, error) {
	row := db.QueryRow(`
		SELECT task_id, status, total, succeeded, failed, confidence, output, results, completed_at
		FROM outcomes WHERE task_id = ?
	`, taskID)

	outcome, err := scanOutcome(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome: %w", err)
	}
	return outcome, nil
}

// ListRecent returns the most recently completed outcomes, newest first.
func (db *DB) ListRecent(limit int) ([]models.TaskOutcome, error) {
	rows, err := db.Query(`
		SELECT task_id, status, total, succeeded, failed, confidence, output, results, completed_at
		FROM outcomes ORDER BY completed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.TaskOutcome
	for rows.Next() {
		outcome, err := scanOutcome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, *outcome)
	}
	return outcomes, nil
}

// scanOutcome scans one outcome row via the given scan function.
func scanOutcome(scan func(...any) error) (*models.TaskOutcome, error) {
	var o models.TaskOutcome
	var status, completedAt string
	var output, results sql.NullString

	if err := scan(&o.TaskID, &status, &o.Total, &o.Succeeded, &o.Failed,
		&o.Confidence, &output, &results, &completedAt); err != nil {
		return nil, err
	}

	o.Status = models.OutcomeStatus(status)
	if output.Valid {
		if err := json.Unmarshal([]byte(output.String), &o.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
	}
	if results.Valid {
		if err := json.Unmarshal([]byte(results.String), &o.Results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
	}

	t, err := parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	o.CompletedAt = t
	return &o, nil
}
