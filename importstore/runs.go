package importstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/taxgraph/errors"
	"github.com/teranos/taxgraph/logger"
	"github.com/teranos/taxgraph/normalize"
)

// RunStatus is the outcome recorded for a normalization run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run is one row of the normalization journal.
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       RunStatus  `json:"status"`
	Nodes        int        `json:"nodes"`
	Placeholders int        `json:"placeholders"`
	Edges        int        `json:"edges"`
	Issues       int        `json:"issues"`
	Stats        string     `json:"stats"`
	Error        string     `json:"error,omitempty"`
}

// BeginRun journals the start of a normalization run and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO normalization_runs (id, started_at, status) VALUES (?, ?, ?)",
		id, time.Now().UTC(), string(RunRunning))
	if err != nil {
		return "", errors.Wrap(err, "begin normalization run")
	}
	s.log.Debugw("normalization run started", logger.FieldRunID, id)
	return id, nil
}

// FinishRun records the outcome of run id. A nil runErr marks it succeeded;
// cancellation is recorded separately from other failures.
func (s *Store) FinishRun(ctx context.Context, id string, res *normalize.Result, runErr error) error {
	status := RunSucceeded
	errText := ""
	switch {
	case runErr != nil && errors.IsCancelled(runErr):
		status, errText = RunCancelled, runErr.Error()
	case runErr != nil:
		status, errText = RunFailed, runErr.Error()
	}

	var nodes, placeholders, edges, issues int
	stats := "{}"
	if res != nil {
		nodes, placeholders, edges, issues = res.Nodes, res.Placeholders, res.Edges, res.IssueTotal()
		b, err := json.Marshal(res)
		if err != nil {
			return errors.Wrap(err, "encode run stats")
		}
		stats = string(b)
	}

	// a cancelled context still needs its journal row closed
	result, err := s.db.ExecContext(context.WithoutCancel(ctx), `
		UPDATE normalization_runs
		SET finished_at = ?, status = ?, nodes = ?, placeholders = ?, edges = ?, issues = ?, stats = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC(), string(status), nodes, placeholders, edges, issues, stats, errText, id)
	if err != nil {
		return errors.Wrapf(err, "finish run %s", id)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("normalization run %s", id)
	}

	s.log.Infow("normalization run recorded",
		logger.FieldRunID, id,
		"status", string(status))
	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, nodes, placeholders, edges, issues, stats, error
		FROM normalization_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			finished sql.NullTime
			status   string
		)
		if err := rows.Scan(&r.ID, &r.StartedAt, &finished, &status, &r.Nodes, &r.Placeholders,
			&r.Edges, &r.Issues, &r.Stats, &r.Error); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		r.Status = RunStatus(status)
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "iterate runs")
}
