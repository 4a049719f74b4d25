// Package metrics persists per-stage pipeline telemetry to SQLite and
// exposes the aggregates the admin surfaces report.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ai-trip-planner/internal/shared"
)

// StageMetric records one pipeline stage execution.
type StageMetric struct {
	Stage            string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	Success          bool
	Timestamp        time.Time
}

// Store handles persistence of stage metrics.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric.
func (s *Store) Record(ctx context.Context, m StageMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_metrics (stage, model, prompt_tokens, completion_tokens, latency_ms, success, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Stage, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, m.Success, ts.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording stage metric for %q: %w", m.Stage, err)
	}
	return nil
}

// RecordMeta records a metric directly from a stage's shared.StageMeta.
// Stages that consumed no tokens (pure computation) are still recorded so
// latency and failure rates stay complete.
func (s *Store) RecordMeta(ctx context.Context, meta shared.StageMeta) error {
	return s.Record(ctx, StageMetric{
		Stage:            meta.Stage,
		Model:            meta.Usage.Model,
		PromptTokens:     meta.Usage.PromptTokens,
		CompletionTokens: meta.Usage.CompletionTokens,
		LatencyMS:        meta.Latency.Milliseconds(),
		Success:          meta.Success,
	})
}

// DailyUsage represents token totals for a single day.
type DailyUsage struct {
	Date            string
	TotalPrompt     int
	TotalCompletion int
	TotalExecutions int
}

// GetDailyUsage retrieves usage aggregates for the last N days.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(timestamp) AS day,
		       COALESCE(SUM(prompt_tokens), 0),
		       COALESCE(SUM(completion_tokens), 0),
		       COUNT(*)
		FROM stage_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("querying daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var u DailyUsage
		if err := rows.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecutions); err != nil {
			return nil, fmt.Errorf("scanning daily usage row: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

// StageStats aggregates latency and failure counts per stage.
type StageStats struct {
	Stage        string
	Executions   int
	Failures     int
	AvgLatencyMS float64
	TotalTokens  int
}

// GetStageStats retrieves per-stage aggregates for the last N days.
func (s *Store) GetStageStats(ctx context.Context, days int) ([]StageStats, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339Nano)
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(latency_ms), 0),
		       COALESCE(SUM(prompt_tokens + completion_tokens), 0)
		FROM stage_metrics
		WHERE timestamp >= ?
		GROUP BY stage
		ORDER BY stage`, since)
	if err != nil {
		return nil, fmt.Errorf("querying stage stats: %w", err)
	}
	defer rows.Close()

	var results []StageStats
	for rows.Next() {
		var st StageStats
		if err := rows.Scan(&st.Stage, &st.Executions, &st.Failures, &st.AvgLatencyMS, &st.TotalTokens); err != nil {
			return nil, fmt.Errorf("scanning stage stats row: %w", err)
		}
		results = append(results, st)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// reports how many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM stage_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleaning up stage metrics: %w", err)
	}
	return res.RowsAffected()
}
