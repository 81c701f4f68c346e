package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
)

type queries struct {
	db database.DBTX
}

func newQueries(db database.DBTX) *queries {
	return &queries{db: db}
}

const insertExecutionMetric = `
INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, timestamp)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *queries) InsertExecutionMetric(ctx context.Context, m ExecutionMetric) error {
	_, err := q.db.ExecContext(ctx, insertExecutionMetric,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, m.Timestamp)
	return err
}

// Timestamps are written as "YYYY-MM-DD HH:MM:SS...", so the first ten
// characters are the calendar day.
const getDailyUsage = `
SELECT substr(timestamp, 1, 10) AS day,
       COUNT(*),
       SUM(prompt_tokens),
       SUM(completion_tokens),
       AVG(latency_ms)
FROM execution_metrics
WHERE timestamp >= ?
GROUP BY day
ORDER BY day DESC`

type dailyUsageRow struct {
	Day             string
	Count           int64
	PromptTokens    sql.NullInt64
	CompletionToken sql.NullInt64
	AvgLatencyMS    sql.NullFloat64
}

func (q *queries) GetDailyUsage(ctx context.Context, since time.Time) ([]dailyUsageRow, error) {
	rows, err := q.db.QueryContext(ctx, getDailyUsage, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []dailyUsageRow
	for rows.Next() {
		var r dailyUsageRow
		if err := rows.Scan(&r.Day, &r.Count, &r.PromptTokens, &r.CompletionToken, &r.AvgLatencyMS); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const cleanupExecutionMetrics = `
DELETE FROM execution_metrics WHERE timestamp < ?`

func (q *queries) CleanupExecutionMetrics(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, cleanupExecutionMetrics, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
