package telegram

import (
	"context"
	"time"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
)

type queries struct {
	db database.DBTX
}

func newQueries(db database.DBTX) *queries {
	return &queries{db: db}
}

type sessionRow struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

const createSession = `
INSERT INTO telegram_sessions (user_id, session_type, state, context_data, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *queries) CreateSession(ctx context.Context, arg sessionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createSession,
		arg.UserID, arg.SessionType, arg.State, arg.ContextData, arg.ExpiresAt, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getActiveSession = `
SELECT id, user_id, session_type, state, context_data, expires_at, created_at
FROM telegram_sessions
WHERE user_id = ? AND expires_at > ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

func (q *queries) GetActiveSession(ctx context.Context, userID string, now time.Time) (sessionRow, error) {
	var r sessionRow
	err := q.db.QueryRowContext(ctx, getActiveSession, userID, now).Scan(
		&r.ID, &r.UserID, &r.SessionType, &r.State, &r.ContextData, &r.ExpiresAt, &r.CreatedAt)
	return r, err
}

const updateSession = `
UPDATE telegram_sessions SET state = ?, context_data = ? WHERE id = ?`

func (q *queries) UpdateSession(ctx context.Context, id int64, state, contextData string) error {
	_, err := q.db.ExecContext(ctx, updateSession, state, contextData, id)
	return err
}

const deleteSession = `DELETE FROM telegram_sessions WHERE id = ?`

func (q *queries) DeleteSession(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteSession, id)
	return err
}

const deleteUserSessions = `DELETE FROM telegram_sessions WHERE user_id = ?`

func (q *queries) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserSessions, userID)
	return err
}

const cleanupExpiredSessions = `DELETE FROM telegram_sessions WHERE expires_at <= ?`

func (q *queries) CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, cleanupExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
