package planner

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

type mealPlanRow struct {
	ID        string
	UserID    string
	Request   string
	PlanJSON  string
	CreatedAt time.Time
}

const insertMealPlan = `
INSERT INTO meal_plans (id, user_id, request, plan_json, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *queries) InsertMealPlan(ctx context.Context, arg mealPlanRow) error {
	_, err := q.db.ExecContext(ctx, insertMealPlan, arg.ID, arg.UserID, arg.Request, arg.PlanJSON, arg.CreatedAt)
	return err
}

const getMealPlan = `
SELECT id, user_id, request, plan_json, created_at
FROM meal_plans
WHERE id = ? AND user_id = ?`

func (q *queries) GetMealPlan(ctx context.Context, id, userID string) (mealPlanRow, error) {
	var r mealPlanRow
	err := q.db.QueryRowContext(ctx, getMealPlan, id, userID).
		Scan(&r.ID, &r.UserID, &r.Request, &r.PlanJSON, &r.CreatedAt)
	return r, err
}

const listRecentMealPlansByUserID = `
SELECT id, user_id, request, plan_json, created_at
FROM meal_plans
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?`

func (q *queries) ListRecentMealPlansByUserID(ctx context.Context, userID string, limit int) ([]mealPlanRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentMealPlansByUserID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []mealPlanRow
	for rows.Next() {
		var r mealPlanRow
		if err := rows.Scan(&r.ID, &r.UserID, &r.Request, &r.PlanJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, r)
	}
	return plans, rows.Err()
}
