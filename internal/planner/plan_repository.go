package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// storedPlan is the JSON document kept in meal_plans.plan_json.
type storedPlan struct {
	Target NutritionTarget `json:"target"`
	Days   []DayPlan       `json:"days"`
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	queries *queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: newQueries(d),
		db:      d,
	}
}

// Save inserts a new meal plan, assigning its ID and creation time.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) error {
	if plan.UserID == "" {
		return fmt.Errorf("meal plan has no user")
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(storedPlan{Target: plan.Target, Days: plan.Days})
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	if err := r.queries.InsertMealPlan(ctx, mealPlanRow{
		ID:        plan.ID,
		UserID:    plan.UserID,
		Request:   plan.Request,
		PlanJSON:  string(data),
		CreatedAt: plan.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return nil
}

// Get retrieves a user's meal plan by ID.
func (r *PlanRepository) Get(ctx context.Context, userID, id string) (*MealPlan, error) {
	row, err := r.queries.GetMealPlan(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No meal plan found
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	return decodePlan(row)
}

// ListRecentByUserID retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]*MealPlan, error) {
	rows, err := r.queries.ListRecentMealPlansByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}

	plans := make([]*MealPlan, 0, len(rows))
	for _, row := range rows {
		plan, err := decodePlan(row)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Latest returns the user's most recent plan, or nil if there is none.
func (r *PlanRepository) Latest(ctx context.Context, userID string) (*MealPlan, error) {
	plans, err := r.ListRecentByUserID(ctx, userID, 1)
	if err != nil || len(plans) == 0 {
		return nil, err
	}
	return plans[0], nil
}

// LoadMeals feeds a stored plan to the shopping list service.
func (r *PlanRepository) LoadMeals(ctx context.Context, userID, planID string) ([]shopping.Meal, error) {
	plan, err := r.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, shopping.ErrPlanNotFound
	}
	return plan.Meals(), nil
}

func decodePlan(row mealPlanRow) (*MealPlan, error) {
	var doc storedPlan
	if err := json.Unmarshal([]byte(row.PlanJSON), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan %s: %w", row.ID, err)
	}
	return &MealPlan{
		ID:        row.ID,
		UserID:    row.UserID,
		Request:   row.Request,
		Target:    doc.Target,
		Days:      doc.Days,
		CreatedAt: row.CreatedAt,
	}, nil
}
