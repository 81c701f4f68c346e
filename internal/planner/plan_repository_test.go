package planner

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

func newTestRepo(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPlanRepository(db.SQL)
}

func samplePlan(userID string) *MealPlan {
	return &MealPlan{
		UserID:  userID,
		Request: "quick dinners",
		Target:  NutritionTarget{Calories: 2000, ProteinG: 150, CarbsG: 200, FatG: 67},
		Days: []DayPlan{
			{Day: "Monday", Meals: []PlannedMeal{{
				Name: "Chicken Stir Fry", MealType: "dinner", Calories: 650,
				Ingredients: []shopping.IngredientUsage{
					{Name: "chicken breast", Quantity: 0.5, Unit: "lb", Category: "Meat", EstimatedCost: decimal.RequireFromString("2.50")},
					{Name: "broccoli", Quantity: 6, Unit: "oz", Category: "Produce", EstimatedCost: decimal.RequireFromString("1.00")},
				},
			}}},
		},
	}
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	plan := samplePlan("user-1")
	require.NoError(t, repo.Save(ctx, plan))
	require.NotEmpty(t, plan.ID)

	t.Run("Get", func(t *testing.T) {
		got, err := repo.Get(ctx, "user-1", plan.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, plan.ID, got.ID)
		assert.Equal(t, "quick dinners", got.Request)
		assert.Equal(t, 2000, got.Target.Calories)
		require.Len(t, got.Days, 1)
		ing := got.Days[0].Meals[0].Ingredients[0]
		assert.Equal(t, "chicken breast", ing.Name)
		assert.True(t, decimal.RequireFromString("2.50").Equal(ing.EstimatedCost))
	})

	t.Run("GetOtherUser", func(t *testing.T) {
		got, err := repo.Get(ctx, "user-2", plan.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ListRecentByUserID", func(t *testing.T) {
		newer := samplePlan("user-1")
		newer.Request = "newer"
		newer.CreatedAt = plan.CreatedAt.Add(time.Minute)
		require.NoError(t, repo.Save(ctx, newer))
		require.NoError(t, repo.Save(ctx, samplePlan("user-2")))

		plans, err := repo.ListRecentByUserID(ctx, "user-1", 10)
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, "newer", plans[0].Request)

		latest, err := repo.Latest(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, latest.ID)

		none, err := repo.Latest(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("LoadMeals", func(t *testing.T) {
		meals, err := repo.LoadMeals(ctx, "user-1", plan.ID)
		require.NoError(t, err)
		require.Len(t, meals, 1)
		assert.Len(t, meals[0].Ingredients, 2)

		_, err = repo.LoadMeals(ctx, "user-2", plan.ID)
		assert.ErrorIs(t, err, shopping.ErrPlanNotFound)
	})

	t.Run("SaveRequiresUser", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, samplePlan("")))
	})
}
