package planner

import (
	"strings"
	"time"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// PlannedMeal is one meal of a day, with the ingredients it consumes.
type PlannedMeal struct {
	Name         string                     `json:"name"`
	MealType     string                     `json:"meal_type"`
	Instructions string                     `json:"instructions"`
	Calories     int                        `json:"calories"`
	SourceURL    string                     `json:"source_url,omitempty"`
	Ingredients  []shopping.IngredientUsage `json:"ingredients"`
}

// DayPlan represents the plan for a single day.
type DayPlan struct {
	Day   string        `json:"day"`
	Meals []PlannedMeal `json:"meals"`
}

// MealPlan represents a generated multi-day meal plan.
type MealPlan struct {
	ID        string          `json:"id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Request   string          `json:"request,omitempty"`
	Target    NutritionTarget `json:"target"`
	Days      []DayPlan       `json:"days"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
}

// Meals flattens the plan in day order, then meal order within each day.
func (p *MealPlan) Meals() []shopping.Meal {
	var meals []shopping.Meal
	for _, day := range p.Days {
		for _, m := range day.Meals {
			meals = append(meals, m.ShoppingMeal())
		}
	}
	return meals
}

// MealCount reports how many meals the plan holds.
func (p *MealPlan) MealCount() int {
	var n int
	for _, day := range p.Days {
		n += len(day.Meals)
	}
	return n
}

// ShoppingMeal converts the meal into the shape the list assembler consumes.
func (m PlannedMeal) ShoppingMeal() shopping.Meal {
	return shopping.Meal{
		Name:        m.Name,
		Ingredients: append([]shopping.IngredientUsage(nil), m.Ingredients...),
	}
}

// WithMeal returns an unsaved copy of the plan with meal appended to the named
// day. The day is added at the end when the plan does not have it yet.
func (p *MealPlan) WithMeal(day string, meal PlannedMeal) *MealPlan {
	next := &MealPlan{
		UserID:  p.UserID,
		Request: p.Request,
		Target:  p.Target,
		Days:    make([]DayPlan, 0, len(p.Days)+1),
	}

	found := false
	for _, d := range p.Days {
		meals := append([]PlannedMeal(nil), d.Meals...)
		if strings.EqualFold(d.Day, day) && !found {
			meals = append(meals, meal)
			found = true
		}
		next.Days = append(next.Days, DayPlan{Day: d.Day, Meals: meals})
	}
	if !found {
		next.Days = append(next.Days, DayPlan{Day: day, Meals: []PlannedMeal{meal}})
	}
	return next
}
