package shopping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
)

// PackageUnit is the unit reported on line items that were mapped onto catalog packages.
const PackageUnit = "package"

// IngredientUsage is one ingredient as consumed by one meal.
type IngredientUsage struct {
	Name          string          `json:"name" validate:"nonblank"`
	Quantity      float64         `json:"quantity" validate:"gt=0,finite"`
	Unit          string          `json:"unit"`
	Category      string          `json:"category"`
	EstimatedCost decimal.Decimal `json:"estimated_cost" validate:"gte=0"`
}

// Meal is a named meal already expanded into its ingredient usages.
type Meal struct {
	Name        string            `json:"name"`
	Ingredients []IngredientUsage `json:"ingredients"`
}

// ConsolidatedIngredient aggregates every usage sharing a name and unit.
type ConsolidatedIngredient struct {
	Name          string                   `json:"name"`
	TotalQuantity float64                  `json:"total_quantity"`
	Unit          string                   `json:"unit"`
	Category      string                   `json:"category"`
	EstimatedCost decimal.Decimal          `json:"estimated_cost"`
	Packaging     *grocery.PackagingResult `json:"packaging,omitempty"`
}

// LineItem is a purchasable row of a shopping list.
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Quantity      float64         `json:"quantity"`
	Unit          string          `json:"unit"`
	Category      string          `json:"category"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	Purchased     bool            `json:"purchased"`
	PackagingNote string          `json:"packaging_note,omitempty"`
}

// ShoppingList represents a shopping list for a meal plan.
type ShoppingList struct {
	ID         uuid.UUID       `json:"id"`
	UserID     string          `json:"user_id"`
	MealPlanID string          `json:"meal_plan_id,omitempty"`
	Items      []LineItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RemainingCost sums the items not yet marked as purchased.
func (l *ShoppingList) RemainingCost() decimal.Decimal {
	remaining := decimal.Zero
	for _, item := range l.Items {
		if !item.Purchased {
			remaining = remaining.Add(item.EstimatedCost)
		}
	}
	return remaining
}
