package shopping

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPurchasableItems is returned when there is nothing to put on a list.
	ErrNoPurchasableItems = errors.New("no purchasable items")
	// ErrPlanNotFound is returned when the requested meal plan does not exist for the user.
	ErrPlanNotFound = errors.New("meal plan not found")
	// ErrListNotFound is returned when a shopping list or line item does not exist for the user.
	ErrListNotFound = errors.New("shopping list not found")
)

// InvalidUsageError reports the first malformed ingredient usage found.
// MealIndex is -1 when the usage was not validated as part of a meal.
type InvalidUsageError struct {
	MealIndex  int
	UsageIndex int
	Name       string
	Field      string
	Reason     string
}

func (e *InvalidUsageError) Error() string {
	if e.MealIndex < 0 {
		return fmt.Sprintf("invalid ingredient usage %d (%q): %s %s", e.UsageIndex, e.Name, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid ingredient usage %d in meal %d (%q): %s %s", e.UsageIndex, e.MealIndex, e.Name, e.Field, e.Reason)
}
