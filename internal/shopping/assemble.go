package shopping

import (
	"github.com/shopspring/decimal"
)

// Assembler turns the meals of a plan into a priced shopping list.
// It holds no per-call state and may be shared between goroutines.
type Assembler struct {
	resolver PackageResolver
	policy   PackagingPolicy
}

// NewAssembler creates an Assembler. An empty policy means PolicyFirstUsage.
func NewAssembler(resolver PackageResolver, policy PackagingPolicy) *Assembler {
	if policy == "" {
		policy = PolicyFirstUsage
	}
	return &Assembler{resolver: resolver, policy: policy}
}

// Policy reports the packaging policy in effect.
func (a *Assembler) Policy() PackagingPolicy {
	return a.policy
}

// Assemble validates, flattens and consolidates the meals' ingredients into
// line items. The returned list has no ID, owner or timestamp; those belong
// to whoever persists it.
func (a *Assembler) Assemble(meals []Meal) (*ShoppingList, error) {
	if err := ValidateMeals(meals); err != nil {
		return nil, err
	}

	usages := Flatten(meals)
	if len(usages) == 0 {
		return nil, ErrNoPurchasableItems
	}

	consolidated := Consolidate(usages, a.resolver, a.policy)

	items := make([]LineItem, 0, len(consolidated))
	total := decimal.Zero
	for _, c := range consolidated {
		item := toLineItem(c)
		total = total.Add(item.EstimatedCost)
		items = append(items, item)
	}

	return &ShoppingList{Items: items, Total: total}, nil
}

// Flatten lists usages in meal order, then ingredient order within each meal.
func Flatten(meals []Meal) []IngredientUsage {
	var n int
	for _, m := range meals {
		n += len(m.Ingredients)
	}
	usages := make([]IngredientUsage, 0, n)
	for _, m := range meals {
		usages = append(usages, m.Ingredients...)
	}
	return usages
}

func toLineItem(c ConsolidatedIngredient) LineItem {
	if c.Packaging == nil {
		return LineItem{
			Name:          c.Name,
			Quantity:      c.TotalQuantity,
			Unit:          c.Unit,
			Category:      c.Category,
			EstimatedCost: c.EstimatedCost,
		}
	}
	return LineItem{
		Name:          c.Name,
		Quantity:      float64(c.Packaging.PackagesNeeded),
		Unit:          PackageUnit,
		Category:      c.Category,
		EstimatedCost: c.Packaging.TotalCost,
		PackagingNote: c.Packaging.Description,
	}
}
