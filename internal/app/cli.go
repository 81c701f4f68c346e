package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// cliUserID owns plans generated from the command line.
const cliUserID = "cli"

// PrintCatalog writes the pricing table in match order.
func (a *App) PrintCatalog(w io.Writer) {
	catalog := a.packager.Catalog()
	fmt.Fprintf(w, "Catalog %s (%d items, fallback $%s)\n\n", catalog.Version(), catalog.Len(), catalog.FallbackPrice().StringFixed(2))
	for _, e := range catalog.Entries() {
		fmt.Fprintf(w, "%-20s %-10s %-18s $%s\n", e.Name, e.Category, e.PackageDescription, e.UnitPrice.StringFixed(2))
	}
}

// ShopFromFile assembles a list from a JSON file without touching the
// database. The file holds either an array of meals or a meal plan.
func (a *App) ShopFromFile(path string, asJSON bool, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read meals file: %w", err)
	}

	meals, err := decodeMeals(data)
	if err != nil {
		return err
	}

	list, err := a.assembler.Assemble(meals)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	printShoppingList(w, list)
	return nil
}

func decodeMeals(data []byte) ([]shopping.Meal, error) {
	var meals []shopping.Meal
	if err := json.Unmarshal(data, &meals); err == nil {
		return meals, nil
	}

	var plan planner.MealPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("meals file must hold a JSON array of meals or a meal plan: %w", err)
	}
	return plan.Meals(), nil
}

// GenerateMealPlan creates a plan with the default profile, saves it, and
// prints it together with its shopping list.
func (a *App) GenerateMealPlan(ctx context.Context, request string, w io.Writer) error {
	if a.mealPlanner == nil {
		return fmt.Errorf("meal planning is not enabled")
	}
	fmt.Fprintf(w, "Generating meal plan for: %q...\n", request)

	profile := a.DefaultProfile()
	profile.UserID = cliUserID

	plan, meta, err := a.mealPlanner.GeneratePlan(ctx, profile, request)
	a.RecordAgent(ctx, meta)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	plan.UserID = cliUserID
	if err := a.planRepo.Save(ctx, plan); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	a.collector.MealPlanGenerated()
	a.logger.Info("meal plan saved", zap.String("meal_plan_id", plan.ID), zap.Int("meals", plan.MealCount()))

	printMealPlan(w, plan)

	list, err := a.shopping.GenerateForPlan(ctx, cliUserID, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to build shopping list: %w", err)
	}
	printShoppingList(w, list)
	return nil
}

func printMealPlan(w io.Writer, plan *planner.MealPlan) {
	fmt.Fprintf(w, "\n=== MEAL PLAN %s ===\n", plan.ID)
	fmt.Fprintf(w, "Target: %d kcal (P %dg / C %dg / F %dg)\n", plan.Target.Calories, plan.Target.ProteinG, plan.Target.CarbsG, plan.Target.FatG)
	for _, day := range plan.Days {
		fmt.Fprintf(w, "\n%s\n", day.Day)
		for _, m := range day.Meals {
			fmt.Fprintf(w, "  %-10s %s (%d kcal)\n", m.MealType, m.Name, m.Calories)
		}
	}
}

func printShoppingList(w io.Writer, list *shopping.ShoppingList) {
	fmt.Fprintln(w, "\n=== SHOPPING LIST ===")
	for _, item := range list.Items {
		amount := item.PackagingNote
		if amount == "" {
			amount = grocery.FormatQuantity(item.Quantity) + " " + item.Unit
		}
		fmt.Fprintf(w, "- %-24s %-26s $%s\n", item.Name, amount, item.EstimatedCost.StringFixed(2))
	}
	fmt.Fprintf(w, "\nTotal: $%s\n", list.Total.StringFixed(2))
}
