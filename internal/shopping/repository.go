package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	queries *queries
	db      *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: newQueries(d),
		db:      d,
	}
}

// Save stores a list and its items in one transaction. Missing identifiers
// and the creation time are filled in on the passed list.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) error {
	prepareForInsert(list)
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertList(ctx, newQueries(tx), list)
	})
}

// ReplaceForMealPlan deletes the lists built for list.MealPlanID and stores
// list in their place. Both happen in one transaction, so a failed insert
// leaves the previous list untouched.
func (r *Repository) ReplaceForMealPlan(ctx context.Context, list *ShoppingList) error {
	prepareForInsert(list)
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		q := newQueries(tx)
		if _, err := q.DeleteShoppingListsByMealPlanID(ctx, list.MealPlanID); err != nil {
			return fmt.Errorf("failed to delete previous shopping lists: %w", err)
		}
		return insertList(ctx, q, list)
	})
}

func prepareForInsert(list *ShoppingList) {
	if list.ID == uuid.Nil {
		list.ID = uuid.New()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}
	for i := range list.Items {
		if list.Items[i].ID == uuid.Nil {
			list.Items[i].ID = uuid.New()
		}
	}
}

func insertList(ctx context.Context, q *queries, list *ShoppingList) error {
	if err := q.InsertShoppingList(ctx, listRow{
		ID:         list.ID,
		UserID:     list.UserID,
		MealPlanID: list.MealPlanID,
		Total:      list.Total,
		CreatedAt:  list.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to insert shopping list: %w", err)
	}

	for i, item := range list.Items {
		if err := q.InsertShoppingListItem(ctx, itemRow{
			ID:             item.ID,
			ShoppingListID: list.ID,
			Position:       int64(i),
			Name:           item.Name,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			Category:       item.Category,
			EstimatedCost:  item.EstimatedCost,
			Purchased:      item.Purchased,
			PackagingNote:  item.PackagingNote,
		}); err != nil {
			return fmt.Errorf("failed to insert shopping list item %q: %w", item.Name, err)
		}
	}
	return nil
}

// Get retrieves a user's shopping list by ID.
func (r *Repository) Get(ctx context.Context, userID string, id uuid.UUID) (*ShoppingList, error) {
	row, err := r.queries.GetShoppingList(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	return r.hydrate(ctx, row)
}

// GetByMealPlanID retrieves the most recent shopping list built for a meal plan.
func (r *Repository) GetByMealPlanID(ctx context.Context, userID, mealPlanID string) (*ShoppingList, error) {
	row, err := r.queries.GetShoppingListByMealPlanID(ctx, mealPlanID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list by meal plan ID: %w", err)
	}
	return r.hydrate(ctx, row)
}

// SetItemPurchased flips the purchased flag of one item of a user's list.
func (r *Repository) SetItemPurchased(ctx context.Context, userID string, listID, itemID uuid.UUID, purchased bool) error {
	res, err := r.queries.SetItemPurchased(ctx, listID, itemID, userID, purchased)
	if err != nil {
		return fmt.Errorf("failed to update shopping list item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrListNotFound
	}
	return nil
}

// DeleteByMealPlanID deletes every shopping list built for a meal plan.
func (r *Repository) DeleteByMealPlanID(ctx context.Context, mealPlanID string) (int64, error) {
	var deleted int64
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		n, err := newQueries(tx).DeleteShoppingListsByMealPlanID(ctx, mealPlanID)
		deleted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete shopping lists: %w", err)
	}
	return deleted, nil
}

func (r *Repository) hydrate(ctx context.Context, row listRow) (*ShoppingList, error) {
	itemRows, err := r.queries.ListShoppingListItems(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping list items: %w", err)
	}

	items := make([]LineItem, 0, len(itemRows))
	for _, ir := range itemRows {
		items = append(items, LineItem{
			ID:            ir.ID,
			Name:          ir.Name,
			Quantity:      ir.Quantity,
			Unit:          ir.Unit,
			Category:      ir.Category,
			EstimatedCost: ir.EstimatedCost,
			Purchased:     ir.Purchased,
			PackagingNote: ir.PackagingNote,
		})
	}

	return &ShoppingList{
		ID:         row.ID,
		UserID:     row.UserID,
		MealPlanID: row.MealPlanID,
		Items:      items,
		Total:      row.Total,
		CreatedAt:  row.CreatedAt,
	}, nil
}
