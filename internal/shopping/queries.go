package shopping

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
)

type queries struct {
	db database.DBTX
}

func newQueries(db database.DBTX) *queries {
	return &queries{db: db}
}

type listRow struct {
	ID         uuid.UUID
	UserID     string
	MealPlanID string
	Total      decimal.Decimal
	CreatedAt  time.Time
}

type itemRow struct {
	ID             uuid.UUID
	ShoppingListID uuid.UUID
	Position       int64
	Name           string
	Quantity       float64
	Unit           string
	Category       string
	EstimatedCost  decimal.Decimal
	Purchased      bool
	PackagingNote  string
}

const insertShoppingList = `
INSERT INTO shopping_lists (id, user_id, meal_plan_id, total, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *queries) InsertShoppingList(ctx context.Context, arg listRow) error {
	_, err := q.db.ExecContext(ctx, insertShoppingList, arg.ID, arg.UserID, arg.MealPlanID, arg.Total, arg.CreatedAt)
	return err
}

const insertShoppingListItem = `
INSERT INTO shopping_list_items (id, shopping_list_id, position, name, quantity, unit, category, estimated_cost, purchased, packaging_note)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) InsertShoppingListItem(ctx context.Context, arg itemRow) error {
	_, err := q.db.ExecContext(ctx, insertShoppingListItem,
		arg.ID, arg.ShoppingListID, arg.Position, arg.Name, arg.Quantity, arg.Unit,
		arg.Category, arg.EstimatedCost, arg.Purchased, arg.PackagingNote,
	)
	return err
}

const getShoppingList = `
SELECT id, user_id, meal_plan_id, total, created_at
FROM shopping_lists
WHERE id = ? AND user_id = ?`

func (q *queries) GetShoppingList(ctx context.Context, id uuid.UUID, userID string) (listRow, error) {
	var r listRow
	err := q.db.QueryRowContext(ctx, getShoppingList, id, userID).
		Scan(&r.ID, &r.UserID, &r.MealPlanID, &r.Total, &r.CreatedAt)
	return r, err
}

const getShoppingListByMealPlanID = `
SELECT id, user_id, meal_plan_id, total, created_at
FROM shopping_lists
WHERE meal_plan_id = ? AND user_id = ?
ORDER BY created_at DESC
LIMIT 1`

func (q *queries) GetShoppingListByMealPlanID(ctx context.Context, mealPlanID, userID string) (listRow, error) {
	var r listRow
	err := q.db.QueryRowContext(ctx, getShoppingListByMealPlanID, mealPlanID, userID).
		Scan(&r.ID, &r.UserID, &r.MealPlanID, &r.Total, &r.CreatedAt)
	return r, err
}

const listShoppingListItems = `
SELECT id, shopping_list_id, position, name, quantity, unit, category, estimated_cost, purchased, packaging_note
FROM shopping_list_items
WHERE shopping_list_id = ?
ORDER BY position`

func (q *queries) ListShoppingListItems(ctx context.Context, listID uuid.UUID) ([]itemRow, error) {
	rows, err := q.db.QueryContext(ctx, listShoppingListItems, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(
			&r.ID, &r.ShoppingListID, &r.Position, &r.Name, &r.Quantity, &r.Unit,
			&r.Category, &r.EstimatedCost, &r.Purchased, &r.PackagingNote,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const setItemPurchased = `
UPDATE shopping_list_items
SET purchased = ?
WHERE id = ?
  AND shopping_list_id = ?
  AND shopping_list_id IN (SELECT id FROM shopping_lists WHERE user_id = ?)`

func (q *queries) SetItemPurchased(ctx context.Context, listID, itemID uuid.UUID, userID string, purchased bool) (sql.Result, error) {
	return q.db.ExecContext(ctx, setItemPurchased, purchased, itemID, listID, userID)
}

const deleteShoppingListItemsByMealPlanID = `
DELETE FROM shopping_list_items
WHERE shopping_list_id IN (SELECT id FROM shopping_lists WHERE meal_plan_id = ?)`

const deleteShoppingListsByMealPlanID = `
DELETE FROM shopping_lists WHERE meal_plan_id = ?`

func (q *queries) DeleteShoppingListsByMealPlanID(ctx context.Context, mealPlanID string) (int64, error) {
	if _, err := q.db.ExecContext(ctx, deleteShoppingListItemsByMealPlanID, mealPlanID); err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, deleteShoppingListsByMealPlanID, mealPlanID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
