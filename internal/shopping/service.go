package shopping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MealSource supplies the meals of a stored plan. It returns ErrPlanNotFound
// when the plan does not exist or belongs to another user.
type MealSource interface {
	LoadMeals(ctx context.Context, userID, planID string) ([]Meal, error)
}

// Service builds shopping lists for stored meal plans and persists them.
type Service struct {
	assembler   *Assembler
	repo        *Repository
	plans       MealSource
	logger      *zap.Logger
	onGenerated func(list *ShoppingList)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGeneratedHook registers a callback run after each list is saved.
func WithGeneratedHook(fn func(list *ShoppingList)) ServiceOption {
	return func(s *Service) {
		s.onGenerated = fn
	}
}

// NewService creates a shopping list service.
func NewService(assembler *Assembler, repo *Repository, plans MealSource, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		assembler: assembler,
		repo:      repo,
		plans:     plans,
		logger:    logger.Named("shopping"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateForPlan assembles and stores a fresh list for a plan, replacing any
// list previously generated for it.
func (s *Service) GenerateForPlan(ctx context.Context, userID, planID string) (*ShoppingList, error) {
	meals, err := s.plans.LoadMeals(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	list, err := s.assembler.Assemble(meals)
	if err != nil {
		s.logger.Warn("shopping list assembly rejected",
			zap.String("user_id", userID),
			zap.String("meal_plan_id", planID),
			zap.Error(err),
		)
		return nil, err
	}
	list.UserID = userID
	list.MealPlanID = planID

	if err := s.repo.ReplaceForMealPlan(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to save shopping list: %w", err)
	}

	s.logger.Info("shopping list generated",
		zap.String("user_id", userID),
		zap.String("meal_plan_id", planID),
		zap.String("shopping_list_id", list.ID.String()),
		zap.Int("items", len(list.Items)),
		zap.String("total", list.Total.StringFixed(2)),
		zap.String("policy", string(s.assembler.Policy())),
	)

	if s.onGenerated != nil {
		s.onGenerated(list)
	}
	return list, nil
}

// Get returns a user's list or ErrListNotFound.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*ShoppingList, error) {
	list, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}
	return list, nil
}

// LatestForPlan returns the list generated for a plan, or ErrListNotFound.
func (s *Service) LatestForPlan(ctx context.Context, userID, planID string) (*ShoppingList, error) {
	list, err := s.repo.GetByMealPlanID(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}
	return list, nil
}

// DeleteForPlan removes the user's list for a plan, or returns ErrListNotFound.
func (s *Service) DeleteForPlan(ctx context.Context, userID, planID string) error {
	if _, err := s.LatestForPlan(ctx, userID, planID); err != nil {
		return err
	}
	n, err := s.repo.DeleteByMealPlanID(ctx, planID)
	if err != nil {
		return err
	}
	s.logger.Info("shopping list deleted",
		zap.String("user_id", userID),
		zap.String("meal_plan_id", planID),
		zap.Int64("lists", n),
	)
	return nil
}

// SetItemPurchased marks one item and returns the updated list.
func (s *Service) SetItemPurchased(ctx context.Context, userID string, listID, itemID uuid.UUID, purchased bool) (*ShoppingList, error) {
	if err := s.repo.SetItemPurchased(ctx, userID, listID, itemID, purchased); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, listID)
}
