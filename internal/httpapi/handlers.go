package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

const defaultClipDay = "Extras"

type createMealPlanRequest struct {
	Profile planner.DietaryProfile `json:"profile"`
	Request string                 `json:"request" binding:"required"`
}

type adjustMealPlanRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

type clipRequest struct {
	URL string `json:"url" binding:"required,url"`
	Day string `json:"day"`
}

type setPurchasedRequest struct {
	Purchased *bool `json:"purchased" binding:"required"`
}

type shoppingListResponse struct {
	*shopping.ShoppingList
	RemainingCost decimal.Decimal `json:"remaining_cost"`
}

func newShoppingListResponse(list *shopping.ShoppingList) shoppingListResponse {
	return shoppingListResponse{ShoppingList: list, RemainingCost: list.RemainingCost()}
}

// POST /v1/meal-plans
func (s *Server) createMealPlan(c *gin.Context) {
	if s.deps.Planner == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "meal planning is not enabled"})
		return
	}
	var req createMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Profile.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUser(c)
	req.Profile.UserID = userID

	plan, meta, err := s.deps.Planner.GeneratePlan(c.Request.Context(), req.Profile, req.Request)
	s.observe(c.Request.Context(), meta)
	if err != nil {
		s.respondError(c, err)
		return
	}

	plan.UserID = userID
	if err := s.deps.Plans.Save(c.Request.Context(), plan); err != nil {
		s.respondError(c, err)
		return
	}
	if s.deps.Collector != nil {
		s.deps.Collector.MealPlanGenerated()
	}

	c.JSON(http.StatusCreated, plan)
}

// GET /v1/meal-plans/:id
func (s *Server) getMealPlan(c *gin.Context) {
	plan, ok := s.loadPlan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, plan)
}

// POST /v1/meal-plans/:id/adjustments
func (s *Server) adjustMealPlan(c *gin.Context) {
	if s.deps.Planner == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "meal planning is not enabled"})
		return
	}
	var req adjustMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feedback is required"})
		return
	}

	current, ok := s.loadPlan(c)
	if !ok {
		return
	}

	revised, meta, err := s.deps.Planner.AdjustPlan(c.Request.Context(), current, req.Feedback)
	s.observe(c.Request.Context(), meta)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.savePlan(c, revised)
}

// POST /v1/meal-plans/:id/clips
func (s *Server) clipIntoMealPlan(c *gin.Context) {
	if s.deps.Clipper == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "recipe import is not enabled"})
		return
	}

	var req clipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid url is required"})
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be http or https"})
		return
	}

	current, ok := s.loadPlan(c)
	if !ok {
		return
	}

	meal, meta, err := s.deps.Clipper.ClipURL(c.Request.Context(), req.URL)
	s.observe(c.Request.Context(), meta)
	if err != nil {
		s.respondError(c, err)
		return
	}

	day := strings.TrimSpace(req.Day)
	if day == "" {
		day = defaultClipDay
	}
	s.savePlan(c, current.WithMeal(day, *meal))
}

// POST /v1/meal-plans/:id/shopping-list
func (s *Server) generateShoppingList(c *gin.Context) {
	list, err := s.deps.Shopping.GenerateForPlan(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newShoppingListResponse(list))
}

// GET /v1/meal-plans/:id/shopping-list
func (s *Server) latestShoppingList(c *gin.Context) {
	list, err := s.deps.Shopping.LatestForPlan(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

// DELETE /v1/meal-plans/:id/shopping-list
func (s *Server) deleteShoppingList(c *gin.Context) {
	if err := s.deps.Shopping.DeleteForPlan(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/shopping-lists/:id
func (s *Server) getShoppingList(c *gin.Context) {
	listID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	list, err := s.deps.Shopping.Get(c.Request.Context(), currentUser(c), listID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

// PATCH /v1/shopping-lists/:id/items/:itemID
func (s *Server) setItemPurchased(c *gin.Context) {
	listID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseUUIDParam(c, "itemID")
	if !ok {
		return
	}

	var req setPurchasedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchased is required"})
		return
	}

	list, err := s.deps.Shopping.SetItemPurchased(c.Request.Context(), currentUser(c), listID, itemID, *req.Purchased)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newShoppingListResponse(list))
}

func (s *Server) loadPlan(c *gin.Context) (*planner.MealPlan, bool) {
	plan, err := s.deps.Plans.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return nil, false
	}
	if plan == nil {
		s.respondError(c, shopping.ErrPlanNotFound)
		return nil, false
	}
	return plan, true
}

func (s *Server) savePlan(c *gin.Context, plan *planner.MealPlan) {
	plan.UserID = currentUser(c)
	if err := s.deps.Plans.Save(c.Request.Context(), plan); err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("meal plan saved",
		zap.String("user_id", plan.UserID),
		zap.String("meal_plan_id", plan.ID),
		zap.Int("meals", plan.MealCount()),
	)
	c.JSON(http.StatusCreated, plan)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

