package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/metrics"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// PlanGenerator produces and revises meal plans.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile planner.DietaryProfile, request string) (*planner.MealPlan, shared.AgentMeta, error)
	AdjustPlan(ctx context.Context, current *planner.MealPlan, feedback string) (*planner.MealPlan, shared.AgentMeta, error)
}

// PlanStore persists meal plans. Get returns nil when the plan is unknown.
type PlanStore interface {
	Save(ctx context.Context, plan *planner.MealPlan) error
	Get(ctx context.Context, userID, id string) (*planner.MealPlan, error)
}

// RecipeClipper turns a recipe URL into a meal.
type RecipeClipper interface {
	ClipURL(ctx context.Context, url string) (*planner.PlannedMeal, shared.AgentMeta, error)
}

// ShoppingLists is the shopping list service.
type ShoppingLists interface {
	GenerateForPlan(ctx context.Context, userID, planID string) (*shopping.ShoppingList, error)
	LatestForPlan(ctx context.Context, userID, planID string) (*shopping.ShoppingList, error)
	DeleteForPlan(ctx context.Context, userID, planID string) error
	Get(ctx context.Context, userID string, id uuid.UUID) (*shopping.ShoppingList, error)
	SetItemPurchased(ctx context.Context, userID string, listID, itemID uuid.UUID, purchased bool) (*shopping.ShoppingList, error)
}

// Deps groups the collaborators of the HTTP server. Clipper and OnAgent are
// optional.
type Deps struct {
	Planner   PlanGenerator
	Plans     PlanStore
	Clipper   RecipeClipper
	Shopping  ShoppingLists
	Auth      *Authenticator
	Collector *metrics.Collector
	OnAgent   func(ctx context.Context, meta shared.AgentMeta)
}

// Server exposes meal plans and shopping lists over HTTP.
type Server struct {
	deps   Deps
	logger *zap.Logger
	router *gin.Engine
}

// NewServer builds the gin engine and registers all routes.
func NewServer(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		deps:   deps,
		logger: logger.Named("httpapi"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if s.deps.Collector != nil {
		r.Use(s.deps.Collector.GinMiddleware())
		r.GET("/metrics", gin.WrapH(s.deps.Collector.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1", s.deps.Auth.Middleware())
	v1.POST("/meal-plans", s.createMealPlan)
	v1.GET("/meal-plans/:id", s.getMealPlan)
	v1.POST("/meal-plans/:id/adjustments", s.adjustMealPlan)
	v1.POST("/meal-plans/:id/clips", s.clipIntoMealPlan)
	v1.POST("/meal-plans/:id/shopping-list", s.generateShoppingList)
	v1.GET("/meal-plans/:id/shopping-list", s.latestShoppingList)
	v1.DELETE("/meal-plans/:id/shopping-list", s.deleteShoppingList)
	v1.GET("/shopping-lists/:id", s.getShoppingList)
	v1.PATCH("/shopping-lists/:id/items/:itemID", s.setItemPurchased)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) observe(ctx context.Context, meta shared.AgentMeta) {
	if s.deps.OnAgent != nil {
		s.deps.OnAgent(ctx, meta)
	}
}
