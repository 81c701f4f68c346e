package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/clipper"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// respondError maps domain errors onto status codes. Anything unrecognized is
// logged and reported as a 500 without details.
func (s *Server) respondError(c *gin.Context, err error) {
	var invalid *shopping.InvalidUsageError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "invalid ingredient usage",
			"details": gin.H{
				"meal_index":  invalid.MealIndex,
				"usage_index": invalid.UsageIndex,
				"name":        invalid.Name,
				"field":       invalid.Field,
				"reason":      invalid.Reason,
			},
		})
	case errors.Is(err, shopping.ErrNoPurchasableItems),
		errors.Is(err, clipper.ErrNoIngredients):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, shopping.ErrPlanNotFound),
		errors.Is(err, shopping.ErrListNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrEmptyPlan):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
