package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
)

// Collector handles Prometheus metrics collection
type Collector struct {
	registry *prometheus.Registry

	shoppingListsGenerated prometheus.Counter
	shoppingListTotal      prometheus.Histogram
	shoppingListItems      prometheus.Histogram
	catalogLookups         *prometheus.CounterVec
	mealPlansGenerated     prometheus.Counter
	llmTokens              *prometheus.CounterVec
	llmLatency             *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector registers all metrics on a fresh registry, alongside the Go
// runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		shoppingListsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "shopping_lists_generated_total",
			Help: "Total number of shopping lists generated",
		}),
		shoppingListTotal: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopping_list_total_dollars",
			Help:    "Estimated cost of generated shopping lists in US dollars",
			Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300},
		}),
		shoppingListItems: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopping_list_items",
			Help:    "Number of line items per generated shopping list",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		}),
		catalogLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Catalog lookups by outcome",
		}, []string{"result"}),
		mealPlansGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "meal_plans_generated_total",
			Help: "Total number of meal plans generated",
		}),
		llmTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by LLM calls",
		}, []string{"agent", "model", "kind"}),
		llmLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"agent"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// CatalogLookup counts one catalog match attempt.
func (c *Collector) CatalogLookup(matched bool) {
	result := "miss"
	if matched {
		result = "hit"
	}
	c.catalogLookups.WithLabelValues(result).Inc()
}

// ShoppingListGenerated records a saved shopping list.
func (c *Collector) ShoppingListGenerated(items int, total decimal.Decimal) {
	c.shoppingListsGenerated.Inc()
	c.shoppingListItems.Observe(float64(items))
	c.shoppingListTotal.Observe(total.InexactFloat64())
}

// MealPlanGenerated counts a generated plan.
func (c *Collector) MealPlanGenerated() {
	c.mealPlansGenerated.Inc()
}

// ObserveAgent records token usage and latency of one LLM call.
func (c *Collector) ObserveAgent(meta shared.AgentMeta) {
	c.llmTokens.WithLabelValues(meta.AgentName, meta.Usage.Model, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.llmTokens.WithLabelValues(meta.AgentName, meta.Usage.Model, "completion").Add(float64(meta.Usage.CompletionTokens))
	if meta.Latency > 0 {
		c.llmLatency.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// GinMiddleware records request counts and latency per route template.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())

		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, path, status).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
