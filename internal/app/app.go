package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/clipper"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/config"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/httpapi"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/llm"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/metrics"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/telegram"
)

// Generators are the language models behind the planner and the clipper.
type Generators struct {
	Planner llm.TextGenerator
	Clipper llm.TextGenerator
	closers []llm.Closer
}

// NewGenerators picks Groq when GROQ_API_KEY is set and Gemini otherwise.
func NewGenerators(ctx context.Context, cfg *config.Config) (Generators, error) {
	if err := cfg.RequireLLM(); err != nil {
		return Generators{}, err
	}
	if cfg.GroqAPIKey != "" {
		return Generators{
			Planner: llm.NewGroqClient(cfg.GroqAPIKey, llm.ModelPlanner, 0.4),
			Clipper: llm.NewGroqClient(cfg.GroqAPIKey, llm.ModelExtractor, 0.1),
		}, nil
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, "")
	if err != nil {
		return Generators{}, err
	}
	return Generators{Planner: gemini, Clipper: gemini, closers: []llm.Closer{gemini}}, nil
}

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db           *database.DB
	packager     *grocery.Packager
	collector    *metrics.Collector
	metricsStore *metrics.Store
	assembler    *shopping.Assembler
	shopping     *shopping.Service
	planRepo     *planner.PlanRepository
	sessions     *telegram.SessionRepository
	mealPlanner  *planner.Planner
	clipper      *clipper.Clipper

	closers []llm.Closer
}

// New opens the database and wires every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	gens, err := NewGenerators(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := NewWithGenerators(cfg, logger, gens)
	if err != nil {
		for _, c := range gens.closers {
			c.Close()
		}
		return nil, err
	}
	return a, nil
}

// NewWithGenerators wires the application around the given models.
func NewWithGenerators(cfg *config.Config, logger *zap.Logger, gens Generators) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	policy, err := shopping.ParsePackagingPolicy(cfg.PackagingPolicy)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	collector := metrics.NewCollector()
	packager := grocery.NewPackager(catalog, grocery.WithLookupHook(collector.CatalogLookup))
	assembler := shopping.NewAssembler(packager, policy)
	planRepo := planner.NewPlanRepository(db.SQL)

	svc := shopping.NewService(assembler, shopping.NewRepository(db.SQL), planRepo, logger,
		shopping.WithGeneratedHook(func(list *shopping.ShoppingList) {
			collector.ShoppingListGenerated(len(list.Items), list.Total)
		}),
	)

	logger.Info("application ready",
		zap.String("env", cfg.Environment),
		zap.String("catalog_version", catalog.Version()),
		zap.Int("catalog_items", catalog.Len()),
		zap.String("packaging_policy", string(policy)),
	)

	a := &App{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		packager:     packager,
		collector:    collector,
		metricsStore: metrics.NewStore(db.SQL),
		assembler:    assembler,
		shopping:     svc,
		planRepo:     planRepo,
		sessions:     telegram.NewSessionRepository(db.SQL),
		closers:      gens.closers,
	}
	if gens.Planner != nil {
		a.mealPlanner = planner.NewPlanner(gens.Planner, logger)
	}
	if gens.Clipper != nil {
		a.clipper = clipper.NewClipper(gens.Clipper, logger)
	}
	return a, nil
}

func loadCatalog(path string) (*grocery.Catalog, error) {
	if path == "" {
		return grocery.DefaultCatalog()
	}
	return grocery.LoadCatalog(path)
}

// Close releases the database and model clients.
func (a *App) Close() error {
	errs := []error{a.db.Close()}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Collector exposes the Prometheus metrics of this process.
func (a *App) Collector() *metrics.Collector {
	return a.collector
}

// DefaultProfile is the profile used when a request carries none.
func (a *App) DefaultProfile() planner.DietaryProfile {
	return planner.DietaryProfile{
		Age:           a.cfg.DefaultAge,
		Sex:           planner.Sex(a.cfg.DefaultSex),
		HeightCM:      a.cfg.DefaultHeightCM,
		WeightKG:      a.cfg.DefaultWeightKG,
		ActivityLevel: planner.ActivityLevel(a.cfg.DefaultActivity),
		Goal:          planner.Goal(a.cfg.DefaultGoal),
		MealsPerDay:   a.cfg.DefaultMealsPerDay,
		Days:          a.cfg.DefaultPlanDays,
	}
}

// RecordAgent stores an LLM execution in SQLite and Prometheus. Failures are
// logged, never returned.
func (a *App) RecordAgent(ctx context.Context, meta shared.AgentMeta) {
	if meta.AgentName == "" {
		return
	}
	a.collector.ObserveAgent(meta)
	if err := a.metricsStore.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}

// HTTPServer builds the REST API.
func (a *App) HTTPServer() (*httpapi.Server, error) {
	if err := a.cfg.RequireHTTP(); err != nil {
		return nil, err
	}
	deps := httpapi.Deps{
		Plans:     a.planRepo,
		Shopping:  a.shopping,
		Auth:      httpapi.NewAuthenticator(a.cfg.JWTSecret),
		Collector: a.collector,
		OnAgent:   a.RecordAgent,
	}
	if a.mealPlanner != nil {
		deps.Planner = a.mealPlanner
	}
	if a.clipper != nil {
		deps.Clipper = a.clipper
	}
	return httpapi.NewServer(deps, a.logger), nil
}

// TelegramBot builds the bot around an authorized API client.
func (a *App) TelegramBot(api telegram.Sender) *telegram.Bot {
	deps := telegram.Deps{
		Plans:     a.planRepo,
		Shopping:  a.shopping,
		Sessions:  a.sessions,
		Usage:     a.metricsStore,
		Collector: a.collector,
		OnAgent:   a.RecordAgent,
	}
	if a.mealPlanner != nil {
		deps.Planner = a.mealPlanner
	}
	if a.clipper != nil {
		deps.Clipper = a.clipper
	}
	return telegram.NewBot(api, deps, telegram.Options{
		AllowUserIDs:   a.cfg.TelegramAllowUserIDs,
		AdminID:        a.cfg.AdminTelegramID,
		DefaultProfile: a.DefaultProfile(),
		DataPath:       filepath.Dir(a.cfg.DatabasePath),
	}, a.logger)
}

// CleanupMetrics removes execution metrics older than days, along with
// expired bot sessions.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, fmt.Errorf("days must be at least 1, got %d", days)
	}
	n, err := a.metricsStore.Cleanup(ctx, days)
	if err != nil {
		return 0, err
	}
	expired, err := a.sessions.CleanupExpired(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	a.logger.Info("cleanup complete", zap.Int64("metrics_removed", n), zap.Int64("sessions_removed", expired))
	return n, nil
}
