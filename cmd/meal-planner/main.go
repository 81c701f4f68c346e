package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/app"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/config"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Development: !cfg.IsProduction(),
	})
	defer logger.Sync()

	command := os.Args[1]
	var application *app.App
	if needsLLM(command) {
		application, err = app.New(ctx, cfg, logger)
	} else {
		// Offline commands never call a model.
		application, err = app.NewWithGenerators(cfg, logger, app.Generators{})
	}
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := run(ctx, application, cfg, command, os.Args[2:]); err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		application.Close()
		os.Exit(1)
	}
}

func needsLLM(command string) bool {
	return command == "plan" || command == "serve"
}

func run(ctx context.Context, application *app.App, cfg *config.Config, command string, args []string) error {
	switch command {
	case "catalog":
		application.PrintCatalog(os.Stdout)
		return nil

	case "shop":
		shopCmd := flag.NewFlagSet("shop", flag.ExitOnError)
		file := shopCmd.String("file", "", "JSON file with an array of meals or a meal plan")
		asJSON := shopCmd.Bool("json", false, "Print the list as JSON")
		shopCmd.Parse(args)
		if *file == "" {
			return fmt.Errorf("-file is required")
		}
		return application.ShopFromFile(*file, *asJSON, os.Stdout)

	case "plan":
		planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
		request := planCmd.String("request", "", "What the plan should focus on")
		planCmd.Parse(args)
		if strings.TrimSpace(*request) == "" {
			return fmt.Errorf("-request is required")
		}
		return application.GenerateMealPlan(ctx, *request, os.Stdout)

	case "serve":
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		srv, err := application.HTTPServer()
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, cfg.HTTPPort)

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  catalog            Print the Walmart pricing catalog")
	fmt.Println("  shop -file F       Build a shopping list from a JSON meals file")
	fmt.Println("  plan -request R    Generate a meal plan and its shopping list")
	fmt.Println("  serve              Run the HTTP API")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
