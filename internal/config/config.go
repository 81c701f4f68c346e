package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment  string
	GeminiAPIKey string
	GroqAPIKey   string

	DatabasePath    string
	CatalogPath     string
	PackagingPolicy string

	HTTPPort  int
	JWTSecret string

	LogLevel  string
	LogFormat string

	// Telegram Config
	TelegramBotToken     string
	TelegramWebhookURL   string
	TelegramAllowUserIDs []int64
	AdminTelegramID      int64

	// Profile used when a request does not carry one (CLI and Telegram).
	DefaultAge         int
	DefaultSex         string
	DefaultHeightCM    float64
	DefaultWeightKG    float64
	DefaultActivity    string
	DefaultGoal        string
	DefaultMealsPerDay int
	DefaultPlanDays    int
}

var defaults = map[string]interface{}{
	"APP_ENV":               "development",
	"DATABASE_PATH":         "data/meal-planner.db",
	"PACKAGING_POLICY":      "first_usage",
	"HTTP_PORT":             8080,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"DEFAULT_AGE":           35,
	"DEFAULT_SEX":           "female",
	"DEFAULT_HEIGHT_CM":     168.0,
	"DEFAULT_WEIGHT_KG":     70.0,
	"DEFAULT_ACTIVITY":      "moderate",
	"DEFAULT_GOAL":          "maintain",
	"DEFAULT_MEALS_PER_DAY": 3,
	"DEFAULT_PLAN_DAYS":     7,
}

// NewFromEnv creates a new Config object from environment variables,
// reading a local .env file first outside production.
func NewFromEnv() (*Config, error) {
	env := viper.New()
	env.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	env.AutomaticEnv()
	for k, v := range defaults {
		env.SetDefault(k, v)
	}

	if env.GetString("APP_ENV") != "production" {
		// Missing .env is fine; the real environment still applies.
		_ = godotenv.Load()
	}

	allowIDs, err := parseIDList(env.GetString("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}

	var adminID int64
	if s := strings.TrimSpace(env.GetString("ADMIN_TELEGRAM_ID")); s != "" {
		adminID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg := &Config{
		Environment:          env.GetString("APP_ENV"),
		GeminiAPIKey:         env.GetString("GEMINI_API_KEY"),
		GroqAPIKey:           env.GetString("GROQ_API_KEY"),
		DatabasePath:         env.GetString("DATABASE_PATH"),
		CatalogPath:          env.GetString("CATALOG_PATH"),
		PackagingPolicy:      strings.ToLower(env.GetString("PACKAGING_POLICY")),
		HTTPPort:             env.GetInt("HTTP_PORT"),
		JWTSecret:            env.GetString("JWT_SECRET"),
		LogLevel:             env.GetString("LOG_LEVEL"),
		LogFormat:            env.GetString("LOG_FORMAT"),
		TelegramBotToken:     env.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:   env.GetString("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowUserIDs: allowIDs,
		AdminTelegramID:      adminID,
		DefaultAge:           env.GetInt("DEFAULT_AGE"),
		DefaultSex:           env.GetString("DEFAULT_SEX"),
		DefaultHeightCM:      env.GetFloat64("DEFAULT_HEIGHT_CM"),
		DefaultWeightKG:      env.GetFloat64("DEFAULT_WEIGHT_KG"),
		DefaultActivity:      env.GetString("DEFAULT_ACTIVITY"),
		DefaultGoal:          env.GetString("DEFAULT_GOAL"),
		DefaultMealsPerDay:   env.GetInt("DEFAULT_MEALS_PER_DAY"),
		DefaultPlanDays:      env.GetInt("DEFAULT_PLAN_DAYS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a fixed set of legal settings.
func (c *Config) Validate() error {
	switch c.PackagingPolicy {
	case "first_usage", "merged_total":
	default:
		return fmt.Errorf("PACKAGING_POLICY must be first_usage or merged_total, got %q", c.PackagingPolicy)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH environment variable not set")
	}
	return nil
}

// RequireHTTP checks the settings only the HTTP API needs.
// RequireLLM checks that a text model is configured. Groq is used when its
// key is set, so Gemini is only needed without it.
func (c *Config) RequireLLM() error {
	if c.GeminiAPIKey == "" && c.GroqAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

func (c *Config) RequireHTTP() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

// RequireTelegram checks the settings only the Telegram bot needs.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
