package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp keeps godotenv from picking up a developer's .env.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, "data/meal-planner.db", cfg.DatabasePath)
		assert.Equal(t, "first_usage", cfg.PackagingPolicy)
		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, 3, cfg.DefaultMealsPerDay)
		assert.Equal(t, 7, cfg.DefaultPlanDays)
		assert.Empty(t, cfg.TelegramAllowUserIDs)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("Overrides", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("GROQ_API_KEY", "groq_key")
		t.Setenv("PACKAGING_POLICY", "MERGED_TOTAL")
		t.Setenv("HTTP_PORT", "9090")
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "11, 22,33")
		t.Setenv("ADMIN_TELEGRAM_ID", "11")
		t.Setenv("DEFAULT_WEIGHT_KG", "82.5")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
		assert.Equal(t, "merged_total", cfg.PackagingPolicy)
		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, []int64{11, 22, 33}, cfg.TelegramAllowUserIDs)
		assert.Equal(t, int64(11), cfg.AdminTelegramID)
		assert.Equal(t, 82.5, cfg.DefaultWeightKG)
	})

	t.Run("ReadsDotEnv", func(t *testing.T) {
		dir := chdirTemp(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from_file\n"), 0600))
		t.Setenv("GEMINI_API_KEY", "")
		os.Unsetenv("GEMINI_API_KEY")
		t.Cleanup(func() { os.Unsetenv("GEMINI_API_KEY") })

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "from_file", cfg.GeminiAPIKey)
	})

	t.Run("LoadsWithoutModelKeys", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GROQ_API_KEY", "")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.EqualError(t, cfg.RequireLLM(), "GEMINI_API_KEY environment variable not set")
	})

	t.Run("InvalidPolicy", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PACKAGING_POLICY", "cheapest")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PACKAGING_POLICY")
	})

	t.Run("InvalidAllowList", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOW_USER_IDS", "12,abc")

		_, err := NewFromEnv()
		require.Error(t, err)
	})
}

func TestRequireSurfaces(t *testing.T) {
	cfg := &Config{}
	assert.EqualError(t, cfg.RequireHTTP(), "JWT_SECRET environment variable not set")
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_BOT_TOKEN environment variable not set")

	cfg.JWTSecret = "s"
	cfg.TelegramBotToken = "t"
	assert.NoError(t, cfg.RequireHTTP())
	assert.EqualError(t, cfg.RequireTelegram(), "TELEGRAM_WEBHOOK_URL environment variable not set")
}

func TestRequireLLM(t *testing.T) {
	assert.EqualError(t, (&Config{}).RequireLLM(), "GEMINI_API_KEY environment variable not set")
	assert.NoError(t, (&Config{GeminiAPIKey: "g"}).RequireLLM())
	assert.NoError(t, (&Config{GroqAPIKey: "q"}).RequireLLM())
}
