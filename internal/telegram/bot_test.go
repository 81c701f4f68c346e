package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/database"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/metrics"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

const (
	adminID    int64 = 1
	allowedID  int64 = 42
	strangerID int64 = 99
)

// --- Mocks ---

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// last returns the text and chat of the most recent message or edit.
func (f *fakeSender) last(t *testing.T) (string, int64) {
	t.Helper()
	require.NotEmpty(t, f.sent)
	switch c := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return c.Text, c.ChatID
	case tgbotapi.EditMessageTextConfig:
		return c.Text, c.ChatID
	default:
		t.Fatalf("unexpected chattable %T", c)
		return "", 0
	}
}

type fakePlanner struct {
	usage shared.TokenUsage
}

func (f *fakePlanner) GeneratePlan(_ context.Context, profile planner.DietaryProfile, request string) (*planner.MealPlan, shared.AgentMeta, error) {
	return &planner.MealPlan{
		Request: request,
		Target:  profile.NutritionTarget(),
		Days: []planner.DayPlan{{Day: "Monday", Meals: []planner.PlannedMeal{{
			Name: "Chicken Rice Bowl", MealType: "lunch", Calories: 700,
			Ingredients: []shopping.IngredientUsage{
				{Name: "chicken breast", Quantity: 1.5, Unit: "lb", Category: "Meat", EstimatedCost: decimal.RequireFromString("7.00")},
				{Name: "dragon fruit", Quantity: 2, Unit: "each", Category: "Produce", EstimatedCost: decimal.RequireFromString("6.00")},
			},
		}}}},
	}, shared.AgentMeta{AgentName: "Planner", Usage: f.usage}, nil
}

func (f *fakePlanner) AdjustPlan(_ context.Context, current *planner.MealPlan, feedback string) (*planner.MealPlan, shared.AgentMeta, error) {
	return current.WithMeal("Tuesday", planner.PlannedMeal{Name: "Fish for " + feedback}), shared.AgentMeta{AgentName: "PlanReviewer"}, nil
}

type fakeClipper struct{}

func (fakeClipper) ClipURL(_ context.Context, url string) (*planner.PlannedMeal, shared.AgentMeta, error) {
	return &planner.PlannedMeal{
		Name:      "Black Bean Chili",
		SourceURL: url,
		Ingredients: []shopping.IngredientUsage{
			{Name: "black beans", Quantity: 30, Unit: "oz", Category: "Pantry", EstimatedCost: decimal.RequireFromString("1.76")},
		},
	}, shared.AgentMeta{AgentName: "Clipper"}, nil
}

// --- Helpers ---

type testBot struct {
	bot      *Bot
	api      *fakeSender
	plans    *planner.PlanRepository
	sessions *SessionRepository
	metrics  *metrics.Store
	observed []shared.AgentMeta
}

func newTestBot(t *testing.T, gen *fakePlanner) *testBot {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "bot.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog, err := grocery.DefaultCatalog()
	require.NoError(t, err)

	tb := &testBot{
		api:      &fakeSender{},
		plans:    planner.NewPlanRepository(db.SQL),
		sessions: NewSessionRepository(db.SQL),
		metrics:  metrics.NewStore(db.SQL),
	}
	svc := shopping.NewService(
		shopping.NewAssembler(grocery.NewPackager(catalog), shopping.PolicyFirstUsage),
		shopping.NewRepository(db.SQL), tb.plans, zap.NewNop())

	tb.bot = NewBot(tb.api, Deps{
		Planner:  gen,
		Plans:    tb.plans,
		Clipper:  fakeClipper{},
		Shopping: svc,
		Sessions: tb.sessions,
		Usage:    tb.metrics,
		OnAgent: func(_ context.Context, meta shared.AgentMeta) {
			tb.observed = append(tb.observed, meta)
		},
	}, Options{
		AllowUserIDs: []int64{allowedID},
		AdminID:      adminID,
		DefaultProfile: planner.DietaryProfile{
			Age: 30, Sex: planner.SexMale, HeightCM: 180, WeightKG: 80,
			ActivityLevel: planner.ActivityModerate, Goal: planner.GoalMaintain, MealsPerDay: 3, Days: 7,
		},
		DataPath: t.TempDir(),
	}, zap.NewNop())
	return tb
}

func message(from int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: from},
		Chat:      &tgbotapi.Chat{ID: from},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

// --- Tests ---

func TestFormatPlanMarkdown(t *testing.T) {
	plan := &planner.MealPlan{
		Request: "high_protein",
		Target:  planner.NutritionTarget{Calories: 2000, ProteinG: 150, CarbsG: 200, FatG: 67},
		Days: []planner.DayPlan{
			{Day: "Monday", Meals: []planner.PlannedMeal{{Name: "Tacos", MealType: "dinner", Calories: 650}}},
			{Day: "Tuesday", Meals: []planner.PlannedMeal{{Name: "Salad"}}},
		},
	}

	out := formatPlanMarkdown(plan)
	assert.Contains(t, out, "📅 *Meal Plan*")
	assert.Contains(t, out, "2000 kcal/day")
	assert.Contains(t, out, `_high\_protein_`)
	assert.Contains(t, out, "*Monday*\n• Dinner: Tacos (650 kcal)")
	assert.Contains(t, out, "• Salad\n")
}

func TestFormatShoppingListMarkdown(t *testing.T) {
	list := &shopping.ShoppingList{
		Items: []shopping.LineItem{
			{Name: "chicken breast", Quantity: 2, Unit: shopping.PackageUnit, Category: "Meat", EstimatedCost: decimal.RequireFromString("9.98"), PackagingNote: "2 × 1 lb package", Purchased: true},
			{Name: "dragon fruit", Quantity: 1, Unit: shopping.PackageUnit, Category: "Produce", EstimatedCost: decimal.RequireFromString("2.99"), PackagingNote: "2 each"},
			{Name: "pork_belly", Quantity: 0.5, Unit: "lb", EstimatedCost: decimal.RequireFromString("3")},
		},
		Total: decimal.RequireFromString("15.97"),
	}

	out := formatShoppingListMarkdown(list)
	assert.Contains(t, out, "*Meat*\n✅ chicken breast: 2 × 1 lb package ($9.98)")
	assert.Contains(t, out, "*Produce*\n• dragon fruit: 2 each ($2.99)")
	assert.Contains(t, out, "*Other*\n• pork\\_belly: 0.5 lb ($3.00)")
	assert.Contains(t, out, "💰 *Total:* $15.97")
	assert.Contains(t, out, "🧾 *Remaining:* $5.99")
}

func TestLimitMessage(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, limitMessage(short))

	long := strings.Repeat("é", maxMessageLen+10)
	limited := limitMessage(long)
	assert.Len(t, []rune(limited), maxMessageLen)
	assert.True(t, strings.HasSuffix(limited, truncatedSuffix))
}

func TestBotAccessControl(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()

	tb.bot.HandleUpdate(ctx, message(strangerID, "/plan anything"))
	assert.Empty(t, tb.api.sent, "strangers get no reply")

	tb.bot.HandleUpdate(ctx, message(allowedID, "/metrics"))
	text, _ := tb.api.last(t)
	assert.Contains(t, text, "Access Denied")

	require.NoError(t, tb.metrics.RecordMeta(ctx, shared.AgentMeta{AgentName: "Planner", Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5}}))
	tb.bot.HandleUpdate(ctx, message(adminID, "/metrics"))
	text, _ = tb.api.last(t)
	assert.Contains(t, text, "Usage & Health Report")
	assert.Contains(t, text, "15 tokens (1 execs")
}

func TestBotPlanAndShop(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()

	tb.bot.HandleUpdate(ctx, message(allowedID, "/shop"))
	text, _ := tb.api.last(t)
	assert.Contains(t, text, "don't have a plan yet")

	tb.bot.HandleUpdate(ctx, message(allowedID, "/plan high protein"))
	require.Len(t, tb.observed, 1)

	edit, ok := tb.api.sent[len(tb.api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "Chicken Rice Bowl")
	require.NotNil(t, edit.ReplyMarkup)
	callback := *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData

	plan, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, shopCallbackPrefix+plan.ID, callback)
	assert.Equal(t, "high protein", plan.Request)

	t.Run("ShopCommand", func(t *testing.T) {
		tb.bot.HandleUpdate(ctx, message(allowedID, "/shop"))
		text, chatID := tb.api.last(t)
		assert.Equal(t, allowedID, chatID)
		assert.Contains(t, text, "chicken breast: 2 × 1 lb package ($9.98)")
		assert.Contains(t, text, "dragon fruit: 2 each ($2.99)")
		assert.Contains(t, text, "💰 *Total:* $12.97")
	})

	t.Run("ShopCallback", func(t *testing.T) {
		tb.bot.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: allowedID},
			Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: allowedID}},
			Data:    callback,
		}})
		require.Len(t, tb.api.requests, 1)
		text, _ := tb.api.last(t)
		assert.Contains(t, text, "🛒 *Shopping List*")
	})

	t.Run("PlainTextIsAPlanRequest", func(t *testing.T) {
		tb.bot.HandleUpdate(ctx, message(allowedID, "vegetarian please"))
		latest, err := tb.plans.Latest(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "vegetarian please", latest.Request)
	})
}

func TestBotAdjustFlow(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()

	tb.bot.HandleUpdate(ctx, message(allowedID, "/adjust more fish"))
	text, _ := tb.api.last(t)
	assert.Contains(t, text, "don't have a plan to adjust")

	tb.bot.HandleUpdate(ctx, message(allowedID, "/plan balanced"))
	original, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)

	tb.bot.HandleUpdate(ctx, message(allowedID, "/adjust"))
	text, _ = tb.api.last(t)
	assert.Contains(t, text, "What would you like to change")

	session, err := tb.sessions.GetActive(ctx, "42", time.Now())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), session.ExpiresAt, time.Minute)
	data, err := session.GetContextData()
	require.NoError(t, err)
	assert.Equal(t, original.ID, data.PlanID)

	tb.bot.HandleUpdate(ctx, message(allowedID, "salmon"))
	text, _ = tb.api.last(t)
	assert.Contains(t, text, "Fish for salmon")

	revised, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, revised.ID)
	assert.Equal(t, 2, revised.MealCount())

	session, err = tb.sessions.GetActive(ctx, "42", time.Now())
	require.NoError(t, err)
	assert.Nil(t, session, "feedback closes the session")
}

func TestBotAdjustInProgress(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()

	tb.bot.HandleUpdate(ctx, message(allowedID, "/plan balanced"))
	before, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)

	_, err = tb.sessions.Create(ctx, "42", SessionAdjustPlan, StateAdjusting,
		SessionContextData{PlanID: before.ID}, time.Hour)
	require.NoError(t, err)

	tb.bot.HandleUpdate(ctx, message(allowedID, "more fish"))
	text, _ := tb.api.last(t)
	assert.Contains(t, text, "Still adjusting")

	after, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID, "no new plan while an adjustment runs")
}

func TestBotClipper(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()

	tb.bot.HandleUpdate(ctx, message(allowedID, "https://example.com/chili"))
	text, _ := tb.api.last(t)
	assert.Contains(t, text, "Recipe added:* Black Bean Chili (1 ingredients)")

	plan, err := tb.plans.Latest(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Days, 1)
	assert.Equal(t, "Extras", plan.Days[0].Day)
	assert.Equal(t, "https://example.com/chili", plan.Days[0].Meals[0].SourceURL)
}

func TestBotContextBloatAlert(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{usage: shared.TokenUsage{PromptTokens: 5000, Model: "llama"}})

	tb.bot.HandleUpdate(context.Background(), message(allowedID, "/plan big"))

	var alerted bool
	for _, c := range tb.api.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == adminID && strings.Contains(m.Text, "Context Bloat Alert") {
			alerted = true
		}
	}
	assert.True(t, alerted)
}

func TestSessionRepository(t *testing.T) {
	tb := newTestBot(t, &fakePlanner{})
	ctx := context.Background()
	repo := tb.sessions

	id, err := repo.Create(ctx, "u1", SessionAdjustPlan, StateAwaitingFeedback, SessionContextData{PlanID: "p1"}, time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, id, "done", SessionContextData{PlanID: "p2"}))
	s, err := repo.GetActive(ctx, "u1", time.Now())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "done", s.State)
	data, err := s.GetContextData()
	require.NoError(t, err)
	assert.Equal(t, "p2", data.PlanID)

	t.Run("CreateReplacesPrevious", func(t *testing.T) {
		newID, err := repo.Create(ctx, "u1", SessionAdjustPlan, StateAwaitingFeedback, SessionContextData{PlanID: "p3"}, time.Minute)
		require.NoError(t, err)
		s, err := repo.GetActive(ctx, "u1", time.Now())
		require.NoError(t, err)
		assert.Equal(t, newID, s.ID)
	})

	t.Run("ExpiredIsInactiveAndCleanedUp", func(t *testing.T) {
		_, err := repo.Create(ctx, "u2", SessionAdjustPlan, StateAwaitingFeedback, SessionContextData{}, -time.Minute)
		require.NoError(t, err)
		s, err := repo.GetActive(ctx, "u2", time.Now())
		require.NoError(t, err)
		assert.Nil(t, s)

		n, err := repo.CleanupExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
