package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/metrics"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

const (
	adjustSessionTTL   = 30 * time.Minute
	updateTimeout      = 2 * time.Minute
	contextBloatTokens = 4000
	clipDay            = "Extras"
	shopCallbackPrefix = "shop|"
)

const helpText = `👋 *Meal Planner*

/plan <request> - generate a meal plan
/shop - build the Walmart shopping list for your latest plan
/adjust <feedback> - revise your latest plan
Send a recipe link to add it to your latest plan.`

// Sender is the part of the Telegram API the bot talks to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// PlanGenerator produces and revises meal plans.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, profile planner.DietaryProfile, request string) (*planner.MealPlan, shared.AgentMeta, error)
	AdjustPlan(ctx context.Context, current *planner.MealPlan, feedback string) (*planner.MealPlan, shared.AgentMeta, error)
}

// PlanStore persists meal plans. Get and Latest return nil when nothing matches.
type PlanStore interface {
	Save(ctx context.Context, plan *planner.MealPlan) error
	Get(ctx context.Context, userID, id string) (*planner.MealPlan, error)
	Latest(ctx context.Context, userID string) (*planner.MealPlan, error)
}

// RecipeClipper turns a recipe URL into a meal.
type RecipeClipper interface {
	ClipURL(ctx context.Context, url string) (*planner.PlannedMeal, shared.AgentMeta, error)
}

// ShoppingLists builds shopping lists for stored plans.
type ShoppingLists interface {
	GenerateForPlan(ctx context.Context, userID, planID string) (*shopping.ShoppingList, error)
}

// UsageReporter summarizes recorded LLM usage.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Deps groups the bot's collaborators. Clipper, Collector and OnAgent are optional.
type Deps struct {
	Planner   PlanGenerator
	Plans     PlanStore
	Clipper   RecipeClipper
	Shopping  ShoppingLists
	Sessions  *SessionRepository
	Usage     UsageReporter
	Collector *metrics.Collector
	OnAgent   func(ctx context.Context, meta shared.AgentMeta)
}

// Options holds per-deployment settings.
type Options struct {
	AllowUserIDs   []int64
	AdminID        int64
	DefaultProfile planner.DietaryProfile
	DataPath       string
}

// Bot wraps the Telegram API, the meal planner and the shopping list service.
type Bot struct {
	api    Sender
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// Connect authorizes against the Telegram API and points its webhook at
// webhookURL.
func Connect(token, webhookURL string, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", webhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", webhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))
	return api, nil
}

// NewBot creates a Bot that replies through api.
func NewBot(api Sender, deps Deps, opts Options, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:    api,
		deps:   deps,
		opts:   opts,
		logger: logger.Named("telegram"),
	}
}

// RegisterRoutes mounts the webhook endpoint.
func (b *Bot) RegisterRoutes(r gin.IRoutes) {
	r.POST("/webhook", b.handleWebhook)
}

func (b *Bot) handleWebhook(c *gin.Context) {
	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), updateTimeout)
		defer cancel()
		b.HandleUpdate(ctx, update)
	}()
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !b.isAllowed(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("telegram_user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	b.processMessage(ctx, msg)
}

func (b *Bot) isAllowed(id int64) bool {
	if b.opts.AdminID != 0 && id == b.opts.AdminID {
		return true
	}
	for _, allowed := range b.opts.AllowUserIDs {
		if id == allowed {
			return true
		}
	}
	return false
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(msg.Chat.ID, helpText)
		case "plan":
			b.handlePlanRequest(ctx, msg, msg.CommandArguments())
		case "shop":
			b.handleShopRequest(ctx, msg)
		case "adjust":
			b.handleAdjustRequest(ctx, msg, msg.CommandArguments())
		case "metrics":
			b.handleMetricsRequest(ctx, msg)
		default:
			b.reply(msg.Chat.ID, "🤔 Unknown command. Send /help for the list.")
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleClipperRequest(ctx, msg, text)
		return
	}

	if b.consumeAdjustSession(ctx, msg, text) {
		return
	}

	b.handlePlanRequest(ctx, msg, text)
}

func (b *Bot) handlePlanRequest(ctx context.Context, msg *tgbotapi.Message, request string) {
	request = strings.TrimSpace(request)
	if request == "" {
		b.reply(msg.Chat.ID, "Tell me what you'd like, e.g. `/plan high protein, no pork`")
		return
	}
	if b.deps.Planner == nil {
		b.reply(msg.Chat.ID, "Meal planning is not enabled.")
		return
	}

	sent, ok := b.sendStatus(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Generating your plan)")
	if !ok {
		return
	}

	userID := userKey(msg.From.ID)
	profile := b.opts.DefaultProfile
	profile.UserID = userID

	b.logger.Info("generating plan", zap.String("user_id", userID), zap.String("request", request))
	plan, meta, err := b.deps.Planner.GeneratePlan(ctx, profile, request)
	b.observe(ctx, meta)
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error generating plan", err)
		return
	}

	b.saveAndShowPlan(ctx, msg.Chat.ID, sent.MessageID, userID, plan)
	if b.deps.Collector != nil {
		b.deps.Collector.MealPlanGenerated()
	}
}

func (b *Bot) handleShopRequest(ctx context.Context, msg *tgbotapi.Message) {
	userID := userKey(msg.From.ID)
	plan, err := b.deps.Plans.Latest(ctx, userID)
	if err != nil {
		b.logger.Error("failed to load latest plan", zap.String("user_id", userID), zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Could not load your plan.")
		return
	}
	if plan == nil {
		b.reply(msg.Chat.ID, "You don't have a plan yet. Send `/plan <request>` first.")
		return
	}
	b.sendShoppingList(ctx, msg.Chat.ID, userID, plan.ID)
}

func (b *Bot) sendShoppingList(ctx context.Context, chatID int64, userID, planID string) {
	list, err := b.deps.Shopping.GenerateForPlan(ctx, userID, planID)
	if err != nil {
		var invalid *shopping.InvalidUsageError
		switch {
		case errors.Is(err, shopping.ErrNoPurchasableItems):
			b.reply(chatID, "🛒 Nothing to buy: this plan has no ingredients.")
		case errors.Is(err, shopping.ErrPlanNotFound):
			b.reply(chatID, "❌ That plan no longer exists.")
		case errors.As(err, &invalid):
			b.reply(chatID, "❌ The plan has an ingredient I can't price: "+tgbotapi.EscapeText(tgbotapi.ModeMarkdown, invalid.Error()))
		default:
			b.logger.Error("failed to build shopping list", zap.String("user_id", userID), zap.Error(err))
			b.reply(chatID, "❌ Could not build the shopping list.")
		}
		return
	}
	b.reply(chatID, formatShoppingListMarkdown(list))
}

func (b *Bot) handleAdjustRequest(ctx context.Context, msg *tgbotapi.Message, feedback string) {
	userID := userKey(msg.From.ID)
	plan, err := b.deps.Plans.Latest(ctx, userID)
	if err != nil || plan == nil {
		b.reply(msg.Chat.ID, "You don't have a plan to adjust yet. Send `/plan <request>` first.")
		return
	}

	feedback = strings.TrimSpace(feedback)
	if feedback != "" {
		b.adjustPlan(ctx, msg.Chat.ID, userID, plan, feedback)
		return
	}

	if _, err := b.deps.Sessions.Create(ctx, userID, SessionAdjustPlan, StateAwaitingFeedback,
		SessionContextData{PlanID: plan.ID, OriginalRequest: plan.Request}, adjustSessionTTL); err != nil {
		b.logger.Error("failed to create adjust session", zap.String("user_id", userID), zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Could not start the adjustment.")
		return
	}
	b.reply(msg.Chat.ID, "✏️ What would you like to change in your plan?")
}

// consumeAdjustSession treats text as plan feedback when the user has an open
// adjustment session. It reports whether the message was consumed.
func (b *Bot) consumeAdjustSession(ctx context.Context, msg *tgbotapi.Message, text string) bool {
	if b.deps.Sessions == nil || text == "" {
		return false
	}

	userID := userKey(msg.From.ID)
	session, err := b.deps.Sessions.GetActive(ctx, userID, time.Now())
	if err != nil {
		b.logger.Warn("failed to load session", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	if session == nil || session.SessionType != SessionAdjustPlan {
		return false
	}
	if session.State == StateAdjusting {
		b.reply(msg.Chat.ID, "⏳ Still adjusting your plan, one moment.")
		return true
	}
	if session.State != StateAwaitingFeedback {
		return false
	}

	data, err := session.GetContextData()
	if err != nil {
		b.logger.Warn("corrupt session context", zap.Int64("session_id", session.ID), zap.Error(err))
		b.closeSession(ctx, session.ID)
		return false
	}
	defer b.closeSession(ctx, session.ID)

	if err := b.deps.Sessions.Update(ctx, session.ID, StateAdjusting, data); err != nil {
		b.logger.Warn("failed to update session", zap.Int64("session_id", session.ID), zap.Error(err))
	}

	plan, err := b.deps.Plans.Get(ctx, userID, data.PlanID)
	if err != nil || plan == nil {
		b.reply(msg.Chat.ID, "❌ The plan you were adjusting no longer exists.")
		return true
	}

	b.adjustPlan(ctx, msg.Chat.ID, userID, plan, text)
	return true
}

func (b *Bot) closeSession(ctx context.Context, id int64) {
	if err := b.deps.Sessions.Delete(ctx, id); err != nil {
		b.logger.Warn("failed to close session", zap.Int64("session_id", id), zap.Error(err))
	}
}

func (b *Bot) adjustPlan(ctx context.Context, chatID int64, userID string, plan *planner.MealPlan, feedback string) {
	if b.deps.Planner == nil {
		b.reply(chatID, "Meal planning is not enabled.")
		return
	}
	sent, ok := b.sendStatus(chatID, "✏️ *Adjusting your plan...*")
	if !ok {
		return
	}

	revised, meta, err := b.deps.Planner.AdjustPlan(ctx, plan, feedback)
	b.observe(ctx, meta)
	if err != nil {
		b.editError(chatID, sent.MessageID, "Error adjusting plan", err)
		return
	}
	b.saveAndShowPlan(ctx, chatID, sent.MessageID, userID, revised)
}

func (b *Bot) handleClipperRequest(ctx context.Context, msg *tgbotapi.Message, url string) {
	if b.deps.Clipper == nil {
		b.reply(msg.Chat.ID, "Recipe import is not enabled.")
		return
	}

	sent, ok := b.sendStatus(msg.Chat.ID, "✂️ *Clipping recipe...*")
	if !ok {
		return
	}

	meal, meta, err := b.deps.Clipper.ClipURL(ctx, url)
	b.observe(ctx, meta)
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error clipping recipe", err)
		return
	}

	userID := userKey(msg.From.ID)
	base, err := b.deps.Plans.Latest(ctx, userID)
	if err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error loading your plan", err)
		return
	}
	if base == nil {
		base = &planner.MealPlan{UserID: userID, Request: "Imported recipes"}
	}

	next := base.WithMeal(clipDay, *meal)
	next.UserID = userID
	if err := b.deps.Plans.Save(ctx, next); err != nil {
		b.editError(msg.Chat.ID, sent.MessageID, "Error saving plan", err)
		return
	}

	text := fmt.Sprintf("✅ *Recipe added:* %s (%d ingredients)\nSend /shop to refresh your shopping list.",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, meal.Name), len(meal.Ingredients))
	b.edit(msg.Chat.ID, sent.MessageID, text, nil)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil || query.Message == nil || !b.isAllowed(query.From.ID) {
		return
	}

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}

	planID, ok := strings.CutPrefix(query.Data, shopCallbackPrefix)
	if !ok || planID == "" {
		return
	}
	b.sendShoppingList(ctx, query.Message.Chat.ID, userKey(query.From.ID), planID)
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.opts.AdminID == 0 || msg.From.ID != b.opts.AdminID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.deps.Usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch usage", zap.Error(err))
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatMetricsMarkdown(usage, metrics.GetSysHealth(b.opts.DataPath)))
}

func (b *Bot) saveAndShowPlan(ctx context.Context, chatID int64, messageID int, userID string, plan *planner.MealPlan) {
	plan.UserID = userID
	if err := b.deps.Plans.Save(ctx, plan); err != nil {
		b.editError(chatID, messageID, "Error saving plan", err)
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Build shopping list", shopCallbackPrefix+plan.ID),
		),
	)
	b.edit(chatID, messageID, formatPlanMarkdown(plan), &keyboard)
}

func (b *Bot) observe(ctx context.Context, meta shared.AgentMeta) {
	if b.deps.OnAgent != nil {
		b.deps.OnAgent(ctx, meta)
	}
	// Alert on Context Bloat
	if meta.Usage.PromptTokens > contextBloatTokens {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			meta.AgentName, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, meta.Usage.Model), meta.Usage.PromptTokens))
	}
}

func (b *Bot) sendStatus(chatID int64, text string) (tgbotapi.Message, bool) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(m)
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return sent, false
	}
	return sent, true
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, limitMessage(text))
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageText(chatID, messageID, limitMessage(text))
	e.ParseMode = tgbotapi.ModeMarkdown
	e.ReplyMarkup = keyboard
	if _, err := b.api.Send(e); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) editError(chatID int64, messageID int, title string, err error) {
	b.logger.Error(strings.ToLower(title), zap.Int64("chat_id", chatID), zap.Error(err))
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.edit(chatID, messageID, fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr), nil)
}

func (b *Bot) sendAdminAlert(text string) {
	if b.opts.AdminID == 0 {
		return
	}
	b.reply(b.opts.AdminID, text)
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
