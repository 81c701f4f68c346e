package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/grocery"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/metrics"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/planner"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

// Telegram rejects messages longer than this many characters.
const maxMessageLen = 4096

const truncatedSuffix = "\n…"

func formatPlanMarkdown(plan *planner.MealPlan) string {
	var pb strings.Builder
	pb.WriteString("📅 *Meal Plan*\n")

	if t := plan.Target; t.Calories > 0 {
		pb.WriteString(fmt.Sprintf("🎯 %d kcal/day (P %dg, C %dg, F %dg)\n", t.Calories, t.ProteinG, t.CarbsG, t.FatG))
	}
	if plan.Request != "" {
		pb.WriteString(fmt.Sprintf("_%s_\n", escape(plan.Request)))
	}

	for _, dp := range plan.Days {
		pb.WriteString(fmt.Sprintf("\n*%s*\n", escape(dp.Day)))
		for _, m := range dp.Meals {
			pb.WriteString("• ")
			if m.MealType != "" {
				pb.WriteString(escape(capitalize(m.MealType)) + ": ")
			}
			pb.WriteString(escape(m.Name))
			if m.Calories > 0 {
				pb.WriteString(fmt.Sprintf(" (%d kcal)", m.Calories))
			}
			pb.WriteString("\n")
		}
	}
	return pb.String()
}

func formatShoppingListMarkdown(list *shopping.ShoppingList) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")

	// Group by category, keeping the order categories first appear in.
	var categories []string
	byCategory := make(map[string][]shopping.LineItem)
	for _, item := range list.Items {
		cat := strings.TrimSpace(item.Category)
		if cat == "" {
			cat = "Other"
		}
		if _, seen := byCategory[cat]; !seen {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], item)
	}

	for _, cat := range categories {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", escape(cat)))
		for _, item := range byCategory[cat] {
			mark := "•"
			if item.Purchased {
				mark = "✅"
			}
			amount := item.PackagingNote
			if amount == "" {
				amount = strings.TrimSpace(grocery.FormatQuantity(item.Quantity) + " " + item.Unit)
			}
			sb.WriteString(fmt.Sprintf("%s %s: %s (%s)\n", mark, escape(item.Name), escape(amount), dollars(item.EstimatedCost)))
		}
	}

	sb.WriteString(fmt.Sprintf("\n💰 *Total:* %s", dollars(list.Total)))
	if remaining := list.RemainingCost(); !remaining.Equal(list.Total) {
		sb.WriteString(fmt.Sprintf("\n🧾 *Remaining:* %s", dollars(remaining)))
	}
	return sb.String()
}

func formatMetricsMarkdown(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs, avg %dms)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.AvgLatencyMS))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	return sb.String()
}

func dollars(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func limitMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return text
	}
	return string(runes[:maxMessageLen-len([]rune(truncatedSuffix))]) + truncatedSuffix
}
