package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/llm"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shopping"
)

//go:embed planner_prompt.md
var plannerPrompt string

var promptFuncs = template.FuncMap{"join": strings.Join}

var plannerTemplate = template.Must(template.New("Planner").Funcs(promptFuncs).Parse(plannerPrompt))

// ErrEmptyPlan is returned when the model answers with no usable meals.
var ErrEmptyPlan = errors.New("generated plan has no meals")

type plannerPromptData struct {
	Profile DietaryProfile
	Target  NutritionTarget
	Request string
}

// Planner handles the generation of meal plans.
type Planner struct {
	textGen llm.TextGenerator
	logger  *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		textGen: textGen,
		logger:  logger.Named("planner"),
	}
}

// GeneratePlan asks the model for a plan matching the profile's nutrition
// target. Ingredients the model could not quantify are dropped.
func (p *Planner) GeneratePlan(ctx context.Context, profile DietaryProfile, request string) (*MealPlan, shared.AgentMeta, error) {
	if err := profile.Validate(); err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("invalid profile: %w", err)
	}

	start := time.Now()
	target := profile.NutritionTarget()

	prompt, err := renderPrompt(plannerTemplate, plannerPromptData{
		Profile: profile,
		Target:  target,
		Request: strings.TrimSpace(request),
	})
	if err != nil {
		return nil, shared.AgentMeta{}, err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to generate meal plan from LLM: %w", err)
	}
	meta := shared.NewAgentMeta("Planner", resp.Usage, start)

	days, err := parseDays(resp.Content)
	if err != nil {
		return nil, meta, err
	}

	plan := &MealPlan{
		UserID:  profile.UserID,
		Request: strings.TrimSpace(request),
		Target:  target,
		Days:    days,
	}
	p.sanitize(plan)
	if plan.MealCount() == 0 {
		return nil, meta, ErrEmptyPlan
	}

	p.logger.Info("meal plan generated",
		zap.String("user_id", profile.UserID),
		zap.Int("days", len(plan.Days)),
		zap.Int("meals", plan.MealCount()),
		zap.Int("target_calories", target.Calories),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return plan, meta, nil
}

func parseDays(content string) ([]DayPlan, error) {
	var raw struct {
		Days []DayPlan `json:"days"`
	}
	if err := json.Unmarshal([]byte(shared.ExtractJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse meal plan JSON: %w. Response: %s", err, content)
	}
	return raw.Days, nil
}

// sanitize drops ingredients the shopping list would reject, so model noise
// never fails list generation.
func (p *Planner) sanitize(plan *MealPlan) {
	var dropped int
	for d := range plan.Days {
		meals := plan.Days[d].Meals[:0]
		for _, m := range plan.Days[d].Meals {
			if strings.TrimSpace(m.Name) == "" {
				continue
			}
			kept := m.Ingredients[:0]
			for _, ing := range m.Ingredients {
				if shopping.ValidateUsages([]shopping.IngredientUsage{ing}) != nil {
					dropped++
					continue
				}
				kept = append(kept, ing)
			}
			m.Ingredients = kept
			meals = append(meals, m)
		}
		plan.Days[d].Meals = meals
	}

	if dropped > 0 {
		p.logger.Warn("dropped unusable ingredients from generated plan", zap.Int("count", dropped))
	}
}

func renderPrompt(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
