package planner

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/odudu-basi/diet-plan-walmart-shop/internal/shared"
)

//go:embed plan_reviewer_prompt.md
var planReviewerPrompt string

var planReviewerTemplate = template.Must(template.New("PlanReviewer").Parse(planReviewerPrompt))

type planReviewerPromptData struct {
	OriginalRequest string
	Target          NutritionTarget
	CurrentPlanJSON string
	Feedback        string
}

// AdjustPlan revises a plan according to free-text feedback. The result is a
// new, unsaved plan that keeps the owner, request and target of the original.
func (p *Planner) AdjustPlan(ctx context.Context, current *MealPlan, feedback string) (*MealPlan, shared.AgentMeta, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, shared.AgentMeta{}, fmt.Errorf("feedback must not be empty")
	}

	start := time.Now()

	currentJSON, err := json.MarshalIndent(struct {
		Days []DayPlan `json:"days"`
	}{current.Days}, "", "  ")
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to marshal current plan: %w", err)
	}

	prompt, err := renderPrompt(planReviewerTemplate, planReviewerPromptData{
		OriginalRequest: current.Request,
		Target:          current.Target,
		CurrentPlanJSON: string(currentJSON),
		Feedback:        feedback,
	})
	if err != nil {
		return nil, shared.AgentMeta{}, err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to revise meal plan: %w", err)
	}
	meta := shared.NewAgentMeta("PlanReviewer", resp.Usage, start)

	days, err := parseDays(resp.Content)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to parse plan reviewer response: %w", err)
	}

	revised := &MealPlan{
		UserID:  current.UserID,
		Request: current.Request,
		Target:  current.Target,
		Days:    days,
	}
	p.sanitize(revised)
	if revised.MealCount() == 0 {
		return nil, meta, ErrEmptyPlan
	}

	p.logger.Info("meal plan adjusted",
		zap.String("user_id", current.UserID),
		zap.String("previous_plan_id", current.ID),
		zap.Int("meals", revised.MealCount()),
	)
	return revised, meta, nil
}
