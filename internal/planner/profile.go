package planner

import (
	"fmt"
	"math"
)

// Sex selects the constant term of the BMR equation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ActivityLevel scales the resting metabolic rate.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// Goal shifts the daily calorie target.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

var goalAdjustments = map[Goal]float64{
	GoalLose:     -500,
	GoalMaintain: 0,
	GoalGain:     300,
}

// minimumCalories keeps aggressive cuts from producing unsafe targets.
const minimumCalories = 1200

// DietaryProfile describes the person a plan is generated for.
type DietaryProfile struct {
	UserID              string        `json:"user_id,omitempty"`
	Age                 int           `json:"age"`
	Sex                 Sex           `json:"sex"`
	HeightCM            float64       `json:"height_cm"`
	WeightKG            float64       `json:"weight_kg"`
	ActivityLevel       ActivityLevel `json:"activity_level"`
	Goal                Goal          `json:"goal"`
	DietaryRestrictions []string      `json:"dietary_restrictions,omitempty"`
	Allergies           []string      `json:"allergies,omitempty"`
	MealsPerDay         int           `json:"meals_per_day"`
	Days                int           `json:"days"`
}

// NutritionTarget is the daily intake a plan aims for.
type NutritionTarget struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// Validate rejects profiles the calorie math cannot handle.
func (p DietaryProfile) Validate() error {
	if p.Age < 13 || p.Age > 120 {
		return fmt.Errorf("age must be between 13 and 120, got %d", p.Age)
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return fmt.Errorf("sex must be %q or %q, got %q", SexMale, SexFemale, p.Sex)
	}
	if p.HeightCM < 100 || p.HeightCM > 250 {
		return fmt.Errorf("height_cm must be between 100 and 250, got %v", p.HeightCM)
	}
	if p.WeightKG < 30 || p.WeightKG > 350 {
		return fmt.Errorf("weight_kg must be between 30 and 350, got %v", p.WeightKG)
	}
	if _, ok := activityFactors[p.ActivityLevel]; !ok {
		return fmt.Errorf("unknown activity_level %q", p.ActivityLevel)
	}
	if _, ok := goalAdjustments[p.Goal]; !ok {
		return fmt.Errorf("unknown goal %q", p.Goal)
	}
	if p.MealsPerDay < 1 || p.MealsPerDay > 6 {
		return fmt.Errorf("meals_per_day must be between 1 and 6, got %d", p.MealsPerDay)
	}
	if p.Days < 1 || p.Days > 14 {
		return fmt.Errorf("days must be between 1 and 14, got %d", p.Days)
	}
	return nil
}

// NutritionTarget derives daily calories with the Mifflin-St Jeor equation
// and splits them 30/40/30 between protein, carbohydrates and fat.
func (p DietaryProfile) NutritionTarget() NutritionTarget {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	factor, ok := activityFactors[p.ActivityLevel]
	if !ok {
		factor = activityFactors[ActivitySedentary]
	}

	calories := bmr*factor + goalAdjustments[p.Goal]
	if calories < minimumCalories {
		calories = minimumCalories
	}
	calories = math.Round(calories)

	return NutritionTarget{
		Calories: int(calories),
		ProteinG: int(math.Round(calories * 0.30 / 4)),
		CarbsG:   int(math.Round(calories * 0.40 / 4)),
		FatG:     int(math.Round(calories * 0.30 / 9)),
	}
}
