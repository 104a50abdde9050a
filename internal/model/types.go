package model

import (
	"time"

	"github.com/saadjs/macroplan/internal/analytics"
)

type Profile struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	HeightCm      *float64   `json:"height_cm"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Sex           string     `json:"sex"`
	ActivityLevel int        `json:"activity_level"`
	Role          string     `json:"role"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Engine converts the stored profile into the analytics input form.
func (p Profile) Engine() analytics.Profile {
	out := analytics.Profile{Sex: analytics.Sex(p.Sex), ActivityLevel: p.ActivityLevel}
	if p.HeightCm != nil {
		out.HeightCm = *p.HeightCm
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = *p.DateOfBirth
	}
	return out
}

type WeightEntry struct {
	ID         int64     `json:"id"`
	ProfileID  int64     `json:"profile_id"`
	EntryAt    time.Time `json:"entry_at"`
	WeightKg   float64   `json:"weight_kg"`
	BodyFatPct *float64  `json:"body_fat_pct"`
	LeanMassKg *float64  `json:"lean_mass_kg"`
	Notes      string    `json:"notes"`
}

type WeightStats struct {
	Count         int      `json:"count"`
	AvgWeightKg   *float64 `json:"avg_weight_kg"`
	AvgBodyFatPct *float64 `json:"avg_body_fat_pct"`
	AvgLeanMassKg *float64 `json:"avg_lean_mass_kg"`
}

type DietPhase struct {
	ID               int64   `json:"id"`
	ProfileID        int64   `json:"profile_id"`
	Key              string  `json:"key"`
	ProteinPerKgLean float64 `json:"protein_per_kg_lean"`
	FatPerKgBody     float64 `json:"fat_per_kg_body"`
	CalorieOffset    int     `json:"calorie_offset"`
}

func (p DietPhase) Engine() analytics.Phase {
	return analytics.Phase{
		Key:              p.Key,
		ProteinPerKgLean: p.ProteinPerKgLean,
		FatPerKgBody:     p.FatPerKgBody,
		CalorieOffset:    p.CalorieOffset,
	}
}

// AnalyticsWeek pairs the stored per-week choices with metrics computed at
// read time.
type AnalyticsWeek struct {
	ID           int64     `json:"id"`
	ProfileID    int64     `json:"profile_id"`
	WeekStart    time.Time `json:"week_start"`
	WeekNumber   int       `json:"week_number"`
	Workout      bool      `json:"workout"`
	PhaseID      *int64    `json:"phase_id"`
	PhaseKey     string    `json:"phase_key"`
	DisplayWidth *int      `json:"display_width"`
	EntryCount   int       `json:"entry_count"`
	analytics.Metrics
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	FoodCount int       `json:"food_count"`
	CreatedAt time.Time `json:"created_at"`
}

type MealType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Food struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Calories   float64 `json:"calories"`
	ProteinG   float64 `json:"protein_g"`
	CarbsG     float64 `json:"carbs_g"`
	FatG       float64 `json:"fat_g"`
	CategoryID *int64  `json:"category_id"`
	Category   string  `json:"category"`
	MealTypeID *int64  `json:"meal_type_id"`
	MealType   string  `json:"meal_type"`
	CreatedBy  *int64  `json:"created_by"`
	Source     string  `json:"source"`
	SourceRef  string  `json:"source_ref"`
}

type MealSlot struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Share    float64 `json:"share"`
	Main     bool    `json:"main"`
	MealType string  `json:"meal_type"`
	Position int     `json:"position"`
}

type SavedMealPlan struct {
	UUID      string              `json:"uuid"`
	ProfileID int64               `json:"profile_id"`
	WeekStart *time.Time          `json:"week_start"`
	PlanDate  time.Time           `json:"plan_date"`
	Score     *float64            `json:"score"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []SavedMealPlanItem `json:"items"`
}

type SavedMealPlanItem struct {
	Slot     string  `json:"slot"`
	FoodID   *int64  `json:"food_id"`
	FoodName string  `json:"food_name"`
	Role     string  `json:"role"`
	Grams    int     `json:"grams"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

type SavedMealPlanSummary struct {
	UUID      string    `json:"uuid"`
	PlanDate  time.Time `json:"plan_date"`
	Items     int       `json:"items"`
	Calories  float64   `json:"calories"`
	CreatedAt time.Time `json:"created_at"`
}
