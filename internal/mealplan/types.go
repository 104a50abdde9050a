package mealplan

import (
	"errors"
	"strings"
)

var (
	ErrNoFoods         = errors.New("no foods available")
	ErrTargetsRequired = errors.New("targets required")
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

func ParseMealType(s string) (MealType, bool) {
	switch MealType(strings.ToLower(strings.TrimSpace(s))) {
	case Breakfast:
		return Breakfast, true
	case Lunch:
		return Lunch, true
	case Dinner:
		return Dinner, true
	case Snack:
		return Snack, true
	case "":
		return "", true
	default:
		return "", false
	}
}

type Role string

const (
	RoleProtein Role = "protein"
	RoleCarb    Role = "carb"
	RoleFat     Role = "fat"
)

// Share of a slot's calorie budget given to each role's food.
var roleShares = map[Role]float64{
	RoleProtein: 0.35,
	RoleCarb:    0.40,
	RoleFat:     0.25,
}

type Targets struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// NewTargets builds targets from nullable weekly values. Every value must be
// present and the calorie target positive.
func NewTargets(kcal, protein, carbs, fat *float64) (Targets, error) {
	if kcal == nil || protein == nil || carbs == nil || fat == nil {
		return Targets{}, ErrTargetsRequired
	}
	t := Targets{Kcal: *kcal, ProteinG: *protein, CarbsG: *carbs, FatG: *fat}
	if err := t.validate(); err != nil {
		return Targets{}, err
	}
	return t, nil
}

func (t Targets) validate() error {
	if t.Kcal <= 0 || t.ProteinG < 0 || t.CarbsG < 0 || t.FatG < 0 {
		return ErrTargetsRequired
	}
	return nil
}

// Food carries per-100g values.
type Food struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
	Category string   `json:"category,omitempty"`
	MealType MealType `json:"meal_type,omitempty"`
}

type Slot struct {
	Name  string   `json:"name"`
	Share float64  `json:"share"`
	Main  bool     `json:"main"`
	Meal  MealType `json:"meal"`
}

func DefaultSlots() []Slot {
	return []Slot{
		{Name: "Breakfast", Share: 0.20, Main: true, Meal: Breakfast},
		{Name: "Snack 1", Share: 0.10, Meal: Snack},
		{Name: "Lunch", Share: 0.25, Main: true, Meal: Lunch},
		{Name: "Snack 2", Share: 0.10, Meal: Snack},
		{Name: "Dinner", Share: 0.25, Main: true, Meal: Dinner},
		{Name: "Snack 3", Share: 0.10, Meal: Snack},
	}
}

func DefaultDeniedCategories() []string {
	return []string{
		"alcohol",
		"alcoholic beverages",
		"alcolici",
		"bevande alcoliche",
		"wine",
		"beer",
		"spirits",
		"liquori",
		"cocktail",
	}
}

type Item struct {
	Slot     string  `json:"slot"`
	Role     Role    `json:"role"`
	Food     Food    `json:"food"`
	Grams    int     `json:"grams"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Deviation holds signed relative errors of the totals against the targets.
type Deviation struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type Plan struct {
	Targets         Targets   `json:"targets"`
	Items           []Item    `json:"items"`
	Totals          Totals    `json:"totals"`
	Error           Deviation `json:"error"`
	Score           float64   `json:"score"`
	Attempts        int       `json:"attempts"`
	WithinTolerance bool      `json:"within_tolerance"`
}

func (p *Plan) SlotItems(slot string) []Item {
	out := make([]Item, 0, 3)
	for _, it := range p.Items {
		if it.Slot == slot {
			out = append(out, it)
		}
	}
	return out
}
