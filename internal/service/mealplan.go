package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/saadjs/macroplan/internal/model"
)

type GenerateMealPlanRequest struct {
	// Targets overrides the latest analytics week when set.
	Targets *mealplan.Targets
	AsOf    time.Time
	Timeout time.Duration
	Options mealplan.Options
}

type GeneratedMealPlan struct {
	Week *model.AnalyticsWeek `json:"week,omitempty"`
	Plan *mealplan.Plan       `json:"plan"`
}

type SaveMealPlanInput struct {
	PlanDate  time.Time
	WeekStart *time.Time
}

// LatestAnalyticsWeek returns the most recent stored week with its metrics.
func LatestAnalyticsWeek(db *sql.DB, profileID int64, asOf time.Time) (*model.AnalyticsWeek, error) {
	weeks, err := ListAnalyticsWeeks(db, profileID, asOf)
	if err != nil {
		return nil, err
	}
	if len(weeks) == 0 {
		return nil, fmt.Errorf("no analytics weeks for profile %d; run 'macroplan analytics rebuild': %w", profileID, mealplan.ErrTargetsRequired)
	}
	latest := weeks[len(weeks)-1]
	return &latest, nil
}

// GenerateMealPlan builds a plan for the profile from the food catalog using
// the latest week's targets unless explicit targets are given.
func GenerateMealPlan(ctx context.Context, db *sql.DB, profileID int64, req GenerateMealPlanRequest) (*GeneratedMealPlan, error) {
	if req.AsOf.IsZero() {
		req.AsOf = time.Now()
	}
	out := &GeneratedMealPlan{}
	var targets mealplan.Targets
	if req.Targets != nil {
		targets = *req.Targets
	} else {
		week, err := LatestAnalyticsWeek(db, profileID, req.AsOf)
		if err != nil {
			return nil, err
		}
		targets, err = mealplan.NewTargets(week.TargetKcal, week.ProtG, week.CarbsG, week.FatG)
		if err != nil {
			return nil, fmt.Errorf("week %d starting %s: %w", week.WeekNumber, formatDate(week.WeekStart), err)
		}
		out.Week = week
	}

	foods, err := ListFoods(db, FoodFilter{})
	if err != nil {
		return nil, err
	}

	opts := req.Options
	if opts.Logger == nil {
		opts.Logger = logger
	}
	if len(opts.Slots) == 0 {
		slots, err := ListMealSlots(db)
		if err != nil {
			return nil, err
		}
		opts.Slots = generatorSlots(slots)
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	plan, err := mealplan.Generate(ctx, targets, generatorFoods(foods), opts)
	if err != nil {
		return nil, err
	}
	out.Plan = plan
	logger.Info("meal plan generated", zapProfile(profileID),
		zap.Int("items", len(plan.Items)),
		zap.Int("attempts", plan.Attempts),
		zap.Float64("score", plan.Score))
	return out, nil
}

// SaveMealPlan stores the plan as flat rows under a new id. Slots missing from
// the slot table are created on the fly.
func SaveMealPlan(db *sql.DB, profileID int64, plan *mealplan.Plan, in SaveMealPlanInput) (string, error) {
	if plan == nil || len(plan.Items) == 0 {
		return "", fmt.Errorf("meal plan has no items")
	}
	if in.PlanDate.IsZero() {
		in.PlanDate = time.Now()
	}
	var weekStart any
	if in.WeekStart != nil {
		weekStart = formatDate(*in.WeekStart)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save meal plan tx: %w", err)
	}
	planID := uuid.NewString()
	slotIDs := map[string]int64{}
	for _, it := range plan.Items {
		slotID, ok := slotIDs[it.Slot]
		if !ok {
			slotID, err = ensureMealSlot(tx, it.Slot, slotShare(plan, it.Slot))
			if err != nil {
				_ = tx.Rollback()
				return "", err
			}
			slotIDs[it.Slot] = slotID
		}
		var foodID any
		if it.Food.ID > 0 {
			foodID = it.Food.ID
		}
		if _, err := tx.Exec(`
INSERT INTO meal_plans(plan_uuid, profile_id, week_start, plan_date, slot_id, food_id, food_name, role, grams, calories, protein_g, carbs_g, fat_g, score)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, planID, profileID, weekStart, formatDate(in.PlanDate), slotID, foodID, it.Food.Name, string(it.Role), it.Grams,
			it.Calories, it.Protein, it.Carbs, it.Fat, plan.Score); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("insert meal plan item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save meal plan tx: %w", err)
	}
	logger.Info("meal plan saved", zapProfile(profileID), zap.String("plan", planID), zap.Int("items", len(plan.Items)))
	return planID, nil
}

func ListMealSlots(db *sql.DB) ([]model.MealSlot, error) {
	rows, err := db.Query(`
SELECT s.id, s.name, s.share, s.is_main, IFNULL(mt.name, ''), s.position
FROM meal_slots s
LEFT JOIN meal_types mt ON mt.id = s.meal_type_id
ORDER BY s.position ASC, s.id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list meal slots: %w", err)
	}
	defer rows.Close()
	out := make([]model.MealSlot, 0)
	for rows.Next() {
		var s model.MealSlot
		var main int
		if err := rows.Scan(&s.ID, &s.Name, &s.Share, &main, &s.MealType, &s.Position); err != nil {
			return nil, fmt.Errorf("scan meal slot: %w", err)
		}
		s.Main = main == 1
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal slots: %w", err)
	}
	return out, nil
}

// generatorSlots skips slots without a meal type, such as those created when
// saving a plan with custom slot names.
func generatorSlots(slots []model.MealSlot) []mealplan.Slot {
	out := make([]mealplan.Slot, 0, len(slots))
	for _, s := range slots {
		mt, ok := mealplan.ParseMealType(s.MealType)
		if !ok || mt == "" {
			continue
		}
		out = append(out, mealplan.Slot{Name: s.Name, Share: s.Share, Main: s.Main, Meal: mt})
	}
	return out
}

func ensureMealSlot(tx *sql.Tx, name string, share float64) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM meal_slots WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup meal slot %q: %w", name, err)
	}
	res, err := tx.Exec(`
INSERT INTO meal_slots(name, share, is_main, position)
VALUES(?, ?, 0, (SELECT IFNULL(MAX(position), 0) + 1 FROM meal_slots))
`, name, share)
	if err != nil {
		return 0, fmt.Errorf("create meal slot %q: %w", name, err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve meal slot id: %w", err)
	}
	return id, nil
}

func slotShare(plan *mealplan.Plan, slot string) float64 {
	if plan.Totals.Calories <= 0 {
		return 1
	}
	var kcal float64
	for _, it := range plan.SlotItems(slot) {
		kcal += it.Calories
	}
	share := kcal / plan.Totals.Calories
	if share <= 0 || share > 1 {
		return 1
	}
	return share
}

func ListMealPlans(db *sql.DB, profileID int64, limit int) ([]model.SavedMealPlanSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
SELECT plan_uuid, plan_date, COUNT(1), SUM(calories), MIN(created_at)
FROM meal_plans
WHERE profile_id = ?
GROUP BY plan_uuid
ORDER BY MIN(id) DESC
LIMIT ?
`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	defer rows.Close()

	out := make([]model.SavedMealPlanSummary, 0)
	for rows.Next() {
		var s model.SavedMealPlanSummary
		var dateRaw, createdRaw string
		if err := rows.Scan(&s.UUID, &dateRaw, &s.Items, &s.Calories, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan meal plan: %w", err)
		}
		if s.PlanDate, err = parseDate(dateRaw); err != nil {
			return nil, err
		}
		s.CreatedAt = parseSQLiteTime(createdRaw)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal plans: %w", err)
	}
	return out, nil
}

func GetMealPlan(db *sql.DB, profileID int64, planID string) (*model.SavedMealPlan, error) {
	planID = strings.TrimSpace(planID)
	if _, err := uuid.Parse(planID); err != nil {
		return nil, fmt.Errorf("invalid meal plan id %q", planID)
	}
	rows, err := db.Query(`
SELECT mp.plan_date, mp.week_start, mp.score, mp.created_at, s.name, mp.food_id, mp.food_name, mp.role,
       mp.grams, mp.calories, mp.protein_g, mp.carbs_g, mp.fat_g
FROM meal_plans mp
JOIN meal_slots s ON s.id = mp.slot_id
WHERE mp.profile_id = ? AND mp.plan_uuid = ?
ORDER BY s.position ASC, mp.id ASC
`, profileID, planID)
	if err != nil {
		return nil, fmt.Errorf("get meal plan %s: %w", planID, err)
	}
	defer rows.Close()

	plan := &model.SavedMealPlan{UUID: planID, ProfileID: profileID}
	for rows.Next() {
		var it model.SavedMealPlanItem
		var dateRaw, createdRaw string
		var weekRaw sql.NullString
		var score sql.NullFloat64
		var foodID sql.NullInt64
		if err := rows.Scan(&dateRaw, &weekRaw, &score, &createdRaw, &it.Slot, &foodID, &it.FoodName, &it.Role,
			&it.Grams, &it.Calories, &it.ProteinG, &it.CarbsG, &it.FatG); err != nil {
			return nil, fmt.Errorf("scan meal plan item: %w", err)
		}
		if len(plan.Items) == 0 {
			if plan.PlanDate, err = parseDate(dateRaw); err != nil {
				return nil, err
			}
			if weekRaw.Valid {
				ws, err := parseDate(weekRaw.String)
				if err != nil {
					return nil, err
				}
				plan.WeekStart = &ws
			}
			plan.Score = nullFloat(score)
			plan.CreatedAt = parseSQLiteTime(createdRaw)
		}
		it.FoodID = nullInt64(foodID)
		plan.Items = append(plan.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal plan items: %w", err)
	}
	if len(plan.Items) == 0 {
		return nil, fmt.Errorf("meal plan %s: %w", planID, ErrNotFound)
	}
	return plan, nil
}

func DeleteMealPlan(db *sql.DB, profileID int64, planID string) error {
	res, err := db.Exec(`DELETE FROM meal_plans WHERE profile_id = ? AND plan_uuid = ?`, profileID, strings.TrimSpace(planID))
	if err != nil {
		return fmt.Errorf("delete meal plan %s: %w", planID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("meal plan %s: %w", planID, ErrNotFound)
	}
	return nil
}

func parseSQLiteTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
