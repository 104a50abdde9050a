package service

import (
	"bytes"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/saadjs/macroplan/internal/model"
)

const (
	sheetAnalytics = "Weekly Analytics"
	sheetPhases    = "Diet Phases"
	sheetMealPlan  = "Meal Plan"
)

var analyticsHeader = []string{
	"Week", "Week Start", "Phase", "Workout", "Entries", "Avg Weight", "Avg Body Fat %", "Fat Mass", "Lean Mass",
	"FFMI", "BMR Rest", "BMR Motion", "Offset", "Target kcal", "Protein g", "Carbs g", "Fat g",
	"Protein %", "Carbs %", "Fat %",
}

var phasesHeader = []string{"Phase", "Protein g/kg lean", "Fat g/kg body", "Calorie offset"}

var mealPlanHeader = []string{"Slot", "Role", "Food", "Grams", "kcal", "Protein g", "Carbs g", "Fat g"}

type WorkbookInput struct {
	AsOf   time.Time
	PlanID string
}

// ExportWorkbook renders the profile's weekly analytics, diet phases and
// optionally one saved meal plan as an xlsx document.
func ExportWorkbook(db *sql.DB, profileID int64, in WorkbookInput) ([]byte, error) {
	if in.AsOf.IsZero() {
		in.AsOf = time.Now()
	}
	weeks, err := ListAnalyticsWeeks(db, profileID, in.AsOf)
	if err != nil {
		return nil, err
	}
	phases, err := ListDietPhases(db, profileID)
	if err != nil {
		return nil, err
	}
	var plan *model.SavedMealPlan
	if in.PlanID != "" {
		plan, err = GetMealPlan(db, profileID, in.PlanID)
		if err != nil {
			return nil, err
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]any, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []any{
			w.WeekNumber, formatDate(w.WeekStart), w.PhaseKey, workoutFlag(w.Workout), w.EntryCount,
			cellFloat(w.AvgWeight), cellFloat(w.AvgBodyFat), cellFloat(w.FatMass), cellFloat(w.LeanMass),
			cellFloat(w.Ffmi), cellFloat(w.BmrRest), cellFloat(w.BmrMotion), cellFloat(w.Offset),
			cellFloat(w.TargetKcal), cellFloat(w.ProtG), cellFloat(w.CarbsG), cellFloat(w.FatG),
			cellFloat(w.PercProt), cellFloat(w.PercCarbs), cellFloat(w.PercFat),
		})
	}
	if err := writeSheet(f, sheetAnalytics, analyticsHeader, rows, headerStyle); err != nil {
		return nil, err
	}

	rows = rows[:0]
	for _, p := range phases {
		rows = append(rows, []any{p.Key, p.ProteinPerKgLean, p.FatPerKgBody, p.CalorieOffset})
	}
	if err := writeSheet(f, sheetPhases, phasesHeader, rows, headerStyle); err != nil {
		return nil, err
	}

	if plan != nil {
		rows = rows[:0]
		for _, it := range plan.Items {
			rows = append(rows, []any{it.Slot, it.Role, it.FoodName, it.Grams, round1(it.Calories), round1(it.ProteinG), round1(it.CarbsG), round1(it.FatG)})
		}
		if err := writeSheet(f, sheetMealPlan, mealPlanHeader, rows, headerStyle); err != nil {
			return nil, err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("remove default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(sheetAnalytics); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("resolve header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("resolve row %d: %w", i+2, err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("resolve last column: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return fmt.Errorf("set %s column width: %w", sheet, err)
	}
	return nil
}

func cellFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return round1(*v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
