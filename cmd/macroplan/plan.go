package macroplan

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/saadjs/macroplan/internal/service"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and review daily meal plans",
}

var (
	planSeed     int64
	planAttempts int
	planSave     bool
	planJSON     bool
	planDate     string
	planKcal     float64
	planProtein  float64
	planCarbs    float64
	planFat      float64
	planLimit    int
)

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a meal plan for the latest week's targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := planTargetsFromFlags(cmd)
		if err != nil {
			return err
		}
		var day time.Time
		if planDate != "" {
			if day, err = parseDate("date", planDate); err != nil {
				return err
			}
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			opts := cfg.MealPlan.GenerateOptions()
			stored, err := service.PlanAttempts(sqldb)
			if err != nil {
				return err
			}
			if stored > 0 {
				opts.Attempts = stored
			}
			if cmd.Flags().Changed("attempts") {
				opts.Attempts = planAttempts
			}
			seed := cfg.MealPlan.Seed
			if cmd.Flags().Changed("seed") {
				seed = planSeed
			}
			if seed != 0 {
				opts.Rand = rand.New(rand.NewSource(seed))
			}
			opts.Logger = logger

			out, err := service.GenerateMealPlan(context.Background(), sqldb, profileID, service.GenerateMealPlanRequest{
				Targets: targets,
				Timeout: cfg.MealPlan.Timeout,
				Options: opts,
			})
			if err != nil {
				return err
			}

			var planID string
			if planSave {
				in := service.SaveMealPlanInput{PlanDate: day}
				if out.Week != nil {
					ws := out.Week.WeekStart
					in.WeekStart = &ws
				}
				if planID, err = service.SaveMealPlan(sqldb, profileID, out.Plan, in); err != nil {
					return err
				}
			}
			if planJSON {
				return writeJSON(cmd.OutOrStdout(), "meal plan", struct {
					*service.GeneratedMealPlan
					UUID string `json:"uuid,omitempty"`
				}{out, planID})
			}
			printPlan(cmd, out)
			if planID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved meal plan %s\n", planID)
			}
			return nil
		})
	},
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved meal plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			items, err := service.ListMealPlans(sqldb, profileID, planLimit)
			if err != nil {
				return err
			}
			if planJSON {
				return writeJSON(cmd.OutOrStdout(), "meal plans", items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "UUID\tDATE\tITEMS\tKCAL")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%.0f\n", p.UUID, p.PlanDate.Format("2006-01-02"), p.Items, p.Calories)
			}
			return nil
		})
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <uuid>",
	Short: "Show a saved meal plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			p, err := service.GetMealPlan(sqldb, profileID, args[0])
			if err != nil {
				return err
			}
			if planJSON {
				return writeJSON(cmd.OutOrStdout(), "meal plan", p)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan %s for %s\n", p.UUID, p.PlanDate.Format("2006-01-02"))
			fmt.Fprintln(out, "SLOT\tROLE\tFOOD\tGRAMS\tKCAL\tPROTEIN\tCARBS\tFAT")
			var total float64
			for _, it := range p.Items {
				fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%.0f\t%.1f\t%.1f\t%.1f\n",
					it.Slot, it.Role, it.FoodName, it.Grams, it.Calories, it.ProteinG, it.CarbsG, it.FatG)
				total += it.Calories
			}
			fmt.Fprintf(out, "Total: %.0f kcal\n", total)
			return nil
		})
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <uuid>",
	Short: "Delete a saved meal plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			if err := service.DeleteMealPlan(sqldb, profileID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted meal plan %s\n", args[0])
			return nil
		})
	},
}

// planTargetsFromFlags returns explicit targets when any macro flag is set.
// Partial overrides are rejected so a plan never mixes week and manual values.
func planTargetsFromFlags(cmd *cobra.Command) (*mealplan.Targets, error) {
	set := 0
	for _, name := range []string{"kcal", "protein", "carbs", "fat"} {
		if cmd.Flags().Changed(name) {
			set++
		}
	}
	if set == 0 {
		return nil, nil
	}
	if set != 4 {
		return nil, fmt.Errorf("--kcal, --protein, --carbs and --fat must be given together")
	}
	t, err := mealplan.NewTargets(&planKcal, &planProtein, &planCarbs, &planFat)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func printPlan(cmd *cobra.Command, out *service.GeneratedMealPlan) {
	w := cmd.OutOrStdout()
	p := out.Plan
	if out.Week != nil {
		fmt.Fprintf(w, "Week %d starting %s (%s)\n", out.Week.WeekNumber, out.Week.WeekStart.Format("2006-01-02"), out.Week.PhaseKey)
	}
	fmt.Fprintln(w, "SLOT\tROLE\tFOOD\tGRAMS\tKCAL\tPROTEIN\tCARBS\tFAT")
	for _, it := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\t%.1f\t%.1f\t%.1f\n",
			it.Slot, it.Role, it.Food.Name, it.Grams, it.Calories, it.Protein, it.Carbs, it.Fat)
	}
	fmt.Fprintln(w, "\tTARGET\tACTUAL\tDELTA")
	fmt.Fprintf(w, "kcal\t%.0f\t%.0f\t%s\n", p.Targets.Kcal, p.Totals.Calories, mealplan.FormatDelta(p.Error.Kcal))
	fmt.Fprintf(w, "protein\t%.0f\t%.0f\t%s\n", p.Targets.ProteinG, p.Totals.Protein, mealplan.FormatDelta(p.Error.Protein))
	fmt.Fprintf(w, "carbs\t%.0f\t%.0f\t%s\n", p.Targets.CarbsG, p.Totals.Carbs, mealplan.FormatDelta(p.Error.Carbs))
	fmt.Fprintf(w, "fat\t%.0f\t%.0f\t%s\n", p.Targets.FatG, p.Totals.Fat, mealplan.FormatDelta(p.Error.Fat))
	status := "within tolerance"
	if !p.WithinTolerance {
		status = "best effort, outside tolerance"
	}
	fmt.Fprintf(w, "Attempts: %d, score %.4f (%s)\n", p.Attempts, p.Score, status)
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planGenerateCmd, planListCmd, planShowCmd, planDeleteCmd)

	planGenerateCmd.Flags().Int64Var(&planSeed, "seed", 0, "Random seed for a reproducible plan")
	planGenerateCmd.Flags().IntVar(&planAttempts, "attempts", 0, "Attempt budget")
	planGenerateCmd.Flags().BoolVar(&planSave, "save", false, "Save the generated plan")
	planGenerateCmd.Flags().StringVar(&planDate, "date", "", "Plan date YYYY-MM-DD (default today)")
	planGenerateCmd.Flags().Float64Var(&planKcal, "kcal", 0, "Calorie target")
	planGenerateCmd.Flags().Float64Var(&planProtein, "protein", 0, "Protein target in grams")
	planGenerateCmd.Flags().Float64Var(&planCarbs, "carbs", 0, "Carb target in grams")
	planGenerateCmd.Flags().Float64Var(&planFat, "fat", 0, "Fat target in grams")

	for _, c := range []*cobra.Command{planGenerateCmd, planListCmd, planShowCmd} {
		c.Flags().BoolVar(&planJSON, "json", false, "Output JSON")
	}
	planListCmd.Flags().IntVar(&planLimit, "limit", 20, "Result limit")
}
