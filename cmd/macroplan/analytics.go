package macroplan

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/service"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Weekly body composition and macro targets",
}

var (
	analyticsJSON        bool
	analyticsResetPhases bool
	analyticsPhase       string
	analyticsWorkout     bool
	analyticsWeekNumber  int
	analyticsWidth       int
)

var analyticsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weekly analytics with computed targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			weeks, err := service.ListAnalyticsWeeks(sqldb, profileID, time.Now())
			if err != nil {
				return err
			}
			if analyticsJSON {
				return writeJSON(cmd.OutOrStdout(), "analytics", weeks)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "WEEK\tSTART\tPHASE\tWORKOUT\tENTRIES\tWEIGHT\tBODY_FAT%\tLEAN\tFFMI\tBMR\tTDEE\tKCAL\tPROTEIN\tCARBS\tFAT")
			for _, w := range weeks {
				workout := "no"
				if w.Workout {
					workout = "yes"
				}
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					w.WeekNumber, w.WeekStart.Format("2006-01-02"), w.PhaseKey, workout, w.EntryCount,
					fmtOpt(w.AvgWeight, 2), fmtOpt(w.AvgBodyFat, 1), fmtOpt(w.LeanMass, 2), fmtOpt(w.Ffmi, 2),
					fmtOpt(w.BmrRest, 0), fmtOpt(w.BmrMotion, 0), fmtOpt(w.TargetKcal, 0),
					fmtOpt(w.ProtG, 0), fmtOpt(w.CarbsG, 0), fmtOpt(w.FatG, 0))
			}
			return nil
		})
	},
}

var analyticsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute the weekly series from the weight log",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			res, err := service.RebuildWeeklySeries(sqldb, profileID, service.RebuildOptions{ResetPhases: analyticsResetPhases})
			if err != nil {
				return err
			}
			if analyticsJSON {
				return writeJSON(cmd.OutOrStdout(), "rebuild result", res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d week(s), kept choices for %d\n", res.Weeks, res.Preserved)
			return nil
		})
	},
}

var analyticsSetCmd = &cobra.Command{
	Use:   "set <week-start>",
	Short: "Set phase, workout or display width for the week starting on a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDate("week-start", args[0])
		if err != nil {
			return err
		}
		in := service.AnalyticsWeekInput{WeekStart: start, PhaseKey: analyticsPhase}
		if cmd.Flags().Changed("workout") {
			in.Workout = &analyticsWorkout
		}
		if cmd.Flags().Changed("week") {
			in.WeekNumber = &analyticsWeekNumber
		}
		if cmd.Flags().Changed("width") {
			in.DisplayWidth = &analyticsWidth
		}
		if in.PhaseKey == "" && in.Workout == nil && in.WeekNumber == nil && in.DisplayWidth == nil {
			return fmt.Errorf("set at least one of --phase, --workout, --week or --width")
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			id, err := service.UpsertAnalyticsWeek(sqldb, profileID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved analytics week %d (%s)\n", id, start.Format("2006-01-02"))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsListCmd, analyticsRebuildCmd, analyticsSetCmd)

	analyticsListCmd.Flags().BoolVar(&analyticsJSON, "json", false, "Output JSON")
	analyticsRebuildCmd.Flags().BoolVar(&analyticsJSON, "json", false, "Output JSON")
	analyticsRebuildCmd.Flags().BoolVar(&analyticsResetPhases, "reset-phases", false, "Discard stored phase and workout choices")
	analyticsSetCmd.Flags().StringVar(&analyticsPhase, "phase", "", "Diet phase key, e.g. cut or bulk")
	analyticsSetCmd.Flags().BoolVar(&analyticsWorkout, "workout", false, "Whether the week includes training")
	analyticsSetCmd.Flags().IntVar(&analyticsWeekNumber, "week", 0, "Week number")
	analyticsSetCmd.Flags().IntVar(&analyticsWidth, "width", 0, "Display width preference")
}
