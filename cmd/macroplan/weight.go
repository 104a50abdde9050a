package macroplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/model"
	"github.com/saadjs/macroplan/internal/service"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Log weight and body fat measurements",
}

var (
	weightValue   float64
	weightUnit    string
	weightBodyFat float64
	weightDate    string
	weightTime    string
	weightNotes   string
	weightDays    int
	weightFrom    string
	weightTo      string
	weightLimit   int
	weightOutUnit string
	weightJSON    bool
	weightYes     bool
)

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a weight entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		entryAt, err := parseDateTimeOrNow(weightDate, weightTime)
		if err != nil {
			return err
		}
		in := service.WeightEntryInput{
			Weight:     weightValue,
			Unit:       weightUnit,
			BodyFatPct: optionalBodyFat(weightBodyFat),
			EntryAt:    entryAt,
			Notes:      weightNotes,
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			id, err := service.AddWeightEntry(sqldb, profileID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added weight entry %d\n", id)
			return nil
		})
	},
}

type weightListOutput struct {
	Entries []model.WeightEntry `json:"entries"`
	Stats   model.WeightStats   `json:"stats"`
}

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weight entries with averages",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.WeightFilter{Days: weightDays, FromDate: weightFrom, ToDate: weightTo, Limit: weightLimit}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			items, err := service.ListWeightEntries(sqldb, profileID, filter)
			if err != nil {
				return err
			}
			stats := service.SummarizeWeightEntries(items)
			if weightJSON {
				return writeJSON(cmd.OutOrStdout(), "weight log", weightListOutput{Entries: items, Stats: stats})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tDATE\tWEIGHT\tUNIT\tBODY_FAT%\tLEAN\tNOTES")
			for _, e := range items {
				w, err := service.WeightFromKg(e.WeightKg, weightOutUnit)
				if err != nil {
					return err
				}
				lean := "-"
				if e.LeanMassKg != nil {
					l, err := service.WeightFromKg(*e.LeanMassKg, weightOutUnit)
					if err != nil {
						return err
					}
					lean = fmt.Sprintf("%.2f", l)
				}
				fmt.Fprintf(out, "%d\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
					e.ID, e.EntryAt.Local().Format("2006-01-02 15:04"), w, weightOutUnit, fmtOpt(e.BodyFatPct, 2), lean, e.Notes)
			}
			fmt.Fprintf(out, "Entries: %d\n", stats.Count)
			if stats.AvgWeightKg != nil {
				avg, err := service.WeightFromKg(*stats.AvgWeightKg, weightOutUnit)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Average weight: %.2f %s\n", avg, weightOutUnit)
			}
			if stats.AvgBodyFatPct != nil {
				fmt.Fprintf(out, "Average body fat: %.2f%%\n", *stats.AvgBodyFatPct)
			}
			if stats.AvgLeanMassKg != nil {
				avg, err := service.WeightFromKg(*stats.AvgLeanMassKg, weightOutUnit)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Average lean mass: %.2f %s\n", avg, weightOutUnit)
			}
			return nil
		})
	},
}

var weightUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a weight entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("weight entry id", args[0])
		if err != nil {
			return err
		}
		entryAt, err := parseDateTime(weightDate, weightTime)
		if err != nil {
			return err
		}
		in := service.UpdateWeightEntryInput{
			ID: id,
			WeightEntryInput: service.WeightEntryInput{
				Weight:     weightValue,
				Unit:       weightUnit,
				BodyFatPct: optionalBodyFat(weightBodyFat),
				EntryAt:    entryAt,
				Notes:      weightNotes,
			},
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			if err := service.UpdateWeightEntry(sqldb, profileID, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated weight entry %d\n", id)
			return nil
		})
	},
}

var weightDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a weight entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("weight entry id", args[0])
		if err != nil {
			return err
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			if err := service.DeleteWeightEntry(sqldb, profileID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted weight entry %d\n", id)
			return nil
		})
	},
}

var weightClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole weight log and its analytics weeks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !weightYes {
			return fmt.Errorf("refusing to clear the weight log without --yes")
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			n, err := service.DeleteAllWeightEntries(sqldb, profileID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d weight entries and all analytics weeks\n", n)
			return nil
		})
	},
}

func optionalBodyFat(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}

func init() {
	rootCmd.AddCommand(weightCmd)
	weightCmd.AddCommand(weightAddCmd, weightListCmd, weightUpdateCmd, weightDeleteCmd, weightClearCmd)

	for _, c := range []*cobra.Command{weightAddCmd, weightUpdateCmd} {
		c.Flags().Float64Var(&weightValue, "weight", 0, "Weight value")
		c.Flags().StringVar(&weightUnit, "unit", "kg", "Weight unit: kg or lb")
		c.Flags().Float64Var(&weightBodyFat, "body-fat", -1, "Body fat percentage (optional)")
		c.Flags().StringVar(&weightDate, "date", "", "Date YYYY-MM-DD")
		c.Flags().StringVar(&weightTime, "time", "", "Time HH:MM")
		c.Flags().StringVar(&weightNotes, "notes", "", "Optional notes")
		_ = c.MarkFlagRequired("weight")
	}
	_ = weightUpdateCmd.MarkFlagRequired("date")
	_ = weightUpdateCmd.MarkFlagRequired("time")

	weightListCmd.Flags().IntVar(&weightDays, "days", 0, "Only entries from the last N days")
	weightListCmd.Flags().StringVar(&weightFrom, "from", "", "Filter from date YYYY-MM-DD")
	weightListCmd.Flags().StringVar(&weightTo, "to", "", "Filter to date YYYY-MM-DD")
	weightListCmd.Flags().IntVar(&weightLimit, "limit", 0, "Result limit (0 for all)")
	weightListCmd.Flags().StringVar(&weightOutUnit, "unit", "kg", "Output unit: kg or lb")
	weightListCmd.Flags().BoolVar(&weightJSON, "json", false, "Output JSON")

	weightClearCmd.Flags().BoolVar(&weightYes, "yes", false, "Confirm deletion")
}
