package macroplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/service"
)

var phaseCmd = &cobra.Command{
	Use:   "phase",
	Short: "Manage diet phase coefficients",
}

var (
	phaseProtein float64
	phaseFat     float64
	phaseOffset  float64
	phaseJSON    bool
)

var phaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List diet phases",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			items, err := service.ListDietPhases(sqldb, profileID)
			if err != nil {
				return err
			}
			if phaseJSON {
				return writeJSON(cmd.OutOrStdout(), "diet phases", items)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PHASE\tPROTEIN_G_PER_KG_LEAN\tFAT_G_PER_KG\tOFFSET_KCAL")
			for _, p := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\t%.2f\t%+d\n", p.Key, p.ProteinPerKgLean, p.FatPerKgBody, p.CalorieOffset)
			}
			return nil
		})
	},
}

var phaseSetCmd = &cobra.Command{
	Use:   "set <phase>",
	Short: "Update the coefficients of a diet phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.DietPhaseUpdate{Key: args[0]}
		if cmd.Flags().Changed("protein") {
			in.ProteinPerKgLean = &phaseProtein
		}
		if cmd.Flags().Changed("fat") {
			in.FatPerKgBody = &phaseFat
		}
		if cmd.Flags().Changed("offset") {
			in.CalorieOffset = &phaseOffset
		}
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			p, err := service.UpdateDietPhase(sqldb, profileID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated phase %s: protein %.2f g/kg lean, fat %.2f g/kg, offset %+d kcal\n",
				p.Key, p.ProteinPerKgLean, p.FatPerKgBody, p.CalorieOffset)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(phaseCmd)
	phaseCmd.AddCommand(phaseListCmd, phaseSetCmd)

	phaseListCmd.Flags().BoolVar(&phaseJSON, "json", false, "Output JSON")
	phaseSetCmd.Flags().Float64Var(&phaseProtein, "protein", 0, "Protein grams per kg of lean mass")
	phaseSetCmd.Flags().Float64Var(&phaseFat, "fat", 0, "Fat grams per kg of body weight")
	phaseSetCmd.Flags().Float64Var(&phaseOffset, "offset", 0, "Calorie offset applied to the daily budget")
}
