package macroplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/service"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or upgrade the macroplan database and report its seeded defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			mealTypes, err := service.ListMealTypes(sqldb)
			if err != nil {
				return err
			}
			categories, err := service.ListCategories(sqldb)
			if err != nil {
				return err
			}
			slots, err := service.ListMealSlots(sqldb)
			if err != nil {
				return err
			}
			profiles, err := service.ListProfiles(sqldb)
			if err != nil {
				return err
			}

			defaults := 0
			for _, c := range categories {
				if c.IsDefault {
					defaults++
				}
			}
			share := 0.0
			for _, s := range slots {
				share += s.Share
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized macroplan database at %s\n", path)
			fmt.Fprintf(out, "Meal types: %d\n", len(mealTypes))
			fmt.Fprintf(out, "Food categories: %d (%d default)\n", len(categories), defaults)
			fmt.Fprintf(out, "Meal slots: %d (shares sum to %.2f)\n", len(slots), share)
			if len(profiles) == 0 {
				fmt.Fprintln(out, "Profiles: 0 (create one with 'macroplan profile set')")
				return nil
			}
			fmt.Fprintf(out, "Profiles: %d\n", len(profiles))
			for _, p := range profiles {
				phases, err := service.ListDietPhases(sqldb, p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %d\t%s\t%d diet phases\n", p.ID, p.Name, len(phases))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
