package macroplan

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/service"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run data integrity checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			report, err := service.RunDoctor(sqldb, doctorFix)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Weeks with missing phase: %d\n", report.OrphanPhaseRefs)
			fmt.Fprintf(out, "Weeks with another profile's phase: %d\n", report.ForeignPhaseRefs)
			fmt.Fprintf(out, "Weeks without phase: %d\n", report.UnsetPhaseRefs)
			fmt.Fprintf(out, "Profiles missing default phases: %d\n", len(report.ProfilesMissingPhases))
			fmt.Fprintf(out, "Foods with invalid macros: %d %v\n", len(report.InvalidFoods), report.InvalidFoods)
			if doctorFix {
				fmt.Fprintf(out, "Seeded phases for %d profile(s), repaired %d week(s)\n", report.FixedProfiles, report.FixedWeeks)
				// Re-check after fixes so exit status reflects final state.
				report, err = service.RunDoctor(sqldb, false)
				if err != nil {
					return err
				}
			}
			if !report.Healthy() {
				return fmt.Errorf("doctor found integrity issues")
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Attempt safe auto-fixes")
}
