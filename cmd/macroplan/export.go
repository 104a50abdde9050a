package macroplan

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analytics and plans",
}

var (
	exportOut  string
	exportPlan string
)

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx",
	Short: "Write weekly analytics, diet phases and optionally a meal plan to a workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfile(func(sqldb *sql.DB, profileID int64) error {
			data, err := service.ExportWorkbook(sqldb, profileID, service.WorkbookInput{AsOf: time.Now(), PlanID: exportPlan})
			if err != nil {
				return err
			}
			if err := os.WriteFile(exportOut, data, 0o644); err != nil {
				return fmt.Errorf("write workbook %s: %w", exportOut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported workbook to %s\n", exportOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportXLSXCmd)

	exportXLSXCmd.Flags().StringVar(&exportOut, "out", "", "Output .xlsx path")
	exportXLSXCmd.Flags().StringVar(&exportPlan, "plan", "", "Saved meal plan uuid to include")
	_ = exportXLSXCmd.MarkFlagRequired("out")
}
