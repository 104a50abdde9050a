package macroplan

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saadjs/macroplan/internal/service"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage macroplan configuration",
}

var (
	cfgDefaultPhase string
	cfgPlanAttempts string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set database-stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			updates := 0
			if cmd.Flags().Changed("default-phase") {
				if err := service.SetConfig(sqldb, service.ConfigDefaultPhase, cfgDefaultPhase); err != nil {
					return err
				}
				updates++
			}
			if cmd.Flags().Changed("plan-attempts") {
				if err := service.SetConfig(sqldb, service.ConfigPlanAttempts, cfgPlanAttempts); err != nil {
					return err
				}
				updates++
			}
			if updates == 0 {
				return fmt.Errorf("set at least one flag")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config value(s)\n", updates)
			return nil
		})
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show database-stored settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			values, err := service.ListConfig(sqldb)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(values))
			for k := range values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(cmd.OutOrStdout(), "KEY\tVALUE")
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, values[k])
			}
			return nil
		})
	},
}

type resolvedConfig struct {
	File      string `yaml:"file,omitempty"`
	DBPath    string `yaml:"db_path"`
	ProfileID int64  `yaml:"profile_id"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	MealPlan struct {
		Attempts          int                 `yaml:"attempts"`
		Tolerance         float64             `yaml:"tolerance"`
		Seed              int64               `yaml:"seed"`
		NameHeuristics    bool                `yaml:"name_heuristics"`
		DeniedCategories  []string            `yaml:"denied_categories"`
		AllowedCategories map[string][]string `yaml:"allowed_categories,omitempty"`
		Timeout           string              `yaml:"timeout"`
	} `yaml:"mealplan"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	OpenFoodFacts struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"openfoodfacts"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved file and environment configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		var out resolvedConfig
		out.File = cfg.File
		out.DBPath = path
		out.ProfileID = cfg.ProfileID
		out.Log.Level = cfg.Log.Level
		out.Log.Format = cfg.Log.Format
		out.MealPlan.Attempts = cfg.MealPlan.Attempts
		out.MealPlan.Tolerance = cfg.MealPlan.Tolerance
		out.MealPlan.Seed = cfg.MealPlan.Seed
		out.MealPlan.NameHeuristics = cfg.MealPlan.NameHeuristics
		out.MealPlan.DeniedCategories = cfg.MealPlan.DeniedCategories
		for meal, names := range cfg.MealPlan.AllowedCategories {
			if out.MealPlan.AllowedCategories == nil {
				out.MealPlan.AllowedCategories = map[string][]string{}
			}
			out.MealPlan.AllowedCategories[string(meal)] = names
		}
		out.MealPlan.Timeout = cfg.MealPlan.Timeout.String()
		out.Server.Addr = cfg.Server.Addr
		out.OpenFoodFacts.BaseURL = cfg.OFF.BaseURL
		out.OpenFoodFacts.Timeout = cfg.OFF.Timeout.String()

		b, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), strings.TrimRight(string(b), "\n")+"\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configGetCmd, configShowCmd)

	configSetCmd.Flags().StringVar(&cfgDefaultPhase, "default-phase", "", "Phase assigned to new analytics weeks (cut, bulk, refeed, rest)")
	configSetCmd.Flags().StringVar(&cfgPlanAttempts, "plan-attempts", "", "Default meal plan attempt budget")
}
