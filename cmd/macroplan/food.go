package macroplan

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saadjs/macroplan/internal/model"
	"github.com/saadjs/macroplan/internal/provider/openfoodfacts"
	"github.com/saadjs/macroplan/internal/service"
)

var foodCmd = &cobra.Command{
	Use:   "food",
	Short: "Manage the food catalog (values per 100 g)",
}

var (
	foodName     string
	foodCalories float64
	foodProtein  float64
	foodCarbs    float64
	foodFat      float64
	foodCategory string
	foodMealType string
	foodQuery    string
	foodLimit    int
	foodJSON     bool
	foodOut      string
	lookupSave   bool
	lookupCode   bool
	lookupLimit  int
)

var foodAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a food",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := service.FoodInput{
			Name:     foodName,
			Calories: foodCalories,
			ProteinG: foodProtein,
			CarbsG:   foodCarbs,
			FatG:     foodFat,
			Category: foodCategory,
			MealType: foodMealType,
		}
		return withDB(func(sqldb *sql.DB) error {
			id, err := service.AddFood(sqldb, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added food %d\n", id)
			return nil
		})
	},
}

var foodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List foods, optionally filtered by name prefix, category or meal type",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := service.FoodFilter{Query: foodQuery, Category: foodCategory, MealType: foodMealType, Limit: foodLimit}
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListFoods(sqldb, filter)
			if err != nil {
				return err
			}
			if foodJSON {
				return writeJSON(cmd.OutOrStdout(), "foods", items)
			}
			printFoods(cmd, items)
			return nil
		})
	},
}

var foodUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update the given fields of a food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			current, err := service.GetFood(sqldb, id)
			if err != nil {
				return err
			}
			in := service.FoodInput{
				Name:     current.Name,
				Calories: current.Calories,
				ProteinG: current.ProteinG,
				CarbsG:   current.CarbsG,
				FatG:     current.FatG,
				Category: current.Category,
				MealType: current.MealType,
			}
			if cmd.Flags().Changed("name") {
				in.Name = foodName
			}
			if cmd.Flags().Changed("calories") {
				in.Calories = foodCalories
			}
			if cmd.Flags().Changed("protein") {
				in.ProteinG = foodProtein
			}
			if cmd.Flags().Changed("carbs") {
				in.CarbsG = foodCarbs
			}
			if cmd.Flags().Changed("fat") {
				in.FatG = foodFat
			}
			if cmd.Flags().Changed("category") {
				in.Category = foodCategory
			}
			if cmd.Flags().Changed("meal") {
				in.MealType = foodMealType
			}
			if err := service.UpdateFood(sqldb, id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated food %d\n", id)
			return nil
		})
	},
}

var foodDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a food",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("food id", args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteFood(sqldb, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted food %d\n", id)
			return nil
		})
	},
}

var foodImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import categories and foods from a YAML catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := service.LoadCatalogFile(args[0])
		if err != nil {
			return err
		}
		return withDB(func(sqldb *sql.DB) error {
			res, err := service.ImportCatalog(sqldb, catalog, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported catalog: %d new categories, %d foods created, %d updated\n",
				res.Categories, res.Created, res.Updated)
			return nil
		})
	},
}

var foodExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the food catalog as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			catalog, err := service.ExportCatalog(sqldb)
			if err != nil {
				return err
			}
			data, err := service.MarshalCatalog(catalog)
			if err != nil {
				return err
			}
			if foodOut == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(foodOut, data, 0o644); err != nil {
				return fmt.Errorf("write catalog %s: %w", foodOut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d foods to %s\n", len(catalog.Foods), foodOut)
			return nil
		})
	},
}

var foodLookupCmd = &cobra.Command{
	Use:   "lookup <query>",
	Short: "Search Open Food Facts by name or barcode",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		client := openfoodfacts.NewClient(cfg.OFF.BaseURL, cfg.OFF.Timeout, logger)
		items, err := service.LookupFoods(context.Background(), client, query, service.LookupOptions{Limit: lookupLimit, Barcode: lookupCode})
		if err != nil {
			return err
		}
		if foodJSON && !lookupSave {
			return writeJSON(cmd.OutOrStdout(), "lookup", items)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "CODE\tNAME\tBRAND\tKCAL\tPROTEIN\tCARBS\tFAT")
		for _, p := range items {
			fmt.Fprintf(out, "%s\t%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\n", p.Code, p.Name, p.Brand, p.Calories, p.ProteinG, p.CarbsG, p.FatG)
		}
		if !lookupSave {
			return nil
		}
		return withDB(func(sqldb *sql.DB) error {
			id, created, err := service.SaveLookupResult(sqldb, items[0], service.SaveLookupInput{Category: foodCategory, MealType: foodMealType})
			if err != nil {
				return err
			}
			verb := "Updated"
			if created {
				verb = "Added"
			}
			fmt.Fprintf(out, "%s food %d from %s\n", verb, id, items[0].Code)
			return nil
		})
	},
}

var foodMealTypesCmd = &cobra.Command{
	Use:   "meal-types",
	Short: "List meal types foods can be tagged with",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			items, err := service.ListMealTypes(sqldb)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME")
			for _, mt := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", mt.ID, mt.Name)
			}
			return nil
		})
	},
}

func printFoods(cmd *cobra.Command, items []model.Food) {
	fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tKCAL\tPROTEIN\tCARBS\tFAT\tCATEGORY\tMEAL\tSOURCE")
	for _, f := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%s\t%s\t%s\n",
			f.ID, f.Name, f.Calories, f.ProteinG, f.CarbsG, f.FatG, f.Category, f.MealType, f.Source)
	}
}

func init() {
	rootCmd.AddCommand(foodCmd)
	foodCmd.AddCommand(foodAddCmd, foodListCmd, foodUpdateCmd, foodDeleteCmd, foodImportCmd, foodExportCmd, foodLookupCmd, foodMealTypesCmd)

	for _, c := range []*cobra.Command{foodAddCmd, foodUpdateCmd} {
		c.Flags().StringVar(&foodName, "name", "", "Food name")
		c.Flags().Float64Var(&foodCalories, "calories", 0, "kcal per 100 g")
		c.Flags().Float64Var(&foodProtein, "protein", 0, "Protein grams per 100 g")
		c.Flags().Float64Var(&foodCarbs, "carbs", 0, "Carb grams per 100 g")
		c.Flags().Float64Var(&foodFat, "fat", 0, "Fat grams per 100 g")
	}
	_ = foodAddCmd.MarkFlagRequired("name")
	_ = foodAddCmd.MarkFlagRequired("calories")

	for _, c := range []*cobra.Command{foodAddCmd, foodUpdateCmd, foodListCmd, foodLookupCmd} {
		c.Flags().StringVar(&foodCategory, "category", "", "Category name")
		c.Flags().StringVar(&foodMealType, "meal", "", "Meal type: breakfast, lunch, dinner or snack")
	}

	foodListCmd.Flags().StringVar(&foodQuery, "query", "", "Name or word prefix")
	foodListCmd.Flags().IntVar(&foodLimit, "limit", 0, "Result limit (0 for all)")
	foodListCmd.Flags().BoolVar(&foodJSON, "json", false, "Output JSON")

	foodExportCmd.Flags().StringVar(&foodOut, "out", "", "Write YAML to file instead of stdout")

	foodLookupCmd.Flags().BoolVar(&lookupSave, "save", false, "Save the first result to the catalog")
	foodLookupCmd.Flags().BoolVar(&lookupCode, "barcode", false, "Treat the query as a barcode")
	foodLookupCmd.Flags().IntVar(&lookupLimit, "limit", 10, "Result limit")
	foodLookupCmd.Flags().BoolVar(&foodJSON, "json", false, "Output JSON")
}
