package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/saadjs/macroplan/internal/service"
)

func TestFoodCRUDAndSearch(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	chicken, err := service.AddFood(db, service.FoodInput{
		Name: "Chicken breast", Calories: 165, ProteinG: 31, FatG: 3.6, Category: "Meat", MealType: "lunch",
	})
	if err != nil {
		t.Fatalf("add chicken: %v", err)
	}
	if _, err := service.AddFood(db, service.FoodInput{
		Name: "Dark chocolate", Calories: 546, ProteinG: 4.9, CarbsG: 61, FatG: 31, MealType: "snack",
	}); err != nil {
		t.Fatalf("add chocolate: %v", err)
	}
	if _, err := service.AddFood(db, service.FoodInput{Name: "Rice", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3, Category: "grains"}); err != nil {
		t.Fatalf("add rice: %v", err)
	}

	items, err := service.ListFoods(db, service.FoodFilter{Query: "ch"})
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected name and word prefix matches, got %+v", items)
	}

	items, err = service.ListFoods(db, service.FoodFilter{MealType: "lunch"})
	if err != nil {
		t.Fatalf("list lunch foods: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected lunch food plus untagged rice, got %d", len(items))
	}

	items, err = service.ListFoods(db, service.FoodFilter{Category: "MEAT"})
	if err != nil {
		t.Fatalf("list meat foods: %v", err)
	}
	if len(items) != 1 || items[0].ID != chicken || items[0].Category != "meat" || items[0].MealType != "lunch" {
		t.Fatalf("unexpected meat foods: %+v", items)
	}

	if err := service.UpdateFood(db, chicken, service.FoodInput{Name: "Chicken thigh", Calories: 209, ProteinG: 26, FatG: 10.9, Category: "meat"}); err != nil {
		t.Fatalf("update food: %v", err)
	}
	got, err := service.GetFood(db, chicken)
	if err != nil {
		t.Fatalf("get food: %v", err)
	}
	if got.Name != "Chicken thigh" || got.MealType != "" || got.Source != "manual" {
		t.Fatalf("unexpected updated food: %+v", got)
	}

	if err := service.DeleteFood(db, chicken); err != nil {
		t.Fatalf("delete food: %v", err)
	}
	if _, err := service.GetFood(db, chicken); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFoodValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	bad := []service.FoodInput{
		{Name: "", Calories: 10},
		{Name: "Neg", Calories: -1},
		{Name: "Neg protein", ProteinG: -1},
		{Name: "Bad meal", Calories: 10, MealType: "brunch"},
	}
	for _, in := range bad {
		if _, err := service.AddFood(db, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
	if _, err := service.AddFood(db, service.FoodInput{Name: "Mystery", Calories: 10, Category: "unknown"}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected unknown category to fail with ErrNotFound, got %v", err)
	}
	if _, err := service.AddFood(db, service.FoodInput{Name: "Oats", Calories: 389}); err != nil {
		t.Fatalf("add oats: %v", err)
	}
	if _, err := service.AddFood(db, service.FoodInput{Name: "oats", Calories: 389}); err == nil {
		t.Fatalf("expected case-insensitive duplicate name to fail")
	}
}

func TestCategoryLifecycle(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.AddCategory(db, " Supplements "); err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, err := service.AddCategory(db, "supplements"); err == nil {
		t.Fatalf("expected duplicate category to fail")
	}
	if _, err := service.AddFood(db, service.FoodInput{Name: "Whey", Calories: 400, ProteinG: 80, Category: "supplements"}); err != nil {
		t.Fatalf("add whey: %v", err)
	}
	if err := service.RenameCategory(db, "supplements", "powders"); err != nil {
		t.Fatalf("rename category: %v", err)
	}
	if err := service.RenameCategory(db, "supplements", "other"); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound renaming missing category, got %v", err)
	}

	categories, err := service.ListCategories(db)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	powders := -1
	for _, c := range categories {
		if c.Name == "powders" {
			powders = c.FoodCount
			if c.IsDefault {
				t.Fatalf("expected custom category to be non-default")
			}
		}
	}
	if powders != 1 {
		t.Fatalf("expected powders with 1 food, got %+v", categories)
	}

	detached, err := service.DeleteCategory(db, "powders")
	if err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if detached != 1 {
		t.Fatalf("expected 1 detached food, got %d", detached)
	}
	foods, err := service.ListFoods(db, service.FoodFilter{Query: "whey"})
	if err != nil {
		t.Fatalf("list foods: %v", err)
	}
	if len(foods) != 1 || foods[0].CategoryID != nil {
		t.Fatalf("expected whey to survive uncategorized, got %+v", foods)
	}
}

func TestCatalogImportExport(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "foods.yaml")
	content := `categories:
  - meat
  - supplements
foods:
  - name: Chicken breast
    calories: 165
    protein: 31
    fat: 3.6
    category: meat
    meal: lunch
  - name: Casein
    calories: 360
    protein: 80
    carbs: 4
    fat: 1
    category: Powders
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	catalog, err := service.LoadCatalogFile(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	res, err := service.ImportCatalog(db, catalog, nil)
	if err != nil {
		t.Fatalf("import catalog: %v", err)
	}
	if res.Categories != 1 || res.Created != 2 || res.Updated != 0 {
		t.Fatalf("unexpected first import result: %+v", res)
	}

	catalog.Foods[0].Calories = 170
	res, err = service.ImportCatalog(db, catalog, nil)
	if err != nil {
		t.Fatalf("re-import catalog: %v", err)
	}
	if res.Categories != 0 || res.Created != 0 || res.Updated != 2 {
		t.Fatalf("unexpected second import result: %+v", res)
	}

	exported, err := service.ExportCatalog(db)
	if err != nil {
		t.Fatalf("export catalog: %v", err)
	}
	if len(exported.Foods) != 2 {
		t.Fatalf("expected 2 exported foods, got %d", len(exported.Foods))
	}
	if exported.Foods[1].Name != "Chicken breast" || exported.Foods[1].Calories != 170 || exported.Foods[1].Meal != "lunch" {
		t.Fatalf("unexpected exported chicken: %+v", exported.Foods[1])
	}
	if exported.Foods[0].Category != "powders" {
		t.Fatalf("expected imported category to be created, got %+v", exported.Foods[0])
	}
	out, err := service.MarshalCatalog(exported)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected yaml output")
	}

	bad := &service.Catalog{Foods: []service.CatalogFood{{Name: "Broken", Calories: -5}}}
	if _, err := service.ImportCatalog(db, bad, nil); err == nil {
		t.Fatalf("expected invalid catalog food to fail")
	}
}
