package service

import (
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Categories []string      `yaml:"categories,omitempty"`
	Foods      []CatalogFood `yaml:"foods"`
}

type CatalogFood struct {
	Name     string  `yaml:"name"`
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Category string  `yaml:"category,omitempty"`
	Meal     string  `yaml:"meal,omitempty"`
}

type CatalogImportResult struct {
	Categories int `json:"categories"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
}

func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return &c, nil
}

// ImportCatalog creates listed categories and upserts foods by name. The
// whole import is rejected on the first invalid food.
func ImportCatalog(db *sql.DB, c *Catalog, createdBy *int64) (CatalogImportResult, error) {
	var result CatalogImportResult
	for _, name := range c.Categories {
		if normalizeName(name) == "" {
			continue
		}
		if _, err := categoryIDByName(db, name); err == nil {
			continue
		}
		if _, err := ensureCategory(db, name); err != nil {
			return result, err
		}
		result.Categories++
	}
	for i, f := range c.Foods {
		_, created, err := UpsertFoodByName(db, FoodInput{
			Name:      f.Name,
			Calories:  f.Calories,
			ProteinG:  f.Protein,
			CarbsG:    f.Carbs,
			FatG:      f.Fat,
			Category:  f.Category,
			MealType:  f.Meal,
			CreatedBy: createdBy,
			Source:    "import",
		})
		if err != nil {
			return result, fmt.Errorf("catalog food %d (%q): %w", i+1, f.Name, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	logger.Info("catalog imported",
		zap.Int("categories", result.Categories),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated))
	return result, nil
}

func ExportCatalog(db *sql.DB) (*Catalog, error) {
	categories, err := ListCategories(db)
	if err != nil {
		return nil, err
	}
	foods, err := ListFoods(db, FoodFilter{})
	if err != nil {
		return nil, err
	}
	c := &Catalog{Foods: make([]CatalogFood, 0, len(foods))}
	for _, cat := range categories {
		c.Categories = append(c.Categories, cat.Name)
	}
	for _, f := range foods {
		c.Foods = append(c.Foods, CatalogFood{
			Name:     f.Name,
			Calories: f.Calories,
			Protein:  f.ProteinG,
			Carbs:    f.CarbsG,
			Fat:      f.FatG,
			Category: f.Category,
			Meal:     f.MealType,
		})
	}
	return c, nil
}

func MarshalCatalog(c *Catalog) ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return out, nil
}
