package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/saadjs/macroplan/internal/model"
)

type FoodInput struct {
	Name      string
	Calories  float64
	ProteinG  float64
	CarbsG    float64
	FatG      float64
	Category  string
	MealType  string
	CreatedBy *int64
	Source    string
	SourceRef string
}

type FoodFilter struct {
	Query    string
	Category string
	MealType string
	Limit    int
}

func validateFoodInput(in FoodInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("food name is required")
	}
	if err := validateNonNegativeFloat("calories", in.Calories); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("protein", in.ProteinG); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("carbs", in.CarbsG); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("fat", in.FatG); err != nil {
		return err
	}
	if _, ok := mealplan.ParseMealType(in.MealType); !ok {
		return fmt.Errorf("invalid meal type %q (use breakfast, lunch, dinner or snack)", in.MealType)
	}
	return nil
}

func resolveFoodRefs(db *sql.DB, in FoodInput) (category, mealType any, err error) {
	if strings.TrimSpace(in.Category) != "" {
		id, err := categoryIDByName(db, in.Category)
		if err != nil {
			return nil, nil, err
		}
		category = id
	}
	if mt, _ := mealplan.ParseMealType(in.MealType); mt != "" {
		id, err := mealTypeIDByName(db, string(mt))
		if err != nil {
			return nil, nil, err
		}
		mealType = id
	}
	return category, mealType, nil
}

func AddFood(db *sql.DB, in FoodInput) (int64, error) {
	if err := validateFoodInput(in); err != nil {
		return 0, err
	}
	category, mealType, err := resolveFoodRefs(db, in)
	if err != nil {
		return 0, err
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "manual"
	}
	res, err := db.Exec(`
INSERT INTO foods(name, calories, protein_g, carbs_g, fat_g, category_id, meal_type_id, created_by, source, source_ref)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, strings.TrimSpace(in.Name), in.Calories, in.ProteinG, in.CarbsG, in.FatG, category, mealType, in.CreatedBy, source, strings.TrimSpace(in.SourceRef))
	if err != nil {
		return 0, fmt.Errorf("add food %q: %w", in.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve food id: %w", err)
	}
	return id, nil
}

func UpdateFood(db *sql.DB, id int64, in FoodInput) error {
	if id <= 0 {
		return fmt.Errorf("food id must be > 0")
	}
	if err := validateFoodInput(in); err != nil {
		return err
	}
	category, mealType, err := resolveFoodRefs(db, in)
	if err != nil {
		return err
	}
	res, err := db.Exec(`
UPDATE foods
SET name = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, category_id = ?, meal_type_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, strings.TrimSpace(in.Name), in.Calories, in.ProteinG, in.CarbsG, in.FatG, category, mealType, id)
	if err != nil {
		return fmt.Errorf("update food %d: %w", id, err)
	}
	return requireAffected(res, "food", id)
}

// UpsertFoodByName updates the food with the same case-insensitive name or
// inserts a new one. Unknown categories are created.
func UpsertFoodByName(db *sql.DB, in FoodInput) (int64, bool, error) {
	if err := validateFoodInput(in); err != nil {
		return 0, false, err
	}
	if strings.TrimSpace(in.Category) != "" {
		if _, err := ensureCategory(db, in.Category); err != nil {
			return 0, false, err
		}
	}
	var id int64
	err := db.QueryRow(`SELECT id FROM foods WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(in.Name)).Scan(&id)
	if err == sql.ErrNoRows {
		id, err := AddFood(db, in)
		return id, true, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup food %q: %w", in.Name, err)
	}
	return id, false, UpdateFood(db, id, in)
}

func DeleteFood(db *sql.DB, id int64) error {
	if id <= 0 {
		return fmt.Errorf("food id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM foods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete food %d: %w", id, err)
	}
	return requireAffected(res, "food", id)
}

const foodSelect = `
SELECT f.id, f.name, f.calories, f.protein_g, f.carbs_g, f.fat_g,
       f.category_id, IFNULL(c.name, ''), f.meal_type_id, IFNULL(mt.name, ''),
       f.created_by, f.source, IFNULL(f.source_ref, '')
FROM foods f
LEFT JOIN food_categories c ON c.id = f.category_id
LEFT JOIN meal_types mt ON mt.id = f.meal_type_id
WHERE 1=1`

func GetFood(db *sql.DB, id int64) (*model.Food, error) {
	rows, err := db.Query(foodSelect+` AND f.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get food %d: %w", id, err)
	}
	foods, err := scanFoods(rows)
	if err != nil {
		return nil, err
	}
	if len(foods) == 0 {
		return nil, fmt.Errorf("food %d: %w", id, ErrNotFound)
	}
	return &foods[0], nil
}

// ListFoods matches Query against the start of the name or of any word in it.
func ListFoods(db *sql.DB, f FoodFilter) ([]model.Food, error) {
	query := foodSelect
	args := make([]any, 0)
	if q := strings.TrimSpace(f.Query); q != "" {
		query += ` AND (f.name LIKE ? ESCAPE '\' OR f.name LIKE ? ESCAPE '\')`
		esc := escapeLike(q)
		args = append(args, esc+"%", "% "+esc+"%")
	}
	if strings.TrimSpace(f.Category) != "" {
		query += ` AND c.name = ?`
		args = append(args, normalizeName(f.Category))
	}
	if strings.TrimSpace(f.MealType) != "" {
		mt, ok := mealplan.ParseMealType(f.MealType)
		if !ok {
			return nil, fmt.Errorf("invalid meal type %q", f.MealType)
		}
		query += ` AND (mt.name = ? OR f.meal_type_id IS NULL)`
		args = append(args, string(mt))
	}
	query += ` ORDER BY f.name COLLATE NOCASE ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return scanFoods(rows)
}

func scanFoods(rows *sql.Rows) ([]model.Food, error) {
	defer rows.Close()
	out := make([]model.Food, 0)
	for rows.Next() {
		var f model.Food
		var categoryID, mealTypeID, createdBy sql.NullInt64
		if err := rows.Scan(&f.ID, &f.Name, &f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG,
			&categoryID, &f.Category, &mealTypeID, &f.MealType, &createdBy, &f.Source, &f.SourceRef); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		f.CategoryID = nullInt64(categoryID)
		f.MealTypeID = nullInt64(mealTypeID)
		f.CreatedBy = nullInt64(createdBy)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return out, nil
}

func ListMealTypes(db *sql.DB) ([]model.MealType, error) {
	rows, err := db.Query(`SELECT id, name FROM meal_types ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list meal types: %w", err)
	}
	defer rows.Close()
	out := make([]model.MealType, 0)
	for rows.Next() {
		var mt model.MealType
		if err := rows.Scan(&mt.ID, &mt.Name); err != nil {
			return nil, fmt.Errorf("scan meal type: %w", err)
		}
		out = append(out, mt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meal types: %w", err)
	}
	return out, nil
}

func mealTypeIDByName(db *sql.DB, name string) (int64, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM meal_types WHERE name = ?`, normalizeName(name)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("meal type %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup meal type %q: %w", name, err)
	}
	return id, nil
}

func generatorFoods(foods []model.Food) []mealplan.Food {
	out := make([]mealplan.Food, 0, len(foods))
	for _, f := range foods {
		mt, _ := mealplan.ParseMealType(f.MealType)
		out = append(out, mealplan.Food{
			ID:       f.ID,
			Name:     f.Name,
			Calories: f.Calories,
			Protein:  f.ProteinG,
			Carbs:    f.CarbsG,
			Fat:      f.FatG,
			Category: f.Category,
			MealType: mt,
		})
	}
	return out
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
