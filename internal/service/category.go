package service

import (
	"database/sql"
	"fmt"

	"github.com/saadjs/macroplan/internal/model"
)

func AddCategory(db *sql.DB, name string) (int64, error) {
	name = normalizeName(name)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	res, err := db.Exec(`INSERT INTO food_categories(name, is_default) VALUES(?, 0)`, name)
	if err != nil {
		return 0, fmt.Errorf("add category %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve category id: %w", err)
	}
	return id, nil
}

func ListCategories(db *sql.DB) ([]model.Category, error) {
	rows, err := db.Query(`
SELECT c.id, c.name, c.is_default, c.created_at, COUNT(f.id)
FROM food_categories c
LEFT JOIN foods f ON f.category_id = c.id
GROUP BY c.id
ORDER BY c.name
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		var isDefault int
		if err := rows.Scan(&c.ID, &c.Name, &isDefault, &c.CreatedAt, &c.FoodCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.IsDefault = isDefault == 1
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func RenameCategory(db *sql.DB, oldName, newName string) error {
	oldName = normalizeName(oldName)
	newName = normalizeName(newName)
	if oldName == "" || newName == "" {
		return fmt.Errorf("old and new category names are required")
	}
	res, err := db.Exec(`UPDATE food_categories SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename category %q to %q: %w", oldName, newName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for rename: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %q: %w", oldName, ErrNotFound)
	}
	return nil
}

// DeleteCategory removes a category and returns how many foods were left
// uncategorized by it.
func DeleteCategory(db *sql.DB, name string) (int, error) {
	id, err := categoryIDByName(db, name)
	if err != nil {
		return 0, err
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(1) FROM foods WHERE category_id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count foods for category %q: %w", name, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin delete category tx: %w", err)
	}
	if _, err := tx.Exec(`UPDATE foods SET category_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE category_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("detach foods: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM food_categories WHERE id = ?`, id); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete category tx: %w", err)
	}
	return count, nil
}

func categoryIDByName(db *sql.DB, category string) (int64, error) {
	name := normalizeName(category)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM food_categories WHERE name = ?`, name).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return 0, fmt.Errorf("lookup category %q: %w", name, err)
	}
	return id, nil
}

func ensureCategory(db *sql.DB, category string) (int64, error) {
	name := normalizeName(category)
	if name == "" {
		return 0, fmt.Errorf("category name is required")
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO food_categories(name, is_default) VALUES(?, 0)`, name); err != nil {
		return 0, fmt.Errorf("create category %q: %w", name, err)
	}
	return categoryIDByName(db, name)
}
