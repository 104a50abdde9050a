package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS profiles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL DEFAULT '',
  height_cm REAL,
  date_of_birth TEXT,
  sex TEXT NOT NULL DEFAULT 'Male' CHECK(sex IN ('Male', 'Female')),
  activity_level INTEGER NOT NULL DEFAULT 0 CHECK(activity_level BETWEEN 0 AND 4),
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS weight_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  profile_id INTEGER NOT NULL,
  entry_at TEXT NOT NULL,
  weight_kg REAL NOT NULL CHECK(weight_kg > 0),
  body_fat_pct REAL CHECK(body_fat_pct IS NULL OR (body_fat_pct >= 0 AND body_fat_pct <= 100)),
  notes TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_weight_log_profile_entry_at ON weight_log(profile_id, entry_at);

CREATE TABLE IF NOT EXISTS diet_phases (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  profile_id INTEGER NOT NULL,
  phase_key TEXT NOT NULL,
  protein_per_kg_lean REAL NOT NULL CHECK(protein_per_kg_lean > 0),
  fat_per_kg_body REAL NOT NULL CHECK(fat_per_kg_body > 0),
  calorie_offset INTEGER NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(profile_id, phase_key),
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS analytics_weeks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  profile_id INTEGER NOT NULL,
  week_start TEXT NOT NULL,
  week_number INTEGER NOT NULL CHECK(week_number > 0),
  workout TEXT NOT NULL DEFAULT 'N' CHECK(workout IN ('Y', 'N')),
  phase_id INTEGER,
  display_width INTEGER,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(profile_id, week_start),
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE,
  FOREIGN KEY(phase_id) REFERENCES diet_phases(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version: 2,
		name:    "food_catalog",
		sql: `
CREATE TABLE IF NOT EXISTS food_categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meal_types (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS foods (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  calories REAL NOT NULL CHECK(calories >= 0),
  protein_g REAL NOT NULL CHECK(protein_g >= 0),
  carbs_g REAL NOT NULL CHECK(carbs_g >= 0),
  fat_g REAL NOT NULL CHECK(fat_g >= 0),
  category_id INTEGER,
  meal_type_id INTEGER,
  created_by INTEGER,
  source TEXT NOT NULL DEFAULT 'manual',
  source_ref TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(category_id) REFERENCES food_categories(id) ON DELETE SET NULL,
  FOREIGN KEY(meal_type_id) REFERENCES meal_types(id) ON DELETE SET NULL,
  FOREIGN KEY(created_by) REFERENCES profiles(id) ON DELETE SET NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_foods_name ON foods(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_foods_category_id ON foods(category_id);
`,
	},
	{
		version: 3,
		name:    "meal_plans",
		sql: `
CREATE TABLE IF NOT EXISTS meal_slots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  share REAL NOT NULL CHECK(share > 0 AND share <= 1),
  is_main INTEGER NOT NULL DEFAULT 0,
  meal_type_id INTEGER,
  position INTEGER NOT NULL DEFAULT 0,
  FOREIGN KEY(meal_type_id) REFERENCES meal_types(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS meal_plans (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  plan_uuid TEXT NOT NULL,
  profile_id INTEGER NOT NULL,
  week_start TEXT,
  plan_date TEXT NOT NULL,
  slot_id INTEGER NOT NULL,
  food_id INTEGER,
  food_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT '',
  grams INTEGER NOT NULL CHECK(grams > 0),
  calories REAL NOT NULL,
  protein_g REAL NOT NULL,
  carbs_g REAL NOT NULL,
  fat_g REAL NOT NULL,
  score REAL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(profile_id) REFERENCES profiles(id) ON DELETE CASCADE,
  FOREIGN KEY(slot_id) REFERENCES meal_slots(id),
  FOREIGN KEY(food_id) REFERENCES foods(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_meal_plans_uuid ON meal_plans(plan_uuid);
CREATE INDEX IF NOT EXISTS idx_meal_plans_profile_date ON meal_plans(profile_id, plan_date);
`,
	},
}

var defaultMealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

var defaultFoodCategories = []string{
	"meat", "fish", "eggs", "dairy", "grains", "bakery", "vegetables", "fruit", "nuts", "fats", "drinks", "alcohol",
}

var defaultSlots = []struct {
	name  string
	share float64
	main  bool
	meal  string
}{
	{"Breakfast", 0.20, true, "breakfast"},
	{"Snack 1", 0.10, false, "snack"},
	{"Lunch", 0.25, true, "lunch"},
	{"Snack 2", 0.10, false, "snack"},
	{"Dinner", 0.25, true, "dinner"},
	{"Snack 3", 0.10, false, "snack"},
}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	return seedDefaults(db)
}

func seedDefaults(db *sql.DB) error {
	for _, name := range defaultMealTypes {
		if _, err := db.Exec(`INSERT OR IGNORE INTO meal_types(name) VALUES(?)`, name); err != nil {
			return fmt.Errorf("seed meal type %s: %w", name, err)
		}
	}
	for _, name := range defaultFoodCategories {
		if _, err := db.Exec(`INSERT OR IGNORE INTO food_categories(name, is_default) VALUES(?, 1)`, name); err != nil {
			return fmt.Errorf("seed default category %s: %w", name, err)
		}
	}
	for i, s := range defaultSlots {
		if _, err := db.Exec(`
INSERT OR IGNORE INTO meal_slots(name, share, is_main, meal_type_id, position)
VALUES(?, ?, ?, (SELECT id FROM meal_types WHERE name = ?), ?)
`, s.name, s.share, s.main, s.meal, i+1); err != nil {
			return fmt.Errorf("seed meal slot %s: %w", s.name, err)
		}
	}
	return nil
}
