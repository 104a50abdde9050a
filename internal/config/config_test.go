package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.MealPlan.Attempts)
	assert.Equal(t, 0.10, cfg.MealPlan.Tolerance)
	assert.Equal(t, 5*time.Second, cfg.MealPlan.Timeout)
	assert.Contains(t, cfg.MealPlan.DeniedCategories, "alcohol")
	assert.Empty(t, cfg.MealPlan.AllowedCategories)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(0), cfg.ProfileID)
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "macroplan.yaml")
	body := []byte(`
db_path: /tmp/from-file.db
profile_id: 3
log:
  level: debug
mealplan:
  attempts: 50
  tolerance: 0.05
  seed: 99
  name_heuristics: true
  allowed_categories:
    Breakfast: [dairy, bakery]
server:
  addr: 127.0.0.1:9000
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	t.Setenv("MACROPLAN_MEALPLAN_ATTEMPTS", "75")
	t.Setenv("MACROPLAN_SERVER_ADDR", ":7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.DBPath)
	assert.Equal(t, int64(3), cfg.ProfileID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 75, cfg.MealPlan.Attempts)
	assert.Equal(t, 0.05, cfg.MealPlan.Tolerance)
	assert.Equal(t, int64(99), cfg.MealPlan.Seed)
	assert.True(t, cfg.MealPlan.NameHeuristics)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, path, cfg.File)

	opts := cfg.MealPlan.GenerateOptions()
	assert.Equal(t, 75, opts.Attempts)
	assert.NotNil(t, opts.Preference)
	assert.Equal(t, map[mealplan.MealType][]string{mealplan.Breakfast: {"dairy", "bakery"}}, opts.AllowedCategories)
}

func TestLoadRejectsUnknownAllowedMeal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "macroplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mealplan:\n  allowed_categories:\n    brunch: [dairy]\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brunch")
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsNegativeProfile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MACROPLAN_PROFILE_ID", "-2")

	_, err := Load("")
	require.Error(t, err)
}
