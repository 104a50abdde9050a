package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/saadjs/macroplan/internal/app"
	"github.com/saadjs/macroplan/internal/mealplan"
)

const envPrefix = "MACROPLAN"

type Config struct {
	DBPath    string
	ProfileID int64
	Log       LogConfig
	MealPlan  MealPlanConfig
	Server    ServerConfig
	OFF       OpenFoodFactsConfig
	File      string
}

type LogConfig struct {
	Level  string
	Format string
}

type MealPlanConfig struct {
	Attempts          int
	Tolerance         float64
	Seed              int64
	NameHeuristics    bool
	DeniedCategories  []string
	AllowedCategories map[mealplan.MealType][]string
	Timeout           time.Duration
}

type ServerConfig struct {
	Addr string
}

type OpenFoodFactsConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load resolves configuration from defaults, an optional YAML file, a .env
// file in the working directory and MACROPLAN_* environment variables, in
// increasing order of precedence. A missing file is only an error when path
// names it explicitly.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := app.ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := Config{
		DBPath:    v.GetString("db_path"),
		ProfileID: v.GetInt64("profile_id"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		MealPlan: MealPlanConfig{
			Attempts:         v.GetInt("mealplan.attempts"),
			Tolerance:        v.GetFloat64("mealplan.tolerance"),
			Seed:             v.GetInt64("mealplan.seed"),
			NameHeuristics:   v.GetBool("mealplan.name_heuristics"),
			DeniedCategories: v.GetStringSlice("mealplan.denied_categories"),
			Timeout:          v.GetDuration("mealplan.timeout"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		OFF: OpenFoodFactsConfig{
			BaseURL: v.GetString("openfoodfacts.base_url"),
			Timeout: v.GetDuration("openfoodfacts.timeout"),
		},
		File: v.ConfigFileUsed(),
	}
	allowed, err := allowedCategories(v.GetStringMapStringSlice("mealplan.allowed_categories"))
	if err != nil {
		return Config{}, err
	}
	cfg.MealPlan.AllowedCategories = allowed
	if cfg.ProfileID < 0 {
		return Config{}, fmt.Errorf("profile_id must be >= 0")
	}
	if cfg.MealPlan.Tolerance < 0 {
		return Config{}, fmt.Errorf("mealplan.tolerance must be >= 0")
	}
	return cfg, nil
}

func allowedCategories(raw map[string][]string) (map[mealplan.MealType][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[mealplan.MealType][]string, len(raw))
	for key, names := range raw {
		meal, ok := mealplan.ParseMealType(key)
		if !ok || meal == "" {
			return nil, fmt.Errorf("mealplan.allowed_categories: unknown meal type %q", key)
		}
		out[meal] = names
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "")
	v.SetDefault("profile_id", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("mealplan.attempts", mealplan.DefaultAttempts)
	v.SetDefault("mealplan.tolerance", mealplan.DefaultTolerance)
	v.SetDefault("mealplan.seed", 0)
	v.SetDefault("mealplan.name_heuristics", false)
	v.SetDefault("mealplan.denied_categories", mealplan.DefaultDeniedCategories())
	v.SetDefault("mealplan.timeout", 5*time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("openfoodfacts.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("openfoodfacts.timeout", 12*time.Second)
}

// GenerateOptions maps the meal plan settings onto generator options. The
// random source and logger are left to the caller.
func (c MealPlanConfig) GenerateOptions() mealplan.Options {
	opts := mealplan.Options{
		Attempts:          c.Attempts,
		Tolerance:         c.Tolerance,
		DeniedCategories:  c.DeniedCategories,
		AllowedCategories: c.AllowedCategories,
	}
	if c.NameHeuristics {
		opts.Preference = mealplan.DefaultKeywordPreference()
	}
	return opts
}
