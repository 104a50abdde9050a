package service

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/saadjs/macroplan/internal/analytics"
)

const (
	ConfigDefaultPhase = "default_phase"
	ConfigPlanAttempts = "plan_attempts"
)

var knownConfigKeys = map[string]func(string) error{
	ConfigDefaultPhase: validateDefaultPhase,
	ConfigPlanAttempts: validatePlanAttempts,
}

func validateDefaultPhase(value string) error {
	key := normalizeName(value)
	if _, ok := analytics.FindPhase(analytics.DefaultPhases(), key); !ok {
		return fmt.Errorf("unknown phase %q", value)
	}
	return nil
}

func validatePlanAttempts(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fmt.Errorf("plan_attempts must be a positive integer")
	}
	return nil
}

func SetConfig(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return fmt.Errorf("config key is required")
	}
	validate, ok := knownConfigKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := validate(value); err != nil {
		return err
	}
	_, err := db.Exec(`
INSERT INTO app_config(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("set config %q: %w", key, err)
	}
	return nil
}

func GetConfig(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return "", false, fmt.Errorf("config key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get config %q: %w", key, err)
	}
	return value, true, nil
}

func ListConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_config ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list config: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate config: %w", err)
	}
	return out, nil
}

// DefaultPhaseKey returns the configured phase for newly created weeks.
func DefaultPhaseKey(db *sql.DB) (string, error) {
	value, ok, err := GetConfig(db, ConfigDefaultPhase)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(value) == "" {
		return analytics.DefaultPhaseKey, nil
	}
	return normalizeName(value), nil
}

// PlanAttempts returns the stored attempt budget override, or 0 when unset.
func PlanAttempts(db *sql.DB) (int, error) {
	value, ok, err := GetConfig(db, ConfigPlanAttempts)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", ConfigPlanAttempts, err)
	}
	return n, nil
}
