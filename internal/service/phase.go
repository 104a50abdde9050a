package service

import (
	"database/sql"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/analytics"
	"github.com/saadjs/macroplan/internal/model"
)

type DietPhaseUpdate struct {
	Key              string
	ProteinPerKgLean *float64
	FatPerKgBody     *float64
	CalorieOffset    *float64
}

// EnsureDietPhases inserts any default phase missing for the profile and
// leaves existing rows untouched.
func EnsureDietPhases(db *sql.DB, profileID int64) error {
	for _, p := range analytics.DefaultPhases() {
		if _, err := db.Exec(`
INSERT OR IGNORE INTO diet_phases(profile_id, phase_key, protein_per_kg_lean, fat_per_kg_body, calorie_offset)
VALUES(?, ?, ?, ?, ?)
`, profileID, p.Key, p.ProteinPerKgLean, p.FatPerKgBody, p.CalorieOffset); err != nil {
			return fmt.Errorf("seed diet phase %s: %w", p.Key, err)
		}
	}
	return nil
}

func ListDietPhases(db *sql.DB, profileID int64) ([]model.DietPhase, error) {
	if err := EnsureDietPhases(db, profileID); err != nil {
		return nil, err
	}
	rows, err := db.Query(`
SELECT id, profile_id, phase_key, protein_per_kg_lean, fat_per_kg_body, calorie_offset
FROM diet_phases WHERE profile_id = ? ORDER BY id ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list diet phases: %w", err)
	}
	defer rows.Close()

	out := make([]model.DietPhase, 0)
	for rows.Next() {
		var p model.DietPhase
		if err := rows.Scan(&p.ID, &p.ProfileID, &p.Key, &p.ProteinPerKgLean, &p.FatPerKgBody, &p.CalorieOffset); err != nil {
			return nil, fmt.Errorf("scan diet phase: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diet phases: %w", err)
	}
	return out, nil
}

func UpdateDietPhase(db *sql.DB, profileID int64, in DietPhaseUpdate) (model.DietPhase, error) {
	key := normalizeName(in.Key)
	if key == "" {
		return model.DietPhase{}, fmt.Errorf("phase key is required")
	}
	if in.ProteinPerKgLean == nil && in.FatPerKgBody == nil && in.CalorieOffset == nil {
		return model.DietPhase{}, fmt.Errorf("set at least one of protein, fat or offset")
	}
	if in.ProteinPerKgLean != nil && *in.ProteinPerKgLean <= 0 {
		return model.DietPhase{}, fmt.Errorf("protein per kg lean mass must be > 0")
	}
	if in.FatPerKgBody != nil && *in.FatPerKgBody <= 0 {
		return model.DietPhase{}, fmt.Errorf("fat per kg body weight must be > 0")
	}
	if err := EnsureDietPhases(db, profileID); err != nil {
		return model.DietPhase{}, err
	}

	current, err := dietPhaseByKey(db, profileID, key)
	if err != nil {
		return model.DietPhase{}, err
	}
	if in.ProteinPerKgLean != nil {
		current.ProteinPerKgLean = *in.ProteinPerKgLean
	}
	if in.FatPerKgBody != nil {
		current.FatPerKgBody = *in.FatPerKgBody
	}
	if in.CalorieOffset != nil {
		current.CalorieOffset = int(math.Round(*in.CalorieOffset))
	}
	if _, err := db.Exec(`
UPDATE diet_phases
SET protein_per_kg_lean = ?, fat_per_kg_body = ?, calorie_offset = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, current.ProteinPerKgLean, current.FatPerKgBody, current.CalorieOffset, current.ID); err != nil {
		return model.DietPhase{}, fmt.Errorf("update diet phase %s: %w", key, err)
	}
	logger.Info("diet phase updated", zapProfile(profileID), zap.String("phase", key),
		zap.Float64("protein_per_kg_lean", current.ProteinPerKgLean),
		zap.Float64("fat_per_kg_body", current.FatPerKgBody),
		zap.Int("calorie_offset", current.CalorieOffset))
	return current, nil
}

func dietPhaseByKey(db *sql.DB, profileID int64, key string) (model.DietPhase, error) {
	var p model.DietPhase
	err := db.QueryRow(`
SELECT id, profile_id, phase_key, protein_per_kg_lean, fat_per_kg_body, calorie_offset
FROM diet_phases WHERE profile_id = ? AND phase_key = ?
`, profileID, normalizeName(key)).Scan(&p.ID, &p.ProfileID, &p.Key, &p.ProteinPerKgLean, &p.FatPerKgBody, &p.CalorieOffset)
	if err == sql.ErrNoRows {
		return p, fmt.Errorf("diet phase %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("lookup diet phase %q: %w", key, err)
	}
	return p, nil
}

// resolvePhaseID accepts either a phase id owned by the profile or a phase key.
func resolvePhaseID(db *sql.DB, profileID int64, phaseID *int64, phaseKey string) (int64, error) {
	if phaseID != nil {
		var id int64
		err := db.QueryRow(`SELECT id FROM diet_phases WHERE id = ? AND profile_id = ?`, *phaseID, profileID).Scan(&id)
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("diet phase %d: %w", *phaseID, ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("lookup diet phase %d: %w", *phaseID, err)
		}
		return id, nil
	}
	if strings.TrimSpace(phaseKey) == "" {
		return 0, fmt.Errorf("phase id or key is required")
	}
	if err := EnsureDietPhases(db, profileID); err != nil {
		return 0, err
	}
	p, err := dietPhaseByKey(db, profileID, phaseKey)
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}
