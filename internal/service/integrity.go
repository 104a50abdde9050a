package service

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/analytics"
)

type DoctorReport struct {
	OrphanPhaseRefs       int     `json:"orphan_phase_refs"`
	ForeignPhaseRefs      int     `json:"foreign_phase_refs"`
	UnsetPhaseRefs        int     `json:"unset_phase_refs"`
	ProfilesMissingPhases []int64 `json:"profiles_missing_phases"`
	InvalidFoods          []int64 `json:"invalid_foods"`
	FixedProfiles         int     `json:"fixed_profiles,omitempty"`
	FixedWeeks            int     `json:"fixed_weeks,omitempty"`
}

// Healthy reports whether no problem was found. Fixed rows are not counted.
func (r DoctorReport) Healthy() bool {
	return r.OrphanPhaseRefs == 0 && r.ForeignPhaseRefs == 0 && r.UnsetPhaseRefs == 0 &&
		len(r.ProfilesMissingPhases) == 0 && len(r.InvalidFoods) == 0
}

// RunDoctor checks the store for broken analytics phase references, profiles
// without the default diet phases and foods with unusable macros. With fix,
// missing phases are seeded and broken week references are pointed at the
// profile's default phase. Invalid foods are only reported.
func RunDoctor(db *sql.DB, fix bool) (DoctorReport, error) {
	report := DoctorReport{ProfilesMissingPhases: []int64{}, InvalidFoods: []int64{}}

	if err := db.QueryRow(`
SELECT COUNT(1) FROM analytics_weeks w
LEFT JOIN diet_phases p ON p.id = w.phase_id
WHERE w.phase_id IS NOT NULL AND p.id IS NULL
`).Scan(&report.OrphanPhaseRefs); err != nil {
		return report, fmt.Errorf("doctor orphan phase check: %w", err)
	}
	if err := db.QueryRow(`
SELECT COUNT(1) FROM analytics_weeks w
JOIN diet_phases p ON p.id = w.phase_id
WHERE p.profile_id <> w.profile_id
`).Scan(&report.ForeignPhaseRefs); err != nil {
		return report, fmt.Errorf("doctor foreign phase check: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(1) FROM analytics_weeks WHERE phase_id IS NULL`).Scan(&report.UnsetPhaseRefs); err != nil {
		return report, fmt.Errorf("doctor unset phase check: %w", err)
	}

	missing, err := queryIDs(db, `
SELECT pr.id FROM profiles pr
WHERE (SELECT COUNT(1) FROM diet_phases p WHERE p.profile_id = pr.id) < ?
ORDER BY pr.id
`, len(analytics.DefaultPhases()))
	if err != nil {
		return report, fmt.Errorf("doctor phase seed check: %w", err)
	}
	report.ProfilesMissingPhases = missing

	invalid, err := queryIDs(db, `
SELECT id FROM foods
WHERE calories < 0 OR protein_g < 0 OR carbs_g < 0 OR fat_g < 0
   OR (calories = 0 AND protein_g = 0 AND carbs_g = 0 AND fat_g = 0)
ORDER BY id
`)
	if err != nil {
		return report, fmt.Errorf("doctor food check: %w", err)
	}
	report.InvalidFoods = invalid

	if !fix {
		return report, nil
	}

	for _, id := range report.ProfilesMissingPhases {
		if err := EnsureDietPhases(db, id); err != nil {
			return report, fmt.Errorf("doctor seed phases for profile %d: %w", id, err)
		}
		report.FixedProfiles++
	}

	if report.OrphanPhaseRefs+report.ForeignPhaseRefs+report.UnsetPhaseRefs > 0 {
		fixed, err := repointWeekPhases(db)
		if err != nil {
			return report, err
		}
		report.FixedWeeks = fixed
	}
	logger.Info("doctor finished",
		zap.Int("fixed_profiles", report.FixedProfiles),
		zap.Int("fixed_weeks", report.FixedWeeks),
		zap.Int("invalid_foods", len(report.InvalidFoods)))
	return report, nil
}

func repointWeekPhases(db *sql.DB) (int, error) {
	key, err := DefaultPhaseKey(db)
	if err != nil {
		return 0, err
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("doctor fix begin tx: %w", err)
	}
	res, err := tx.Exec(`
UPDATE analytics_weeks
SET phase_id = (SELECT p.id FROM diet_phases p WHERE p.profile_id = analytics_weeks.profile_id AND p.phase_key = ?),
    updated_at = CURRENT_TIMESTAMP
WHERE phase_id IS NULL
   OR phase_id NOT IN (SELECT p.id FROM diet_phases p WHERE p.profile_id = analytics_weeks.profile_id)
`, key)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("doctor fix week phases: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("doctor fix commit: %w", err)
	}
	return int(affected), nil
}

func queryIDs(db *sql.DB, query string, args ...any) ([]int64, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
