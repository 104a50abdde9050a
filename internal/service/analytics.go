package service

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/analytics"
	"github.com/saadjs/macroplan/internal/model"
)

type AnalyticsWeekInput struct {
	WeekStart    time.Time
	WeekNumber   *int
	Workout      *bool
	PhaseID      *int64
	PhaseKey     string
	DisplayWidth *int
}

type RebuildOptions struct {
	// ResetPhases discards stored phase and workout choices instead of
	// carrying them over by week start.
	ResetPhases bool
}

type RebuildResult struct {
	Weeks     int `json:"weeks"`
	Preserved int `json:"preserved"`
}

type weekPolicy struct {
	workout      string
	phaseID      sql.NullInt64
	displayWidth sql.NullInt64
}

// ListAnalyticsWeeks returns the stored weeks of a profile with metrics
// recomputed from the current weight log, profile and phase coefficients.
func ListAnalyticsWeeks(db *sql.DB, profileID int64, asOf time.Time) ([]model.AnalyticsWeek, error) {
	profile, err := GetProfile(db, profileID)
	if err != nil {
		return nil, err
	}
	phases, err := ListDietPhases(db, profileID)
	if err != nil {
		return nil, err
	}
	phaseByID := make(map[int64]model.DietPhase, len(phases))
	for _, p := range phases {
		phaseByID[p.ID] = p
	}
	entries, err := loadEngineEntries(db, profileID)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
SELECT id, week_start, week_number, workout, phase_id, display_width
FROM analytics_weeks WHERE profile_id = ?
ORDER BY week_start ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list analytics weeks: %w", err)
	}
	defer rows.Close()

	engineProfile := profile.Engine()
	out := make([]model.AnalyticsWeek, 0)
	for rows.Next() {
		var w model.AnalyticsWeek
		var startRaw, workout string
		var phaseID, width sql.NullInt64
		if err := rows.Scan(&w.ID, &startRaw, &w.WeekNumber, &workout, &phaseID, &width); err != nil {
			return nil, fmt.Errorf("scan analytics week: %w", err)
		}
		w.ProfileID = profileID
		w.WeekStart, err = parseDate(startRaw)
		if err != nil {
			return nil, err
		}
		w.Workout = workout == "Y"
		w.PhaseID = nullInt64(phaseID)
		if width.Valid {
			v := int(width.Int64)
			w.DisplayWidth = &v
		}

		var phase *analytics.Phase
		if p, ok := phaseByID[phaseID.Int64]; ok && phaseID.Valid {
			ep := p.Engine()
			phase = &ep
			w.PhaseKey = p.Key
		}
		window := analytics.EntriesInWeek(entries, w.WeekStart)
		w.EntryCount = len(window)
		w.Metrics = analytics.ComputeWeekMetrics(engineProfile, window, phase, asOf)
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics weeks: %w", err)
	}
	return out, nil
}

// UpsertAnalyticsWeek stores the per-week choices keyed by week start. Once the
// profile has weight entries, the start is snapped to the 7-day grid anchored
// at the first entry so it always names the same window a rebuild produces.
// Fields left nil keep their stored value, or take the rebuild defaults for a
// new week.
func UpsertAnalyticsWeek(db *sql.DB, profileID int64, in AnalyticsWeekInput) (int64, error) {
	if in.WeekStart.IsZero() {
		return 0, fmt.Errorf("week start is required")
	}
	if in.WeekNumber != nil && *in.WeekNumber <= 0 {
		return 0, fmt.Errorf("week number must be > 0")
	}
	if in.DisplayWidth != nil && *in.DisplayWidth <= 0 {
		return 0, fmt.Errorf("display width must be > 0")
	}
	profile, err := GetProfile(db, profileID)
	if err != nil {
		return 0, err
	}
	anchor, hasAnchor, err := firstEntryAt(db, profileID)
	if err != nil {
		return 0, err
	}
	weekStart := analytics.DayStart(in.WeekStart)
	if hasAnchor {
		snapped, ok := analytics.GridWeekStart(anchor, in.WeekStart)
		if !ok {
			return 0, fmt.Errorf("week start %s is before the first weight entry on %s", formatDate(weekStart), formatDate(anchor))
		}
		weekStart = snapped
	}
	start := formatDate(weekStart)

	var phaseID *int64
	if in.PhaseID != nil || in.PhaseKey != "" {
		id, err := resolvePhaseID(db, profileID, in.PhaseID, in.PhaseKey)
		if err != nil {
			return 0, err
		}
		phaseID = &id
	}

	var existingID int64
	err = db.QueryRow(`SELECT id FROM analytics_weeks WHERE profile_id = ? AND week_start = ?`, profileID, start).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup analytics week %s: %w", start, err)
	}

	if err == sql.ErrNoRows {
		number := 1
		if in.WeekNumber != nil {
			number = *in.WeekNumber
		} else if hasAnchor {
			number = analytics.WeekNumberFor(anchor, weekStart)
		}
		workout := profile.ActivityLevel > 0
		if in.Workout != nil {
			workout = *in.Workout
		}
		if phaseID == nil {
			id, err := defaultPhaseID(db, profileID)
			if err != nil {
				return 0, err
			}
			phaseID = &id
		}
		res, err := db.Exec(`
INSERT INTO analytics_weeks(profile_id, week_start, week_number, workout, phase_id, display_width)
VALUES(?, ?, ?, ?, ?, ?)
`, profileID, start, number, workoutFlag(workout), *phaseID, in.DisplayWidth)
		if err != nil {
			return 0, fmt.Errorf("insert analytics week %s: %w", start, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("resolve analytics week id: %w", err)
		}
		return id, nil
	}

	var workout any
	if in.Workout != nil {
		workout = workoutFlag(*in.Workout)
	}
	if _, err := db.Exec(`
UPDATE analytics_weeks
SET week_number = COALESCE(?, week_number),
    workout = COALESCE(?, workout),
    phase_id = COALESCE(?, phase_id),
    display_width = COALESCE(?, display_width),
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, in.WeekNumber, workout, phaseID, in.DisplayWidth, existingID); err != nil {
		return 0, fmt.Errorf("update analytics week %s: %w", start, err)
	}
	return existingID, nil
}

// RebuildWeeklySeries replaces the profile's analytics weeks with one row per
// non-empty 7-day window of the weight log.
func RebuildWeeklySeries(db *sql.DB, profileID int64, opts RebuildOptions) (RebuildResult, error) {
	profile, err := GetProfile(db, profileID)
	if err != nil {
		return RebuildResult{}, err
	}
	entries, err := loadEngineEntries(db, profileID)
	if err != nil {
		return RebuildResult{}, err
	}
	weeks := analytics.BucketWeeks(entries)

	previous := map[string]weekPolicy{}
	if !opts.ResetPhases {
		previous, err = loadWeekPolicies(db, profileID)
		if err != nil {
			return RebuildResult{}, err
		}
	}
	fallbackPhase, err := defaultPhaseID(db, profileID)
	if err != nil {
		return RebuildResult{}, err
	}
	defaultWorkout := workoutFlag(profile.ActivityLevel > 0)

	tx, err := db.Begin()
	if err != nil {
		return RebuildResult{}, fmt.Errorf("begin rebuild tx: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM analytics_weeks WHERE profile_id = ?`, profileID); err != nil {
		_ = tx.Rollback()
		return RebuildResult{}, fmt.Errorf("clear analytics weeks: %w", err)
	}

	result := RebuildResult{Weeks: len(weeks)}
	for _, w := range weeks {
		start := formatDate(w.Start)
		policy, kept := previous[start]
		if !kept {
			policy = weekPolicy{workout: defaultWorkout}
		}
		phase := fallbackPhase
		if policy.phaseID.Valid {
			phase = policy.phaseID.Int64
		}
		if kept {
			result.Preserved++
		}
		var width any
		if policy.displayWidth.Valid {
			width = policy.displayWidth.Int64
		}
		if _, err := tx.Exec(`
INSERT INTO analytics_weeks(profile_id, week_start, week_number, workout, phase_id, display_width)
VALUES(?, ?, ?, ?, ?, ?)
`, profileID, start, w.Number, policy.workout, phase, width); err != nil {
			_ = tx.Rollback()
			return RebuildResult{}, fmt.Errorf("insert analytics week %s: %w", start, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return RebuildResult{}, fmt.Errorf("commit rebuild tx: %w", err)
	}

	logger.Info("weekly series rebuilt", zapProfile(profileID),
		zap.Int("weeks", result.Weeks),
		zap.Int("preserved", result.Preserved),
		zap.Bool("reset_phases", opts.ResetPhases))
	return result, nil
}

func loadWeekPolicies(db *sql.DB, profileID int64) (map[string]weekPolicy, error) {
	rows, err := db.Query(`SELECT week_start, workout, phase_id, display_width FROM analytics_weeks WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, fmt.Errorf("load analytics week choices: %w", err)
	}
	defer rows.Close()
	out := map[string]weekPolicy{}
	for rows.Next() {
		var start string
		var p weekPolicy
		if err := rows.Scan(&start, &p.workout, &p.phaseID, &p.displayWidth); err != nil {
			return nil, fmt.Errorf("scan analytics week choice: %w", err)
		}
		out[start] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analytics week choices: %w", err)
	}
	return out, nil
}

func defaultPhaseID(db *sql.DB, profileID int64) (int64, error) {
	key, err := DefaultPhaseKey(db)
	if err != nil {
		return 0, err
	}
	return resolvePhaseID(db, profileID, nil, key)
}

func firstEntryAt(db *sql.DB, profileID int64) (time.Time, bool, error) {
	var raw sql.NullString
	if err := db.QueryRow(`SELECT MIN(entry_at) FROM weight_log WHERE profile_id = ?`, profileID).Scan(&raw); err != nil {
		return time.Time{}, false, fmt.Errorf("lookup first weight entry: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	t, err := parseTimestamp(raw.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func workoutFlag(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}
