package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/analytics"
	"github.com/saadjs/macroplan/internal/model"
)

type WeightEntryInput struct {
	Weight     float64
	Unit       string
	BodyFatPct *float64
	EntryAt    time.Time
	Notes      string
}

type UpdateWeightEntryInput struct {
	ID int64
	WeightEntryInput
}

type WeightFilter struct {
	FromDate string
	ToDate   string
	Days     int
	Limit    int
}

func AddWeightEntry(db *sql.DB, profileID int64, in WeightEntryInput) (int64, error) {
	weightKg, err := convertWeightToKg(in.Weight, in.Unit)
	if err != nil {
		return 0, err
	}
	if err := validateBodyFat(in.BodyFatPct); err != nil {
		return 0, err
	}
	if in.EntryAt.IsZero() {
		in.EntryAt = time.Now()
	}
	res, err := db.Exec(`
INSERT INTO weight_log(profile_id, entry_at, weight_kg, body_fat_pct, notes)
VALUES(?, ?, ?, ?, ?)
`, profileID, formatTimestamp(in.EntryAt), weightKg, in.BodyFatPct, strings.TrimSpace(in.Notes))
	if err != nil {
		return 0, fmt.Errorf("add weight entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("resolve weight entry id: %w", err)
	}
	logger.Debug("weight entry added", zapProfile(profileID), zap.Int64("entry_id", id), zap.Float64("weight_kg", weightKg))
	return id, nil
}

func ListWeightEntries(db *sql.DB, profileID int64, f WeightFilter) ([]model.WeightEntry, error) {
	if f.Days > 0 && (strings.TrimSpace(f.FromDate) != "" || strings.TrimSpace(f.ToDate) != "") {
		return nil, fmt.Errorf("--days cannot be combined with --from or --to")
	}
	query := `SELECT id, profile_id, entry_at, weight_kg, body_fat_pct, IFNULL(notes, '') FROM weight_log WHERE profile_id = ?`
	args := []any{profileID}

	if f.Days > 0 {
		from := analytics.DayStart(time.Now()).AddDate(0, 0, -(f.Days - 1))
		query += ` AND entry_at >= ?`
		args = append(args, formatTimestamp(from))
	}
	if strings.TrimSpace(f.FromDate) != "" {
		from, err := parseDate(f.FromDate)
		if err != nil {
			return nil, err
		}
		query += ` AND entry_at >= ?`
		args = append(args, formatTimestamp(from))
	}
	if strings.TrimSpace(f.ToDate) != "" {
		to, err := parseDate(f.ToDate)
		if err != nil {
			return nil, err
		}
		query += ` AND entry_at < ?`
		args = append(args, formatTimestamp(to.AddDate(0, 0, 1)))
	}

	query += ` ORDER BY entry_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list weight entries: %w", err)
	}
	defer rows.Close()

	items := make([]model.WeightEntry, 0)
	for rows.Next() {
		var e model.WeightEntry
		var entryAtRaw string
		var bodyFat sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.ProfileID, &entryAtRaw, &e.WeightKg, &bodyFat, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan weight entry: %w", err)
		}
		e.EntryAt, err = parseTimestamp(entryAtRaw)
		if err != nil {
			return nil, err
		}
		e.BodyFatPct = nullFloat(bodyFat)
		if e.BodyFatPct != nil {
			lean := e.WeightKg * (1 - *e.BodyFatPct/100)
			e.LeanMassKg = &lean
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight entries: %w", err)
	}
	return items, nil
}

// SummarizeWeightEntries averages weight over all entries and body fat and
// lean mass over the entries that carry a body-fat reading.
func SummarizeWeightEntries(entries []model.WeightEntry) model.WeightStats {
	stats := model.WeightStats{Count: len(entries)}
	if len(entries) == 0 {
		return stats
	}
	var weight, fat, lean float64
	withFat := 0
	for _, e := range entries {
		weight += e.WeightKg
		if e.BodyFatPct != nil && e.LeanMassKg != nil {
			fat += *e.BodyFatPct
			lean += *e.LeanMassKg
			withFat++
		}
	}
	avgWeight := weight / float64(len(entries))
	stats.AvgWeightKg = &avgWeight
	if withFat > 0 {
		avgFat := fat / float64(withFat)
		avgLean := lean / float64(withFat)
		stats.AvgBodyFatPct = &avgFat
		stats.AvgLeanMassKg = &avgLean
	}
	return stats
}

func UpdateWeightEntry(db *sql.DB, profileID int64, in UpdateWeightEntryInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("weight entry id must be > 0")
	}
	weightKg, err := convertWeightToKg(in.Weight, in.Unit)
	if err != nil {
		return err
	}
	if err := validateBodyFat(in.BodyFatPct); err != nil {
		return err
	}
	if in.EntryAt.IsZero() {
		return fmt.Errorf("entry date/time is required")
	}
	res, err := db.Exec(`
UPDATE weight_log
SET entry_at = ?, weight_kg = ?, body_fat_pct = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND profile_id = ?
`, formatTimestamp(in.EntryAt), weightKg, in.BodyFatPct, strings.TrimSpace(in.Notes), in.ID, profileID)
	if err != nil {
		return fmt.Errorf("update weight entry %d: %w", in.ID, err)
	}
	return requireAffected(res, "weight entry", in.ID)
}

func DeleteWeightEntry(db *sql.DB, profileID, id int64) error {
	if id <= 0 {
		return fmt.Errorf("weight entry id must be > 0")
	}
	res, err := db.Exec(`DELETE FROM weight_log WHERE id = ? AND profile_id = ?`, id, profileID)
	if err != nil {
		return fmt.Errorf("delete weight entry %d: %w", id, err)
	}
	return requireAffected(res, "weight entry", id)
}

// DeleteAllWeightEntries clears the profile's weight log together with every
// analytics week derived from it.
func DeleteAllWeightEntries(db *sql.DB, profileID int64) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin clear weight log tx: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM weight_log WHERE profile_id = ?`, profileID)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear weight log: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read rows affected: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM analytics_weeks WHERE profile_id = ?`, profileID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("clear analytics weeks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear weight log tx: %w", err)
	}
	logger.Info("weight log cleared", zapProfile(profileID), zap.Int64("deleted", deleted))
	return deleted, nil
}

func loadEngineEntries(db *sql.DB, profileID int64) ([]analytics.Entry, error) {
	rows, err := db.Query(`
SELECT entry_at, weight_kg, body_fat_pct FROM weight_log
WHERE profile_id = ?
ORDER BY entry_at ASC, id ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("load weight log: %w", err)
	}
	defer rows.Close()

	out := make([]analytics.Entry, 0)
	for rows.Next() {
		var raw string
		var e analytics.Entry
		var bodyFat sql.NullFloat64
		if err := rows.Scan(&raw, &e.WeightKg, &bodyFat); err != nil {
			return nil, fmt.Errorf("scan weight log: %w", err)
		}
		if e.At, err = parseTimestamp(raw); err != nil {
			return nil, err
		}
		e.BodyFatPct = nullFloat(bodyFat)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weight log: %w", err)
	}
	return out, nil
}

func validateBodyFat(v *float64) error {
	if v != nil && (*v < 0 || *v > 100) {
		return fmt.Errorf("body-fat must be between 0 and 100")
	}
	return nil
}

func convertWeightToKg(value float64, unit string) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("weight must be > 0")
	}
	switch normalizeUnit(unit) {
	case "kg":
		return value, nil
	case "lb", "lbs":
		return value * 0.45359237, nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func WeightFromKg(weightKg float64, unit string) (float64, error) {
	switch normalizeUnit(unit) {
	case "kg":
		return weightKg, nil
	case "lb", "lbs":
		return weightKg / 0.45359237, nil
	default:
		return 0, fmt.Errorf("invalid weight unit %q (use kg or lb)", unit)
	}
}

func normalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		return "kg"
	}
	return u
}
