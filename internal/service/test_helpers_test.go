package service_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/saadjs/macroplan/internal/db"
	"github.com/saadjs/macroplan/internal/service"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macroplan.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func newTestProfile(t *testing.T, sqldb *sql.DB) int64 {
	t.Helper()
	dob := time.Date(1990, 1, 1, 0, 0, 0, 0, time.Local)
	id, err := service.SaveProfile(sqldb, 0, service.ProfileInput{
		Name:          "tester",
		HeightCm:      floatPtr(180),
		DateOfBirth:   &dob,
		Sex:           "male",
		ActivityLevel: 1,
	})
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	return id
}

func addWeight(t *testing.T, sqldb *sql.DB, profileID int64, at time.Time, kg float64, bodyFat *float64) int64 {
	t.Helper()
	id, err := service.AddWeightEntry(sqldb, profileID, service.WeightEntryInput{
		Weight:     kg,
		Unit:       "kg",
		BodyFatPct: bodyFat,
		EntryAt:    at,
	})
	if err != nil {
		t.Fatalf("add weight entry: %v", err)
	}
	return id
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 8, 0, 0, 0, time.Local)
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
