package service_test

import (
	"errors"
	"math"
	"testing"

	"github.com/saadjs/macroplan/internal/service"
)

func TestWeightEntryCRUDAndUnitConversion(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	id, err := service.AddWeightEntry(db, profileID, service.WeightEntryInput{
		Weight:     180,
		Unit:       "lb",
		BodyFatPct: floatPtr(22.5),
		EntryAt:    day(2026, 2, 20),
	})
	if err != nil {
		t.Fatalf("add weight entry: %v", err)
	}

	items, err := service.ListWeightEntries(db, profileID, service.WeightFilter{FromDate: "2026-02-20", ToDate: "2026-02-20"})
	if err != nil {
		t.Fatalf("list weight entries: %v", err)
	}
	if len(items) != 1 || items[0].ID != id {
		t.Fatalf("expected entry %d, got %+v", id, items)
	}
	if items[0].WeightKg < 81 || items[0].WeightKg > 82 {
		t.Fatalf("expected converted weight around 81.6kg, got %.4f", items[0].WeightKg)
	}
	if items[0].LeanMassKg == nil {
		t.Fatalf("expected lean mass with body fat reading")
	}

	if err := service.UpdateWeightEntry(db, profileID, service.UpdateWeightEntryInput{
		ID: id,
		WeightEntryInput: service.WeightEntryInput{
			Weight:  80,
			Unit:    "kg",
			EntryAt: day(2026, 2, 21),
		},
	}); err != nil {
		t.Fatalf("update weight entry: %v", err)
	}
	items, err = service.ListWeightEntries(db, profileID, service.WeightFilter{})
	if err != nil {
		t.Fatalf("list after update: %v", err)
	}
	if items[0].WeightKg != 80 || items[0].BodyFatPct != nil {
		t.Fatalf("unexpected updated entry: %+v", items[0])
	}

	if err := service.DeleteWeightEntry(db, profileID, id); err != nil {
		t.Fatalf("delete weight entry: %v", err)
	}
	if err := service.DeleteWeightEntry(db, profileID, id); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestWeightEntryValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	bad := []service.WeightEntryInput{
		{Weight: 0, Unit: "kg"},
		{Weight: 80, Unit: "stone"},
		{Weight: 80, Unit: "kg", BodyFatPct: floatPtr(101)},
		{Weight: 80, Unit: "kg", BodyFatPct: floatPtr(-1)},
	}
	for _, in := range bad {
		if _, err := service.AddWeightEntry(db, profileID, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
	if _, err := service.ListWeightEntries(db, profileID, service.WeightFilter{Days: 7, FromDate: "2026-01-01"}); err == nil {
		t.Fatalf("expected --days with --from to fail")
	}
}

func TestSummarizeWeightEntries(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	addWeight(t, db, profileID, day(2026, 1, 5), 80, floatPtr(20))
	addWeight(t, db, profileID, day(2026, 1, 6), 82, nil)
	items, err := service.ListWeightEntries(db, profileID, service.WeightFilter{})
	if err != nil {
		t.Fatalf("list weight entries: %v", err)
	}
	stats := service.SummarizeWeightEntries(items)
	if stats.Count != 2 || stats.AvgWeightKg == nil || *stats.AvgWeightKg != 81 {
		t.Fatalf("unexpected weight stats: %+v", stats)
	}
	if stats.AvgBodyFatPct == nil || *stats.AvgBodyFatPct != 20 {
		t.Fatalf("expected body fat averaged over readings only, got %v", stats.AvgBodyFatPct)
	}
	if stats.AvgLeanMassKg == nil || math.Abs(*stats.AvgLeanMassKg-64) > 1e-9 {
		t.Fatalf("expected lean mass 64, got %v", stats.AvgLeanMassKg)
	}
}

func TestDeleteAllWeightEntriesClearsAnalyticsWeeks(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	addWeight(t, db, profileID, day(2026, 1, 5), 80, floatPtr(20))
	addWeight(t, db, profileID, day(2026, 1, 14), 79, floatPtr(19))
	if _, err := service.RebuildWeeklySeries(db, profileID, service.RebuildOptions{}); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	deleted, err := service.DeleteAllWeightEntries(db, profileID)
	if err != nil {
		t.Fatalf("clear weight log: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted entries, got %d", deleted)
	}
	weeks, err := service.ListAnalyticsWeeks(db, profileID, day(2026, 2, 1))
	if err != nil {
		t.Fatalf("list analytics weeks: %v", err)
	}
	if len(weeks) != 0 {
		t.Fatalf("expected analytics weeks to be cleared, got %d", len(weeks))
	}
}

func TestWeightFromKg(t *testing.T) {
	t.Parallel()
	lb, err := service.WeightFromKg(0.45359237, "lb")
	if err != nil || math.Abs(lb-1) > 1e-9 {
		t.Fatalf("expected 1 lb, got %v (%v)", lb, err)
	}
	if _, err := service.WeightFromKg(1, "st"); err == nil {
		t.Fatalf("expected unknown unit to fail")
	}
}
