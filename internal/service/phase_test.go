package service_test

import (
	"errors"
	"testing"

	"github.com/saadjs/macroplan/internal/service"
)

func TestUpdateDietPhase(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	updated, err := service.UpdateDietPhase(db, profileID, service.DietPhaseUpdate{
		Key:           "Bulk",
		CalorieOffset: floatPtr(349.6),
	})
	if err != nil {
		t.Fatalf("update diet phase: %v", err)
	}
	if updated.Key != "bulk" || updated.CalorieOffset != 350 {
		t.Fatalf("expected rounded bulk offset 350, got %+v", updated)
	}
	if updated.ProteinPerKgLean != 1.8 || updated.FatPerKgBody != 0.30 {
		t.Fatalf("expected untouched coefficients, got %+v", updated)
	}

	phases, err := service.ListDietPhases(db, profileID)
	if err != nil {
		t.Fatalf("list diet phases: %v", err)
	}
	found := false
	for _, p := range phases {
		if p.Key == "bulk" {
			found = true
			if p.CalorieOffset != 350 {
				t.Fatalf("expected stored offset 350, got %d", p.CalorieOffset)
			}
		}
	}
	if !found {
		t.Fatalf("bulk phase missing from %+v", phases)
	}
}

func TestUpdateDietPhaseValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()
	profileID := newTestProfile(t, db)

	if _, err := service.UpdateDietPhase(db, profileID, service.DietPhaseUpdate{Key: "cut"}); err == nil {
		t.Fatalf("expected error when nothing is set")
	}
	if _, err := service.UpdateDietPhase(db, profileID, service.DietPhaseUpdate{Key: "cut", ProteinPerKgLean: floatPtr(0)}); err == nil {
		t.Fatalf("expected non-positive protein to fail")
	}
	if _, err := service.UpdateDietPhase(db, profileID, service.DietPhaseUpdate{Key: "cut", FatPerKgBody: floatPtr(-0.1)}); err == nil {
		t.Fatalf("expected negative fat to fail")
	}
	if _, err := service.UpdateDietPhase(db, profileID, service.DietPhaseUpdate{Key: "maintain", CalorieOffset: floatPtr(0)}); !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown phase, got %v", err)
	}
}
