package service_test

import (
	"errors"
	"testing"

	"github.com/saadjs/macroplan/internal/service"
)

func TestSaveProfileCreatesAndUpdates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	id := newTestProfile(t, db)
	p, err := service.GetProfile(db, id)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Sex != "Male" || p.ActivityLevel != 1 || p.Role != "user" {
		t.Fatalf("unexpected stored profile: %+v", p)
	}
	if p.HeightCm == nil || *p.HeightCm != 180 {
		t.Fatalf("expected height 180, got %v", p.HeightCm)
	}
	if p.DateOfBirth == nil || p.DateOfBirth.Format("2006-01-02") != "1990-01-01" {
		t.Fatalf("unexpected date of birth: %v", p.DateOfBirth)
	}

	if _, err := service.SaveProfile(db, id, service.ProfileInput{Name: "renamed", Sex: "F", ActivityLevel: 3}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	p, err = service.GetProfile(db, id)
	if err != nil {
		t.Fatalf("get updated profile: %v", err)
	}
	if p.Name != "renamed" || p.Sex != "Female" || p.ActivityLevel != 3 || p.HeightCm != nil {
		t.Fatalf("unexpected updated profile: %+v", p)
	}

	phases, err := service.ListDietPhases(db, id)
	if err != nil {
		t.Fatalf("list diet phases: %v", err)
	}
	if len(phases) != 4 {
		t.Fatalf("expected 4 seeded phases, got %d", len(phases))
	}
}

func TestSaveProfileValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	cases := []service.ProfileInput{
		{Sex: "other"},
		{Sex: "male", ActivityLevel: 5},
		{Sex: "male", HeightCm: floatPtr(0)},
	}
	for _, in := range cases {
		if _, err := service.SaveProfile(db, 0, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
	if _, err := service.SaveProfile(db, 99, service.ProfileInput{Sex: "male"}); !errors.Is(err, service.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestSaveProfileRequiresSex(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	height := 180.0
	if _, err := service.SaveProfile(db, 0, service.ProfileInput{Name: "nobody", HeightCm: &height, ActivityLevel: 1}); err == nil {
		t.Fatalf("expected blank sex to be rejected on create")
	}
	profiles, err := service.ListProfiles(db)
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 0 {
		t.Fatalf("expected no stored profile, got %+v", profiles)
	}

	id := newTestProfile(t, db)
	if _, err := service.SaveProfile(db, id, service.ProfileInput{Name: "tester", Sex: "  "}); err == nil {
		t.Fatalf("expected blank sex to be rejected on update")
	}
	p, err := service.GetProfile(db, id)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Sex != "Male" {
		t.Fatalf("failed update changed sex to %q", p.Sex)
	}
}

func TestResolveProfileID(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	if _, err := service.ResolveProfileID(db, 0); !errors.Is(err, service.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound on empty store, got %v", err)
	}
	first := newTestProfile(t, db)
	second := newTestProfile(t, db)

	got, err := service.ResolveProfileID(db, 0)
	if err != nil || got != first {
		t.Fatalf("expected first profile %d, got %d (%v)", first, got, err)
	}
	got, err = service.ResolveProfileID(db, second)
	if err != nil || got != second {
		t.Fatalf("expected profile %d, got %d (%v)", second, got, err)
	}
	if _, err := service.ResolveProfileID(db, 42); !errors.Is(err, service.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound for unknown id, got %v", err)
	}
}
