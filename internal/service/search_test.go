package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/saadjs/macroplan/internal/provider/openfoodfacts"
	"github.com/saadjs/macroplan/internal/service"
)

type fakeSearcher struct {
	products []openfoodfacts.Product
	err      error
	barcode  string
}

func (f *fakeSearcher) SearchFoods(_ context.Context, _ string, _ int) ([]openfoodfacts.Product, error) {
	return f.products, f.err
}

func (f *fakeSearcher) LookupBarcode(_ context.Context, barcode string) (openfoodfacts.Product, error) {
	f.barcode = barcode
	if f.err != nil {
		return openfoodfacts.Product{}, f.err
	}
	return f.products[0], nil
}

func TestLookupFoodsFiltersEmptyProducts(t *testing.T) {
	t.Parallel()
	s := &fakeSearcher{products: []openfoodfacts.Product{
		{Code: "1", Name: "Skyr", Calories: 63, ProteinG: 11, CarbsG: 4, FatG: 0.2},
		{Code: "2", Name: "Mystery"},
		{Code: "3", Name: "Quark", Calories: 67, ProteinG: 12},
	}}
	items, err := service.LookupFoods(context.Background(), s, "skyr", service.LookupOptions{Limit: 1})
	if err != nil {
		t.Fatalf("lookup foods: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Skyr" {
		t.Fatalf("unexpected lookup result: %+v", items)
	}

	if _, err := service.LookupFoods(context.Background(), &fakeSearcher{products: []openfoodfacts.Product{{Name: "Empty"}}}, "x", service.LookupOptions{}); err == nil {
		t.Fatalf("expected error when nothing usable is found")
	}
	if _, err := service.LookupFoods(context.Background(), s, "  ", service.LookupOptions{}); err == nil {
		t.Fatalf("expected empty query to fail")
	}
	boom := errors.New("offline")
	if _, err := service.LookupFoods(context.Background(), &fakeSearcher{err: boom}, "x", service.LookupOptions{}); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestLookupFoodsByBarcodeAndSave(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	defer db.Close()

	s := &fakeSearcher{products: []openfoodfacts.Product{
		{Code: "4006040000000", Name: "Skyr", Brand: "Nordic", Calories: 63, ProteinG: 11, CarbsG: 4, FatG: 0.2},
	}}
	items, err := service.LookupFoods(context.Background(), s, "4006040000000", service.LookupOptions{Barcode: true})
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if s.barcode != "4006040000000" {
		t.Fatalf("expected barcode lookup, got %q", s.barcode)
	}

	id, created, err := service.SaveLookupResult(db, items[0], service.SaveLookupInput{Category: "dairy", MealType: "breakfast"})
	if err != nil {
		t.Fatalf("save lookup result: %v", err)
	}
	if !created {
		t.Fatalf("expected a new food")
	}
	food, err := service.GetFood(db, id)
	if err != nil {
		t.Fatalf("get food: %v", err)
	}
	if food.Name != "Skyr (Nordic)" || food.Source != service.SourceOpenFoodFacts || food.SourceRef != "4006040000000" || food.Category != "dairy" {
		t.Fatalf("unexpected saved food: %+v", food)
	}

	_, created, err = service.SaveLookupResult(db, items[0], service.SaveLookupInput{})
	if err != nil {
		t.Fatalf("save lookup again: %v", err)
	}
	if created {
		t.Fatalf("expected second save to update the existing food")
	}
}
