package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLookupBarcodeParsesPer100gValues(t *testing.T) {
	t.Parallel()

	var gotPath, gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Yogurt Cup",
    "brands": "Brand Co",
    "nutriments": {
      "energy-kcal_serving": 120,
      "energy-kcal_100g": 70.5,
      "proteins_100g": "5.9",
      "carbohydrates_100g": 8.8,
      "fat": 1.2
    }
  }
}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, nil)
	item, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if gotPath != "/api/v2/product/12345678.json" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotAgent != userAgent {
		t.Fatalf("expected user agent %q, got %q", userAgent, gotAgent)
	}
	if item.Name != "Yogurt Cup" || item.Brand != "Brand Co" || item.Code != "12345678" {
		t.Fatalf("unexpected product identity: %+v", item)
	}
	if item.Calories != 70.5 || item.ProteinG != 5.9 || item.CarbsG != 8.8 || item.FatG != 1.2 {
		t.Fatalf("unexpected per-100g values: %+v", item)
	}
}

func TestLookupBarcodeMissingProduct(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": 0}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, nil)
	if _, err := c.LookupBarcode(context.Background(), "000"); err == nil {
		t.Fatalf("expected missing product error")
	}
}

func TestSearchFoodsSkipsUnnamedProducts(t *testing.T) {
	t.Parallel()

	var gotQuery, gotSize string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_terms")
		gotSize = r.URL.Query().Get("page_size")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "products": [
    {"code": "111", "product_name": "Oat Flakes", "nutriments": {"energy-kcal_100g": 372, "proteins_100g": 13, "carbohydrates_100g": 59, "fat_100g": 7}},
    {"code": "222", "product_name": "", "nutriments": {}},
    {"_id": "333", "product_name": "Oat Drink", "nutriments": {"energy-kcal_100g": 46}}
  ]
}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, nil)
	items, err := c.SearchFoods(context.Background(), "oat", 5)
	if err != nil {
		t.Fatalf("search foods: %v", err)
	}
	if gotQuery != "oat" || gotSize != "5" {
		t.Fatalf("unexpected query params: terms=%q size=%q", gotQuery, gotSize)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 named products, got %d", len(items))
	}
	if items[0].Name != "Oat Flakes" || items[0].Calories != 372 || items[0].FatG != 7 {
		t.Fatalf("unexpected first product: %+v", items[0])
	}
	if items[1].Code != "333" {
		t.Fatalf("expected code to fall back to _id, got %q", items[1].Code)
	}
}

func TestSearchFoodsHTTPError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second, nil)
	if _, err := c.SearchFoods(context.Background(), "oat", 5); err == nil {
		t.Fatalf("expected status error")
	}
}
