package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/provider/openfoodfacts"
)

const SourceOpenFoodFacts = "openfoodfacts"

type FoodSearcher interface {
	SearchFoods(ctx context.Context, query string, limit int) ([]openfoodfacts.Product, error)
	LookupBarcode(ctx context.Context, barcode string) (openfoodfacts.Product, error)
}

type LookupOptions struct {
	Limit int
	// Barcode switches the query to a single product lookup.
	Barcode bool
}

type SaveLookupInput struct {
	Category  string
	MealType  string
	CreatedBy *int64
}

// LookupFoods queries the remote product database. Results are per 100 g and
// products reporting no energy and no macros are dropped.
func LookupFoods(ctx context.Context, s FoodSearcher, query string, opts LookupOptions) ([]openfoodfacts.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > 50 {
		opts.Limit = 50
	}
	var items []openfoodfacts.Product
	if opts.Barcode {
		p, err := s.LookupBarcode(ctx, query)
		if err != nil {
			return nil, err
		}
		items = []openfoodfacts.Product{p}
	} else {
		var err error
		items, err = s.SearchFoods(ctx, query, opts.Limit)
		if err != nil {
			return nil, err
		}
	}
	out := make([]openfoodfacts.Product, 0, len(items))
	for _, p := range items {
		if p.Calories <= 0 && p.ProteinG <= 0 && p.CarbsG <= 0 && p.FatG <= 0 {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable product found for %q", query)
	}
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// SaveLookupResult adds the product to the food catalog, replacing a food
// with the same name.
func SaveLookupResult(db *sql.DB, p openfoodfacts.Product, in SaveLookupInput) (int64, bool, error) {
	name := strings.TrimSpace(p.Name)
	if brand := strings.TrimSpace(p.Brand); brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		name = fmt.Sprintf("%s (%s)", name, brand)
	}
	id, created, err := UpsertFoodByName(db, FoodInput{
		Name:      name,
		Calories:  p.Calories,
		ProteinG:  p.ProteinG,
		CarbsG:    p.CarbsG,
		FatG:      p.FatG,
		Category:  in.Category,
		MealType:  in.MealType,
		CreatedBy: in.CreatedBy,
		Source:    SourceOpenFoodFacts,
		SourceRef: p.Code,
	})
	if err != nil {
		return 0, false, err
	}
	logger.Info("lookup result saved", zap.Int64("food_id", id), zap.String("code", p.Code), zap.Bool("created", created))
	return id, created, nil
}
