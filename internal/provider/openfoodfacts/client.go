package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://world.openfoodfacts.org"
	defaultTimeout = 12 * time.Second
	userAgent      = "macroplan/1.0 (+https://github.com/saadjs/macroplan)"
)

// Product holds nutrition values per 100 g, which is the unit the food
// catalog stores.
type Product struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

type Client struct {
	baseURL    string
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &Client{baseURL: base, httpClient: client, logger: logger}
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, fmt.Errorf("barcode is required")
	}
	var parsed offResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("code", barcode).
		SetResult(&parsed).
		Get("/api/v2/product/{code}.json")
	if err != nil {
		return Product{}, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	if resp.IsError() {
		return Product{}, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode())
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	if parsed.Product.Code == "" {
		parsed.Product.Code = barcode
	}
	return toProduct(parsed.Product), nil
}

// SearchFoods runs a full-text product search. Products without a name are
// skipped.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	var parsed offSearchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
			"page_size":     strconv.Itoa(limit),
		}).
		SetResult(&parsed).
		Get("/cgi/search.pl")
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openfoodfacts search request failed with status %d", resp.StatusCode())
	}
	out := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, toProduct(p))
	}
	c.logger.Debug("openfoodfacts search",
		zap.String("query", query),
		zap.Int("returned", len(parsed.Products)),
		zap.Int("usable", len(out)))
	if len(out) == 0 {
		return nil, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, nil
}

func toProduct(p offProduct) Product {
	code := strings.TrimSpace(p.Code)
	if code == "" {
		code = strings.TrimSpace(p.ID)
	}
	return Product{
		Code:     code,
		Name:     strings.TrimSpace(p.ProductName),
		Brand:    strings.TrimSpace(p.Brands),
		Calories: nutrientPer100g(p.Nutriments, "energy-kcal"),
		ProteinG: nutrientPer100g(p.Nutriments, "proteins"),
		CarbsG:   nutrientPer100g(p.Nutriments, "carbohydrates"),
		FatG:     nutrientPer100g(p.Nutriments, "fat"),
	}
}

// nutrientPer100g prefers the _100g value and falls back to the bare key,
// which the API fills with the per-100 g figure for most products.
func nutrientPer100g(n map[string]any, base string) float64 {
	for _, key := range []string{base + "_100g", base} {
		if v, ok := parseFloatAny(n[key]); ok {
			return v
		}
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ID          string         `json:"_id"`
	Code        string         `json:"code"`
	ProductName string         `json:"product_name"`
	Brands      string         `json:"brands"`
	Nutriments  map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
