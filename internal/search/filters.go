package search

import (
	"context"
	"time"
)

// Filters is the single normalized shape produced by every parser.
// A nil field means the query did not determine it.
type Filters struct {
	Category *string    `json:"category,omitempty"`
	Location *string    `json:"location,omitempty"`
	DateFrom *time.Time `json:"dateFrom,omitempty"`
	DateTo   *time.Time `json:"dateTo,omitempty"`
	PriceMin *float64   `json:"priceMin,omitempty"`
	PriceMax *float64   `json:"priceMax,omitempty"`
	Keywords []string   `json:"keywords,omitempty"`
}

type Parser interface {
	Parse(ctx context.Context, query string) (Filters, error)
}

func ptr[T any](v T) *T { return &v }

// Normalize drops empty values and orders the date range.
func (f Filters) Normalize() Filters {
	if f.Category != nil && *f.Category == "" {
		f.Category = nil
	}
	if f.Location != nil && *f.Location == "" {
		f.Location = nil
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		f.DateFrom, f.DateTo = f.DateTo, f.DateFrom
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMax < *f.PriceMin {
		f.PriceMin, f.PriceMax = f.PriceMax, f.PriceMin
	}
	if len(f.Keywords) == 0 {
		f.Keywords = nil
	}
	return f
}
