package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/search"
)

type SearchService struct {
	parser     search.Parser
	eventsRepo models.EventRepo
	describer  Describer
	logger     *slog.Logger
}

func NewSearchService(parser search.Parser, eventsRepo models.EventRepo, describer Describer, logger *slog.Logger) *SearchService {
	return &SearchService{
		parser:     parser,
		eventsRepo: eventsRepo,
		describer:  describer,
		logger:     logger,
	}
}

type SearchResult struct {
	Events     []*models.Event
	Filters    search.Filters
	Pagination models.Pagination
}

// FiltersToQuery maps parsed filters onto the public catalogue.
func FiltersToQuery(f search.Filters) models.EventQuery {
	q := models.EventQuery{
		Status:     models.EventStatusPublished,
		PublicOnly: true,
		DateFrom:   f.DateFrom,
		DateTo:     f.DateTo,
		PriceMin:   f.PriceMin,
		PriceMax:   f.PriceMax,
		Keywords:   f.Keywords,
	}
	if f.Category != nil {
		q.CategoryLike = *f.Category
	}
	if f.Location != nil {
		q.LocationLike = *f.Location
	}
	return q
}

func (ss *SearchService) Search(ctx context.Context, q string, page, limit int) (*SearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, &ValidationError{Message: "Search query is required"}
	}
	page, limit = NormalizePage(page, limit)

	filters, err := ss.parser.Parse(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error parsing query: %w", err)
	}

	events, total, err := ss.eventsRepo.ListEvents(ctx, FiltersToQuery(filters), page, limit)
	if err != nil {
		return nil, fmt.Errorf("error searching events: %w", err)
	}

	ss.logger.Debug("Search", "query", q, "results", total)
	return &SearchResult{
		Events:     events,
		Filters:    filters,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

type DescribeInput struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Location string `json:"location"`
}

func (ss *SearchService) Describe(ctx context.Context, in DescribeInput) (string, error) {
	if verr := missingFields([2]string{"title", in.Title}); verr != nil {
		return "", verr
	}
	return ss.describer.GenerateDescription(ctx, in.Title, in.Category, in.Location), nil
}
