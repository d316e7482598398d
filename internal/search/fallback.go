package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/joshua-takyi/eventnest/internal/monitoring"
)

// FallbackParser tries Primary and answers from Fallback on any failure.
type FallbackParser struct {
	Primary  Parser
	Fallback Parser
	Logger   *slog.Logger
}

func NewFallbackParser(primary, fallback Parser, logger *slog.Logger) *FallbackParser {
	return &FallbackParser{Primary: primary, Fallback: fallback, Logger: logger}
}

func (p *FallbackParser) Parse(ctx context.Context, query string) (Filters, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Filters{}, nil
	}

	if p.Primary != nil {
		f, err := p.Primary.Parse(ctx, query)
		if err == nil {
			monitoring.RecordSearchParse("llm")
			return f, nil
		}
		if !errors.Is(err, external.ErrNoAPIKey) && p.Logger != nil {
			p.Logger.Warn("Query parser failed, using heuristic", "error", err)
		}
	}

	monitoring.RecordSearchParse("heuristic")
	return p.Fallback.Parse(ctx, query)
}
