package search

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/eventnest/internal/external"
	"github.com/tidwall/gjson"
)

const parsePrompt = `Parse this event search query and extract structured filters. Return ONLY valid JSON with these fields:
- category (string): event category like "tech", "music", "workshop", "meetup", "conference", "sports", "art"
- location (string): city or venue name
- dateFrom (string): ISO date string if date mentioned
- dateTo (string): ISO date string if date range mentioned
- priceMin (number): minimum price if mentioned
- priceMax (number): maximum price if mentioned
- keywords (array of strings): important search terms

Today is %s.
Query: %q

Return only the JSON object, no markdown or explanation.`

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// Generator is satisfied by the Gemini client.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts external.GenerateOptions) (string, error)
}

// LLMParser asks a language model for filters and coerces whatever JSON it returns.
type LLMParser struct {
	gen Generator
	now func() time.Time
}

func NewLLMParser(gen Generator, now func() time.Time) *LLMParser {
	if now == nil {
		now = time.Now
	}
	return &LLMParser{gen: gen, now: now}
}

func (p *LLMParser) Parse(ctx context.Context, query string) (Filters, error) {
	prompt := fmt.Sprintf(parsePrompt, p.now().Format("2006-01-02"), query)
	text, err := p.gen.Generate(ctx, prompt, external.GenerateOptions{Temperature: 0.1, MaxOutputTokens: 500})
	if err != nil {
		return Filters{}, err
	}
	return decodeFilters(text)
}

func decodeFilters(text string) (Filters, error) {
	obj := jsonObjectRe.FindString(text)
	if obj == "" || !gjson.Valid(obj) {
		return Filters{}, fmt.Errorf("model returned no JSON object")
	}
	res := gjson.Parse(obj)

	var f Filters
	if s := stringField(res.Get("category")); s != "" {
		f.Category = ptr(strings.ToLower(s))
	}
	if s := stringField(res.Get("location")); s != "" {
		f.Location = ptr(s)
	}
	f.DateFrom = dateField(res.Get("dateFrom"))
	f.DateTo = dateField(res.Get("dateTo"))
	f.PriceMin = numberField(res.Get("priceMin"))
	f.PriceMax = numberField(res.Get("priceMax"))

	kw := res.Get("keywords")
	switch {
	case kw.IsArray():
		for _, k := range kw.Array() {
			if s := stringField(k); s != "" {
				f.Keywords = append(f.Keywords, s)
			}
		}
	case kw.Type == gjson.String:
		f.Keywords = strings.Fields(kw.String())
	}

	return f.Normalize(), nil
}

func stringField(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.String())
}

func numberField(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		return ptr(r.Float())
	case gjson.String:
		if v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(r.String()), "$"), 64); err == nil {
			return ptr(v)
		}
	}
	return nil
}

func dateField(r gjson.Result) *time.Time {
	s := stringField(r)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
