package search

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var categories = []string{"tech", "music", "workshop", "meetup", "conference", "sports", "art", "hackathon", "concert", "festival"}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "events": true, "event": true,
	"near": true, "in": true, "at": true, "on": true,
}

// words that belong to date or price phrases and never become keywords
var phraseWords = map[string]bool{
	"today": true, "tomorrow": true, "this": true, "next": true, "week": true, "weekend": true,
	"under": true, "below": true, "less": true, "than": true, "over": true, "above": true,
	"more": true, "free": true, "cheaper": true, "least": true,
}

var (
	priceMaxRe = regexp.MustCompile(`(?:under|below|less than|cheaper than)\s*\$?(\d+(?:\.\d+)?)`)
	priceMinRe = regexp.MustCompile(`(?:over|above|more than|at least)\s*\$?(\d+(?:\.\d+)?)`)
	freeRe     = regexp.MustCompile(`\bfree\b`)
)

type datePhrase struct {
	words []string
	span  func(today time.Time) (time.Time, time.Time)
}

// checked in order; "this weekend" must win over "this week"
var datePhrases = []datePhrase{
	{[]string{"this", "weekend"}, thisWeekend},
	{[]string{"this", "week"}, thisWeek},
	{[]string{"next", "week"}, nextWeek},
	{[]string{"tomorrow"}, func(today time.Time) (time.Time, time.Time) {
		d := today.AddDate(0, 0, 1)
		return d, endOfDay(d)
	}},
	{[]string{"today"}, func(today time.Time) (time.Time, time.Time) {
		return today, endOfDay(today)
	}},
}

// HeuristicParser extracts filters locally without any remote call.
type HeuristicParser struct {
	Now func() time.Time
}

func NewHeuristicParser(now func() time.Time) *HeuristicParser {
	if now == nil {
		now = time.Now
	}
	return &HeuristicParser{Now: now}
}

type token struct {
	raw   string
	lower string
}

func tokenize(q string) []token {
	var out []token
	for _, f := range strings.Fields(q) {
		raw := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) && r != '$'
		})
		if raw == "" {
			continue
		}
		out = append(out, token{raw: raw, lower: strings.ToLower(raw)})
	}
	return out
}

func (p *HeuristicParser) Parse(_ context.Context, query string) (Filters, error) {
	var f Filters
	tokens := tokenize(query)
	used := make(map[int]bool)

	if i, cat := findCategory(tokens); i >= 0 {
		f.Category = ptr(cat)
		used[i] = true
	}

	if loc, idx := findLocation(tokens); loc != "" {
		f.Location = ptr(loc)
		for _, i := range idx {
			used[i] = true
		}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	today := startOfDay(now())
	for _, dp := range datePhrases {
		if findSequence(tokens, dp.words) >= 0 {
			from, to := dp.span(today)
			f.DateFrom, f.DateTo = &from, &to
			break
		}
	}

	lower := strings.ToLower(query)
	if m := priceMaxRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.PriceMax = ptr(v)
		}
	} else if freeRe.MatchString(lower) {
		f.PriceMax = ptr(0.0)
	}
	if m := priceMinRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			f.PriceMin = ptr(v)
		}
	}

	seen := make(map[string]bool)
	for i, t := range tokens {
		if used[i] || len(t.raw) <= 2 || stopWords[t.lower] || phraseWords[t.lower] || seen[t.lower] {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimPrefix(t.raw, "$"), 64); err == nil {
			continue
		}
		seen[t.lower] = true
		f.Keywords = append(f.Keywords, t.raw)
	}

	return f.Normalize(), nil
}

func findCategory(tokens []token) (int, string) {
	for _, cat := range categories {
		for i, t := range tokens {
			if t.lower == cat || t.lower == cat+"s" {
				return i, cat
			}
		}
	}
	return -1, ""
}

func isCategory(s string) bool {
	for _, cat := range categories {
		if s == cat || s == cat+"s" {
			return true
		}
	}
	return false
}

// findLocation takes up to three words after in/at/near.
func findLocation(tokens []token) (string, []int) {
	for i, t := range tokens {
		if t.lower != "in" && t.lower != "at" && t.lower != "near" {
			continue
		}
		var words []string
		var idx []int
		for j := i + 1; j < len(tokens) && len(words) < 3; j++ {
			n := tokens[j]
			if stopWords[n.lower] || phraseWords[n.lower] || isCategory(n.lower) {
				break
			}
			if _, err := strconv.ParseFloat(strings.TrimPrefix(n.raw, "$"), 64); err == nil {
				break
			}
			words = append(words, n.raw)
			idx = append(idx, j)
		}
		if len(words) > 0 {
			return strings.Join(words, " "), idx
		}
	}
	return "", nil
}

func findSequence(tokens []token, words []string) int {
	for i := 0; i+len(words) <= len(tokens); i++ {
		match := true
		for k, w := range words {
			if tokens[i+k].lower != w {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func thisWeekend(today time.Time) (time.Time, time.Time) {
	if today.Weekday() == time.Sunday {
		return today, endOfDay(today)
	}
	sat := today.AddDate(0, 0, int(time.Saturday-today.Weekday()))
	return sat, endOfDay(sat.AddDate(0, 0, 1))
}

// weeks run Monday to Sunday
func thisWeek(today time.Time) (time.Time, time.Time) {
	toSunday := (7 - int(today.Weekday())) % 7
	return today, endOfDay(today.AddDate(0, 0, toSunday))
}

func nextWeek(today time.Time) (time.Time, time.Time) {
	toMonday := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if toMonday == 0 {
		toMonday = 7
	}
	mon := today.AddDate(0, 0, toMonday)
	return mon, endOfDay(mon.AddDate(0, 0, 6))
}
