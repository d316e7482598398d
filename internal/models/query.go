package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventQuery is the store-neutral description of an event listing.
// String matches are case-insensitive and user text is always matched literally.
type EventQuery struct {
	Search       string // substring of title, description or location
	Category     string // exact
	CategoryLike string // substring
	LocationLike string // substring
	Status       string
	Creator      string
	PublicOnly   bool
	DateFrom     *time.Time
	DateTo       *time.Time
	PriceMin     *float64
	PriceMax     *float64
	Keywords     []string // any keyword in title or description
}

// Sort is date ascending then newest created first.
var EventSort = bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: -1}}

func literal(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func (q EventQuery) Filter() bson.M {
	filter := bson.M{}
	var and []bson.M

	if q.Search != "" {
		re := literal(q.Search)
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"location": re},
		}})
	}
	if q.Category != "" {
		filter["category"] = q.Category
	} else if q.CategoryLike != "" {
		filter["category"] = literal(q.CategoryLike)
	}
	if q.LocationLike != "" {
		filter["location"] = literal(q.LocationLike)
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.Creator != "" {
		filter["creatorAddress"] = strings.ToLower(q.Creator)
	}
	if q.PublicOnly {
		filter["isPrivate"] = false
	}
	if q.DateFrom != nil || q.DateTo != nil {
		r := bson.M{}
		if q.DateFrom != nil {
			r["$gte"] = *q.DateFrom
		}
		if q.DateTo != nil {
			r["$lte"] = *q.DateTo
		}
		filter["date"] = r
	}
	if q.PriceMin != nil || q.PriceMax != nil {
		r := bson.M{}
		if q.PriceMin != nil {
			r["$gte"] = *q.PriceMin
		}
		if q.PriceMax != nil {
			r["$lte"] = *q.PriceMax
		}
		filter["ticketPrice"] = r
	}
	if len(q.Keywords) > 0 {
		quoted := make([]string, 0, len(q.Keywords))
		for _, k := range q.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
		re := primitive.Regex{Pattern: strings.Join(quoted, "|"), Options: "i"}
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
		}})
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Matches evaluates the query against a single event the same way Filter does.
func (q EventQuery) Matches(e *Event) bool {
	if q.Search != "" && !containsFold(e.Title, q.Search) && !containsFold(e.Description, q.Search) && !containsFold(e.Location, q.Search) {
		return false
	}
	if q.Category != "" && e.Category != q.Category {
		return false
	}
	if q.Category == "" && q.CategoryLike != "" && !containsFold(e.Category, q.CategoryLike) {
		return false
	}
	if q.LocationLike != "" && !containsFold(e.Location, q.LocationLike) {
		return false
	}
	if q.Status != "" && e.Status != q.Status {
		return false
	}
	if q.Creator != "" && e.CreatorAddress != strings.ToLower(q.Creator) {
		return false
	}
	if q.PublicOnly && e.IsPrivate {
		return false
	}
	if q.DateFrom != nil && e.Date.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && e.Date.After(*q.DateTo) {
		return false
	}
	if q.PriceMin != nil && e.TicketPrice < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && e.TicketPrice > *q.PriceMax {
		return false
	}
	if len(q.Keywords) > 0 {
		hit := false
		for _, k := range q.Keywords {
			if containsFold(e.Title, k) || containsFold(e.Description, k) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}
