package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"

	DefaultTotalTickets    = 100
	DefaultPrimaryColor    = "#F97316"
	DefaultBackgroundColor = "#FFFBF7"
)

// Theme holds free-form colour settings; primaryColor and backgroundColor are always present.
type Theme map[string]string

type Event struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title           string             `bson:"title" json:"title" validate:"required"`
	Description     string             `bson:"description" json:"description" validate:"required"`
	Date            time.Time          `bson:"date" json:"date"`
	Location        string             `bson:"location" json:"location" validate:"required"`
	Category        string             `bson:"category" json:"category" validate:"required"`
	ImageURL        string             `bson:"imageUrl" json:"imageUrl"`
	ImageCID        string             `bson:"imageCID" json:"imageCID"`
	TicketPrice     float64            `bson:"ticketPrice" json:"ticketPrice" validate:"gte=0"`
	TotalTickets    int                `bson:"totalTickets" json:"totalTickets" validate:"gte=1"`
	SoldTickets     int                `bson:"soldTickets" json:"soldTickets"`
	IsPrivate       bool               `bson:"isPrivate" json:"isPrivate"`
	PrivatePin      string             `bson:"privatePin,omitempty" json:"privatePin,omitempty"`
	CreatorAddress  string             `bson:"creatorAddress" json:"creatorAddress" validate:"required"`
	Status          string             `bson:"status" json:"status" validate:"oneof=draft published cancelled completed"`
	CustomTheme     Theme              `bson:"customTheme" json:"customTheme"`
	Attendees       []string           `bson:"attendees" json:"attendees"`
	ContractAddress string             `bson:"contractAddress,omitempty" json:"contractAddress,omitempty"`
	MetadataCID     string             `bson:"metadataCID,omitempty" json:"metadataCID,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EventView is the public shape of an event.
type EventView struct {
	Event
	Creator          string `json:"creator"`
	AvailableTickets int    `json:"availableTickets"`
}

// EventUpdate lists the fields a caller may change; nil means untouched.
type EventUpdate struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
	Location        *string    `json:"location"`
	Category        *string    `json:"category"`
	ImageURL        *string    `json:"imageUrl"`
	ImageCID        *string    `json:"imageCID"`
	TicketPrice     *float64   `json:"ticketPrice" validate:"omitempty,gte=0"`
	TotalTickets    *int       `json:"totalTickets" validate:"omitempty,gte=1"`
	IsPrivate       *bool      `json:"isPrivate"`
	PrivatePin      *string    `json:"privatePin"`
	Status          *string    `json:"status" validate:"omitempty,oneof=draft published cancelled completed"`
	CustomTheme     Theme      `json:"customTheme"`
	ContractAddress *string    `json:"contractAddress"`
	MetadataCID     *string    `json:"metadataCID"`
}

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	GetEventsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Event, error)
	ListEvents(ctx context.Context, query EventQuery, page, limit int) ([]*Event, int64, error)
	UpdateEvent(ctx context.Context, id primitive.ObjectID, update *EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	// ClaimTicket increments soldTickets only while it is below totalTickets.
	ClaimTicket(ctx context.Context, id primitive.ObjectID, wallet string) (*Event, error)
	ReleaseTicket(ctx context.Context, id primitive.ObjectID, wallet string) error
}

func (e *Event) BeforeCreate(now time.Time) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.TotalTickets == 0 {
		e.TotalTickets = DefaultTotalTickets
	}
	if e.Status == "" {
		e.Status = EventStatusDraft
	}
	e.CustomTheme = e.CustomTheme.withDefaults()
	if e.Attendees == nil {
		e.Attendees = []string{}
	}
	e.SoldTickets = 0
	e.CreatedAt = now
	e.UpdatedAt = now
}

func (t Theme) withDefaults() Theme {
	out := Theme{
		"primaryColor":    DefaultPrimaryColor,
		"backgroundColor": DefaultBackgroundColor,
	}
	for k, v := range t {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (e *Event) AvailableTickets() int {
	return e.TotalTickets - e.SoldTickets
}

func (e *Event) IsSoldOut() bool {
	return e.SoldTickets >= e.TotalTickets
}

// View strips the private PIN and adds derived fields.
func (e *Event) View() EventView {
	cp := *e
	cp.PrivatePin = ""
	return EventView{
		Event:            cp,
		Creator:          e.CreatorAddress,
		AvailableTickets: e.AvailableTickets(),
	}
}

func EventViews(events []*Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, e.View())
	}
	return views
}

// SetFields renders the update as a $set document.
func (u *EventUpdate) SetFields(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Date != nil {
		set["date"] = *u.Date
	}
	if u.Location != nil {
		set["location"] = *u.Location
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.ImageURL != nil {
		set["imageUrl"] = *u.ImageURL
	}
	if u.ImageCID != nil {
		set["imageCID"] = *u.ImageCID
	}
	if u.TicketPrice != nil {
		set["ticketPrice"] = *u.TicketPrice
	}
	if u.TotalTickets != nil {
		set["totalTickets"] = *u.TotalTickets
	}
	if u.IsPrivate != nil {
		set["isPrivate"] = *u.IsPrivate
	}
	if u.PrivatePin != nil {
		set["privatePin"] = *u.PrivatePin
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if u.CustomTheme != nil {
		set["customTheme"] = u.CustomTheme.withDefaults()
	}
	if u.ContractAddress != nil {
		set["contractAddress"] = *u.ContractAddress
	}
	if u.MetadataCID != nil {
		set["metadataCID"] = *u.MetadataCID
	}
	return set
}

// Apply mutates e in place with the same semantics as SetFields.
func (u *EventUpdate) Apply(e *Event, now time.Time) {
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.ImageURL != nil {
		e.ImageURL = *u.ImageURL
	}
	if u.ImageCID != nil {
		e.ImageCID = *u.ImageCID
	}
	if u.TicketPrice != nil {
		e.TicketPrice = *u.TicketPrice
	}
	if u.TotalTickets != nil {
		e.TotalTickets = *u.TotalTickets
	}
	if u.IsPrivate != nil {
		e.IsPrivate = *u.IsPrivate
	}
	if u.PrivatePin != nil {
		e.PrivatePin = *u.PrivatePin
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.CustomTheme != nil {
		e.CustomTheme = u.CustomTheme.withDefaults()
	}
	if u.ContractAddress != nil {
		e.ContractAddress = *u.ContractAddress
	}
	if u.MetadataCID != nil {
		e.MetadataCID = *u.MetadataCID
	}
	e.UpdatedAt = now
}
