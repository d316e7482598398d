package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService struct {
	usersRepo  models.UserRepo
	eventsRepo models.EventRepo
}

func NewUserService(usersRepo models.UserRepo, eventsRepo models.EventRepo) *UserService {
	return &UserService{
		usersRepo:  usersRepo,
		eventsRepo: eventsRepo,
	}
}

type TicketWithEvent struct {
	models.Ticket
	Event *models.EventView `json:"event,omitempty"`
}

type UserProfile struct {
	*models.User
	CreatedEvents     []models.EventView `json:"createdEvents"`
	TicketsWithEvents []TicketWithEvent  `json:"ticketsWithEvents"`
}

type TicketSummary struct {
	TokenID       string             `json:"tokenId"`
	EventID       primitive.ObjectID `json:"eventId"`
	EventTitle    string             `json:"eventTitle"`
	EventDate     time.Time          `json:"eventDate"`
	EventLocation string             `json:"eventLocation"`
	EventImage    string             `json:"eventImage"`
	MintedAt      time.Time          `json:"mintedAt"`
	Status        string             `json:"status"`
}

func (us *UserService) load(ctx context.Context, address string) (*models.User, map[primitive.ObjectID]*models.Event, error) {
	wallet := helpers.NormalizeAddress(address)
	if wallet == "" {
		return nil, nil, &ValidationError{Message: "Address is required"}
	}

	// the first lookup creates the user
	user, err := us.usersRepo.UpsertUser(ctx, wallet)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(user.CreatedEvents)+len(user.Tickets))
	ids = append(ids, user.CreatedEvents...)
	for _, t := range user.Tickets {
		ids = append(ids, t.EventID)
	}
	events, err := us.eventsRepo.GetEventsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading user events: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	return user, byID, nil
}

// GetProfile returns the user with created events and tickets resolved.
func (us *UserService) GetProfile(ctx context.Context, address string) (*UserProfile, error) {
	user, events, err := us.load(ctx, address)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{
		User:              user,
		CreatedEvents:     []models.EventView{},
		TicketsWithEvents: []TicketWithEvent{},
	}
	for _, id := range user.CreatedEvents {
		if e, ok := events[id]; ok {
			profile.CreatedEvents = append(profile.CreatedEvents, e.View())
		}
	}
	for _, t := range user.Tickets {
		twe := TicketWithEvent{Ticket: t}
		if e, ok := events[t.EventID]; ok {
			v := e.View()
			twe.Event = &v
		}
		profile.TicketsWithEvents = append(profile.TicketsWithEvents, twe)
	}
	return profile, nil
}

// GetTickets flattens the user's tickets with their event details.
func (us *UserService) GetTickets(ctx context.Context, address string) ([]TicketSummary, error) {
	user, events, err := us.load(ctx, address)
	if err != nil {
		return nil, err
	}

	tickets := make([]TicketSummary, 0, len(user.Tickets))
	for _, t := range user.Tickets {
		s := TicketSummary{
			TokenID:  t.TokenID,
			EventID:  t.EventID,
			MintedAt: t.PurchaseDate,
			Status:   t.Status,
		}
		if e, ok := events[t.EventID]; ok {
			s.EventTitle = e.Title
			s.EventDate = e.Date
			s.EventLocation = e.Location
			s.EventImage = e.ImageURL
		}
		tickets = append(tickets, s)
	}
	return tickets, nil
}
