package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type EventService struct {
	eventsRepo models.EventRepo
	usersRepo  models.UserRepo
	logger     *slog.Logger
}

func NewEventService(eventsRepo models.EventRepo, usersRepo models.UserRepo, logger *slog.Logger) *EventService {
	return &EventService{
		eventsRepo: eventsRepo,
		usersRepo:  usersRepo,
		logger:     logger,
	}
}

type EventListParams struct {
	Search   string
	Category string
	Status   string
	Creator  string
	Page     int
	Limit    int
}

// ParseObjectID maps a malformed hex id to models.ErrInvalidID.
func ParseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return oid, nil
}

// NormalizePage clamps page and limit to sane values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", lowerFirst(fe.Field()), fe.Tag()))
	}
	return &ValidationError{Fields: fields, Message: "Invalid fields"}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func (es *EventService) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event == nil {
		return nil, &ValidationError{Message: "event is required"}
	}
	date := ""
	if !event.Date.IsZero() {
		date = "set"
	}
	if verr := missingFields(
		[2]string{"title", event.Title},
		[2]string{"description", event.Description},
		[2]string{"date", date},
		[2]string{"location", event.Location},
		[2]string{"category", event.Category},
		[2]string{"creatorAddress", event.CreatorAddress},
	); verr != nil {
		return nil, verr
	}

	event.CreatorAddress = helpers.NormalizeAddress(event.CreatorAddress)
	event.Category = strings.ToLower(strings.TrimSpace(event.Category))
	if event.TotalTickets == 0 {
		event.TotalTickets = models.DefaultTotalTickets
	}
	if event.Status == "" {
		event.Status = models.EventStatusDraft
	}
	if err := models.Validate.Struct(event); err != nil {
		return nil, validationError(err)
	}

	created, err := es.eventsRepo.CreateEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("error creating event: %w", err)
	}

	if _, err := es.usersRepo.AddCreatedEvent(ctx, created.CreatorAddress, created.ID); err != nil {
		if delErr := es.eventsRepo.DeleteEvent(ctx, created.ID); delErr != nil {
			es.logger.Error("Failed to roll back event", "event_id", created.ID.Hex(), "error", delErr)
		}
		return nil, fmt.Errorf("error recording creator: %w", err)
	}

	es.logger.Info("Event created", "event_id", created.ID.Hex(), "creator", created.CreatorAddress)
	return created, nil
}

func (es *EventService) ListEvents(ctx context.Context, params EventListParams) ([]*models.Event, models.Pagination, error) {
	page, limit := NormalizePage(params.Page, params.Limit)

	query := models.EventQuery{
		Search:   strings.TrimSpace(params.Search),
		Category: strings.ToLower(strings.TrimSpace(params.Category)),
		Status:   strings.ToLower(strings.TrimSpace(params.Status)),
		Creator:  helpers.NormalizeAddress(params.Creator),
	}
	// without a creator only the public catalogue is listed
	if query.Creator == "" {
		query.PublicOnly = true
		if query.Status == "" {
			query.Status = models.EventStatusPublished
		}
	}

	events, total, err := es.eventsRepo.ListEvents(ctx, query, page, limit)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("error listing events: %w", err)
	}
	return events, models.NewPagination(page, limit, total), nil
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	return es.eventsRepo.GetEventByID(ctx, oid)
}

func (es *EventService) UpdateEvent(ctx context.Context, id string, update *models.EventUpdate) (*models.Event, error) {
	oid, err := ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	if update == nil {
		return nil, &ValidationError{Message: "no fields to update"}
	}
	if err := models.Validate.Struct(update); err != nil {
		return nil, validationError(err)
	}
	if update.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*update.Category))
		update.Category = &c
	}

	updated, err := es.eventsRepo.UpdateEvent(ctx, oid, update)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, id string) error {
	oid, err := ParseObjectID(id)
	if err != nil {
		return err
	}
	if err := es.eventsRepo.DeleteEvent(ctx, oid); err != nil {
		return err
	}
	es.logger.Info("Event deleted", "event_id", id)
	return nil
}

// VerifyPin accepts any pin for public events and an exact match for private ones.
func (es *EventService) VerifyPin(ctx context.Context, id, pin string) (bool, error) {
	event, err := es.GetEvent(ctx, id)
	if err != nil {
		return false, err
	}
	if !event.IsPrivate {
		return true, nil
	}
	return event.PrivatePin == pin, nil
}
