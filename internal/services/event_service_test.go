package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/models/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventMissingFields(t *testing.T) {
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	_, err := svc.CreateEvent(context.Background(), &models.Event{Title: "Only a title"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"description", "date", "location", "category", "creatorAddress"}, verr.Fields)
	assert.Equal(t, 0, store.Events())
	assert.Equal(t, 0, store.Users())
}

func TestCreateEventDefaults(t *testing.T) {
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	in := newEvent(0, 10)
	in.CreatorAddress = "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"
	in.Status = ""
	in.Category = " Tech "

	created, err := svc.CreateEvent(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", created.CreatorAddress)
	assert.Equal(t, models.DefaultTotalTickets, created.TotalTickets)
	assert.Equal(t, 0, created.SoldTickets)
	assert.Equal(t, models.EventStatusDraft, created.Status)
	assert.Equal(t, "tech", created.Category)
	assert.Equal(t, models.DefaultPrimaryColor, created.CustomTheme["primaryColor"])
	assert.Equal(t, 100, created.View().AvailableTickets)

	user, err := store.UpsertUser(context.Background(), created.CreatorAddress)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.CreatedEvents[0])
}

func TestCreateEventInvalidValues(t *testing.T) {
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	in := newEvent(10, -1)
	_, err := svc.CreateEvent(context.Background(), in)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, 0, store.Events())
}

func TestListEventsPublicCatalogue(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	seedEvent(t, store, 10, 5)
	private := newEvent(10, 5)
	private.IsPrivate = true
	_, err := store.CreateEvent(ctx, private)
	require.NoError(t, err)
	draft := newEvent(10, 5)
	draft.Status = models.EventStatusDraft
	_, err = store.CreateEvent(ctx, draft)
	require.NoError(t, err)

	events, page, err := svc.ListEvents(ctx, EventListParams{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, models.Pagination{Page: 1, Limit: DefaultPageSize, Total: 1, Pages: 1}, page)

	events, _, err = svc.ListEvents(ctx, EventListParams{Creator: "0x1234567890ABCDEF1234567890ABCDEF12345678"})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	done := newEvent(10, 5)
	done.Status = models.EventStatusCompleted
	_, err = store.CreateEvent(ctx, done)
	require.NoError(t, err)
	hidden := newEvent(10, 5)
	hidden.Status = models.EventStatusCompleted
	hidden.IsPrivate = true
	_, err = store.CreateEvent(ctx, hidden)
	require.NoError(t, err)

	events, _, err = svc.ListEvents(ctx, EventListParams{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatusCompleted, events[0].Status)
	assert.False(t, events[0].IsPrivate)
}

func TestGetEventErrors(t *testing.T) {
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	_, err := svc.GetEvent(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, models.ErrInvalidID)

	_, err = svc.GetEvent(context.Background(), "65f000000000000000000000")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateEventCannotDropBelowSold(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())
	e := seedEvent(t, store, 5, 1)

	_, err := store.ClaimTicket(ctx, e.ID, buyer)
	require.NoError(t, err)
	_, err = store.ClaimTicket(ctx, e.ID, buyer)
	require.NoError(t, err)

	one := 1
	_, err = svc.UpdateEvent(ctx, e.ID.Hex(), &models.EventUpdate{TotalTickets: &one})
	assert.ErrorIs(t, err, models.ErrConflict)

	two := 2
	title := "Renamed"
	updated, err := svc.UpdateEvent(ctx, e.ID.Hex(), &models.EventUpdate{TotalTickets: &two, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 0, updated.View().AvailableTickets)
	assert.True(t, updated.IsSoldOut())
}

func TestVerifyPin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())

	public := seedEvent(t, store, 5, 1)
	ok, err := svc.VerifyPin(ctx, public.ID.Hex(), "anything")
	require.NoError(t, err)
	assert.True(t, ok)

	in := newEvent(5, 1)
	in.IsPrivate = true
	in.PrivatePin = "Secret1"
	private, err := store.CreateEvent(ctx, in)
	require.NoError(t, err)

	ok, err = svc.VerifyPin(ctx, private.ID.Hex(), "Secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPin(ctx, private.ID.Hex(), "secret1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, private.View().PrivatePin)
}

func TestDeleteEvent(t *testing.T) {
	store := memstore.New()
	svc := NewEventService(store, store, testLogger())
	e := seedEvent(t, store, 5, 1)

	require.NoError(t, svc.DeleteEvent(context.Background(), e.ID.Hex()))
	assert.ErrorIs(t, svc.DeleteEvent(context.Background(), e.ID.Hex()), models.ErrNotFound)
}
