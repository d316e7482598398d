// Package memstore is an in-process implementation of the record store
// repositories, used by tests that must not depend on a running MongoDB.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joshua-takyi/eventnest/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	mu        sync.Mutex
	events    map[primitive.ObjectID]*models.Event
	users     map[string]*models.User
	purchases map[primitive.ObjectID]*models.Purchase

	// FailAddTicket makes AddTicket return this error when set.
	FailAddTicket error
}

func New() *Store {
	return &Store{
		events:    make(map[primitive.ObjectID]*models.Event),
		users:     make(map[string]*models.User),
		purchases: make(map[primitive.ObjectID]*models.Purchase),
	}
}

func now() time.Time { return time.Now().UTC() }

func cloneEvent(e *models.Event) *models.Event {
	cp := *e
	cp.Attendees = append([]string{}, e.Attendees...)
	if e.CustomTheme != nil {
		cp.CustomTheme = models.Theme{}
		for k, v := range e.CustomTheme {
			cp.CustomTheme[k] = v
		}
	}
	return &cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.CreatedEvents = append([]primitive.ObjectID{}, u.CreatedEvents...)
	cp.Tickets = append([]models.Ticket{}, u.Tickets...)
	return &cp
}

func clonePurchase(p *models.Purchase) *models.Purchase {
	cp := *p
	return &cp
}

// events

func (s *Store) CreateEvent(_ context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.BeforeCreate(now())
	s.events[event.ID] = cloneEvent(event)
	return cloneEvent(event), nil
}

func (s *Store) GetEventByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (s *Store) GetEventsByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Event{}
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (s *Store) ListEvents(_ context.Context, query models.EventQuery, page, limit int) ([]*models.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*models.Event{}
	for _, e := range s.events {
		if query.Matches(e) {
			matched = append(matched, cloneEvent(e))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*models.Event{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) UpdateEvent(_ context.Context, id primitive.ObjectID, update *models.EventUpdate) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if update.TotalTickets != nil && *update.TotalTickets < e.SoldTickets {
		return nil, models.ErrConflict
	}
	update.Apply(e, now())
	return cloneEvent(e), nil
}

func (s *Store) DeleteEvent(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) ClaimTicket(_ context.Context, id primitive.ObjectID, wallet string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if e.IsSoldOut() {
		return nil, models.ErrSoldOut
	}
	e.SoldTickets++
	e.Attendees = append(e.Attendees, wallet)
	e.UpdatedAt = now()
	return cloneEvent(e), nil
}

func (s *Store) ReleaseTicket(_ context.Context, id primitive.ObjectID, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return models.ErrNotFound
	}
	attendees, found := models.RemoveLast(e.Attendees, wallet)
	if !found || e.SoldTickets == 0 {
		return nil
	}
	e.Attendees = attendees
	e.SoldTickets--
	return nil
}

// users

func (s *Store) user(wallet string) *models.User {
	u, ok := s.users[wallet]
	if !ok {
		u = models.NewUser(wallet, now())
		s.users[wallet] = u
	}
	return u
}

func (s *Store) UpsertUser(_ context.Context, wallet string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.user(wallet)), nil
}

func (s *Store) AddCreatedEvent(_ context.Context, wallet string, eventID primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(wallet)
	u.CreatedEvents = append(u.CreatedEvents, eventID)
	u.UpdatedAt = now()
	return cloneUser(u), nil
}

func (s *Store) AddTicket(_ context.Context, wallet string, ticket models.Ticket, spent float64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAddTicket != nil {
		return nil, s.FailAddTicket
	}
	u := s.user(wallet)
	u.Tickets = append(u.Tickets, ticket)
	u.TotalSpent += spent
	u.UpdatedAt = now()
	return cloneUser(u), nil
}

// Users returns the number of stored users.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Events returns the number of stored events.
func (s *Store) Events() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// purchases

func (s *Store) CreatePurchase(_ context.Context, p *models.Purchase) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt
	s.purchases[p.ID] = clonePurchase(p)
	return clonePurchase(p), nil
}

func (s *Store) GetPurchaseByID(_ context.Context, id primitive.ObjectID) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return clonePurchase(p), nil
}

func (s *Store) GetPurchaseByShiftID(_ context.Context, shiftID string) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.purchases {
		if p.ShiftID == shiftID {
			return clonePurchase(p), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) TransitionPurchase(_ context.Context, id primitive.ObjectID, from []models.PurchaseState, update models.PurchaseUpdate) (*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if !models.ContainsState(from, p.State) {
		return nil, models.ErrConflict
	}
	update.Apply(p, now())
	return clonePurchase(p), nil
}

func (s *Store) ListPurchasesByState(_ context.Context, states []models.PurchaseState, limit int) ([]*models.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Purchase{}
	for _, p := range s.purchases {
		if models.ContainsState(states, p.State) {
			out = append(out, clonePurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ models.EventRepo    = (*Store)(nil)
	_ models.UserRepo     = (*Store)(nil)
	_ models.PurchaseRepo = (*Store)(nil)
	_ models.EventRepo    = (*models.MongodbRepo)(nil)
	_ models.UserRepo     = (*models.MongodbRepo)(nil)
	_ models.PurchaseRepo = (*models.MongodbRepo)(nil)
)
