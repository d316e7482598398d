package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const releaseAttempts = 3

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	event.BeforeCreate(time.Now().UTC())
	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("error inserting event: %w", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var event Event
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) GetEventsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Event, error) {
	if len(ids) == 0 {
		return []*Event{}, nil
	}
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events: %w", err)
	}
	return events, nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, query EventQuery, page, limit int) ([]*Event, int64, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, 0, fmt.Errorf("error getting collection: %w", err)
	}

	filter := query.Filter()
	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	opts := options.Find().
		SetSort(EventSort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	for cursor.Next(ctx) {
		var e Event
		if err := cursor.Decode(&e); err != nil {
			return nil, 0, fmt.Errorf("error decoding event: %w", err)
		}
		events = append(events, &e)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("cursor error: %w", err)
	}

	return events, total, nil
}

func (mdb *MongodbRepo) UpdateEvent(ctx context.Context, id primitive.ObjectID, update *EventUpdate) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": id}
	if update.TotalTickets != nil {
		// capacity may never drop below tickets already sold
		filter["soldTickets"] = bson.M{"$lte": *update.TotalTickets}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var event Event
	err = col.FindOneAndUpdate(ctx, filter, bson.M{"$set": update.SetFields(time.Now().UTC())}, opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if update.TotalTickets == nil {
			return nil, ErrNotFound
		}
		if _, getErr := mdb.GetEventByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("totalTickets below tickets sold: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("error updating event: %w", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (mdb *MongodbRepo) ClaimTicket(ctx context.Context, id primitive.ObjectID, wallet string) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event Event
	err = col.FindOneAndUpdate(ctx, ClaimFilter(id), ClaimUpdate(wallet, time.Now().UTC()), opts).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := mdb.GetEventByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrSoldOut
	}
	if err != nil {
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}
	return &event, nil
}

// ReleaseTicket undoes one ClaimTicket for wallet using a compare-and-swap on soldTickets.
func (mdb *MongodbRepo) ReleaseTicket(ctx context.Context, id primitive.ObjectID, wallet string) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	for attempt := 0; attempt < releaseAttempts; attempt++ {
		event, err := mdb.GetEventByID(ctx, id)
		if err != nil {
			return err
		}
		attendees, ok := RemoveLast(event.Attendees, wallet)
		if !ok || event.SoldTickets == 0 {
			return nil
		}

		filter, update := ReleaseUpdate(event, attendees, time.Now().UTC())
		res, err := col.UpdateOne(ctx, filter, update)
		if err != nil {
			return fmt.Errorf("error releasing ticket: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("release ticket after %d attempts: %w", releaseAttempts, ErrConflict)
}

// ClaimFilter matches the event only while a seat is left, so the claim and
// the capacity check are one server-side operation.
func ClaimFilter(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$soldTickets", "$totalTickets"}},
	}
}

func ClaimUpdate(wallet string, now time.Time) bson.M {
	return bson.M{
		"$inc":  bson.M{"soldTickets": 1},
		"$push": bson.M{"attendees": wallet},
		"$set":  bson.M{"updatedAt": now},
	}
}

// ReleaseUpdate builds the compare-and-swap that gives one seat back: it only
// matches while soldTickets is still the value that was read.
func ReleaseUpdate(event *Event, attendees []string, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": event.ID, "soldTickets": event.SoldTickets}
	update := bson.M{"$set": bson.M{
		"soldTickets": event.SoldTickets - 1,
		"attendees":   attendees,
		"updatedAt":   now,
	}}
	return filter, update
}

// RemoveLast drops the last occurrence of v from list.
func RemoveLast(list []string, v string) ([]string, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == v {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}
