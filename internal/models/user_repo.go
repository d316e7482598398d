package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) upsertUser(ctx context.Context, wallet string, update bson.M) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = now
	update["$set"] = set

	onInsert := bson.M{
		"walletAddress": wallet,
		"totalSpent":    0,
		"createdAt":     now,
	}
	// $setOnInsert must not touch the arrays another operator in this update writes to
	push, _ := update["$push"].(bson.M)
	for _, field := range []string{"createdEvents", "tickets"} {
		if _, ok := push[field]; !ok {
			onInsert[field] = bson.A{}
		}
	}
	if inc, ok := update["$inc"].(bson.M); ok {
		if _, ok := inc["totalSpent"]; ok {
			delete(onInsert, "totalSpent")
		}
	}
	update["$setOnInsert"] = onInsert

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user User
	err = col.FindOneAndUpdate(ctx, bson.M{"walletAddress": wallet}, update, opts).Decode(&user)
	if err != nil {
		return nil, fmt.Errorf("error upserting user: %w", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) UpsertUser(ctx context.Context, wallet string) (*User, error) {
	return mdb.upsertUser(ctx, wallet, bson.M{})
}

func (mdb *MongodbRepo) AddCreatedEvent(ctx context.Context, wallet string, eventID primitive.ObjectID) (*User, error) {
	return mdb.upsertUser(ctx, wallet, bson.M{
		"$push": bson.M{"createdEvents": eventID},
	})
}

func (mdb *MongodbRepo) AddTicket(ctx context.Context, wallet string, ticket Ticket, spent float64) (*User, error) {
	return mdb.upsertUser(ctx, wallet, bson.M{
		"$push": bson.M{"tickets": ticket},
		"$inc":  bson.M{"totalSpent": spent},
	})
}
