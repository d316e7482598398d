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

func (mdb *MongodbRepo) CreatePurchase(ctx context.Context, p *Purchase) (*Purchase, error) {
	col, err := mdb.GetCollection(ctx, PurchasesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := col.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("error inserting purchase: %w", err)
	}
	return p, nil
}

func (mdb *MongodbRepo) findPurchase(ctx context.Context, filter bson.M) (*Purchase, error) {
	col, err := mdb.GetCollection(ctx, PurchasesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var p Purchase
	err = col.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding purchase: %w", err)
	}
	return &p, nil
}

func (mdb *MongodbRepo) GetPurchaseByID(ctx context.Context, id primitive.ObjectID) (*Purchase, error) {
	return mdb.findPurchase(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetPurchaseByShiftID(ctx context.Context, shiftID string) (*Purchase, error) {
	return mdb.findPurchase(ctx, bson.M{"shiftId": shiftID})
}

func (mdb *MongodbRepo) TransitionPurchase(ctx context.Context, id primitive.ObjectID, from []PurchaseState, update PurchaseUpdate) (*Purchase, error) {
	col, err := mdb.GetCollection(ctx, PurchasesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": id, "state": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p Purchase
	err = col.FindOneAndUpdate(ctx, filter, bson.M{"$set": update.SetFields(time.Now().UTC())}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := mdb.GetPurchaseByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("error updating purchase: %w", err)
	}
	return &p, nil
}

func (mdb *MongodbRepo) ListPurchasesByState(ctx context.Context, states []PurchaseState, limit int) ([]*Purchase, error) {
	col, err := mdb.GetCollection(ctx, PurchasesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, bson.M{"state": bson.M{"$in": states}}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding purchases: %w", err)
	}
	defer cursor.Close(ctx)

	purchases := []*Purchase{}
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("error decoding purchases: %w", err)
	}
	return purchases, nil
}
