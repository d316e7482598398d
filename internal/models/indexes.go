package models

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes for events, users and purchases
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		EventsColName: {
			{
				Keys: bson.D{
					{Key: "title", Value: "text"},
					{Key: "description", Value: "text"},
					{Key: "location", Value: "text"},
					{Key: "category", Value: "text"},
				},
				Options: options.Index().SetName("event_text_idx"),
			},
			{
				Keys:    bson.D{{Key: "creatorAddress", Value: 1}},
				Options: options.Index().SetName("creator_idx"),
			},
			// listing filter + sort
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "isPrivate", Value: 1},
					{Key: "date", Value: 1},
				},
				Options: options.Index().SetName("status_private_date_idx"),
			},
			{
				Keys:    bson.D{{Key: "date", Value: 1}},
				Options: options.Index().SetName("date_idx"),
			},
		},
		UsersColName: {
			{
				Keys: bson.D{{Key: "walletAddress", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("wallet_unique"),
			},
		},
		PurchasesColName: {
			{
				Keys:    bson.D{{Key: "state", Value: 1}, {Key: "updatedAt", Value: 1}},
				Options: options.Index().SetName("state_updated_idx"),
			},
			{
				Keys: bson.D{{Key: "shiftId", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetSparse(true).
					SetName("shift_unique"),
			},
		},
	}

	for colName, idx := range indexes {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return fmt.Errorf("error getting collection: %w", err)
		}
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("error creating %s indexes: %w", colName, err)
		}
	}
	return nil
}
