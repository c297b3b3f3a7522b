package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes the import pipeline relies on:
// po_number keeps committed PO numbers distinct and part_no turns concurrent
// creation of the same product into a duplicate-key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"purchase_orders": {
			{Keys: bson.D{{Key: "po_number", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_po_number")},
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("created_at_desc")},
		},
		"products": {
			{Keys: bson.D{{Key: "part_no", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_part_no")},
		},
		"stock_locations": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name")},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
