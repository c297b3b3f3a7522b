package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StockLocationRepository struct {
	locations *mongo.Collection
	rooms     *mongo.Collection
	racks     *mongo.Collection
}

func NewStockLocationRepository(db *mongo.Database) *StockLocationRepository {
	return &StockLocationRepository{
		locations: db.Collection("stock_locations"),
		rooms:     db.Collection("rooms"),
		racks:     db.Collection("racks"),
	}
}

// EnsureDefault upserts the default location, room and rack in that order.
// Each upsert matches on name (and parent) so repeated calls converge on the
// same documents.
func (r *StockLocationRepository) EnsureDefault(ctx context.Context, createdBy string) (*models.Placement, error) {
	now := time.Now().UTC()
	upsert := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var location models.StockLocation
	err := r.locations.FindOneAndUpdate(ctx,
		bson.M{"name": models.DefaultLocationName},
		bson.M{"$setOnInsert": bson.M{
			"address":    "Main Warehouse",
			"type":       "warehouse",
			"is_active":  true,
			"created_by": createdBy,
			"created_at": now,
		}},
		upsert,
	).Decode(&location)
	if err != nil {
		return nil, fmt.Errorf("ensure default location: %w", err)
	}

	var room models.Room
	err = r.rooms.FindOneAndUpdate(ctx,
		bson.M{"name": models.DefaultRoomName, "location": location.ID},
		bson.M{"$setOnInsert": bson.M{"is_active": true, "created_at": now}},
		upsert,
	).Decode(&room)
	if err != nil {
		return nil, fmt.Errorf("ensure default room: %w", err)
	}

	var rack models.Rack
	err = r.racks.FindOneAndUpdate(ctx,
		bson.M{"name": models.DefaultRackName, "location": location.ID, "room": room.ID},
		bson.M{"$setOnInsert": bson.M{"is_active": true, "created_at": now}},
		upsert,
	).Decode(&rack)
	if err != nil {
		return nil, fmt.Errorf("ensure default rack: %w", err)
	}

	return &models.Placement{
		LocationID: location.ID,
		RoomID:     room.ID,
		RackID:     rack.ID,
	}, nil
}
