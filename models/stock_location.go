package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Names of the fallback placement used for products created by an import
const (
	DefaultLocationName = "Default Location"
	DefaultRoomName     = "Default Room"
	DefaultRackName     = "Default Rack"
)

// StockLocation is a warehouse or site holding stock
type StockLocation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Type      string             `bson:"type" json:"type"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedBy string             `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Room belongs to a StockLocation
type Room struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	LocationID primitive.ObjectID `bson:"location" json:"location"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Rack belongs to a Room
type Rack struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	LocationID primitive.ObjectID `bson:"location" json:"location"`
	RoomID     primitive.ObjectID `bson:"room" json:"room"`
	IsActive   bool               `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Placement identifies where a newly created product is stored
type Placement struct {
	LocationID primitive.ObjectID `json:"location"`
	RoomID     primitive.ObjectID `json:"room"`
	RackID     primitive.ObjectID `json:"rack"`
}
