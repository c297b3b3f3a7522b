package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductCategorySparePart is the category given to products created by an import
const ProductCategorySparePart = "spare_part"

// Product is a product master record
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	PartNo        string             `bson:"part_no" json:"part_no"` // unique
	Category      string             `bson:"category" json:"category"`
	Dept          string             `bson:"dept,omitempty" json:"dept,omitempty"`
	HSNNumber     string             `bson:"hsn_number,omitempty" json:"hsn_number,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	GST           float64            `bson:"gst" json:"gst"`
	MinStockLevel int                `bson:"min_stock_level" json:"min_stock_level"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	Location      primitive.ObjectID `bson:"location,omitempty" json:"location,omitempty"`
	Room          primitive.ObjectID `bson:"room,omitempty" json:"room,omitempty"`
	Rack          primitive.ObjectID `bson:"rack,omitempty" json:"rack,omitempty"`
	CreatedBy     string             `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
