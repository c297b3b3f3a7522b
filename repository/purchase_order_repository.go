package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PurchaseOrderRepository struct {
	collection *mongo.Collection
}

func NewPurchaseOrderRepository(db *mongo.Database) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		collection: db.Collection("purchase_orders"),
	}
}

// ExistsByPONumber probes for a purchase order with the exact poNumber
func (r *PurchaseOrderRepository) ExistsByPONumber(ctx context.Context, poNumber string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"po_number": poNumber}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count purchase orders %q: %w", poNumber, err)
	}
	return count > 0, nil
}

// Create inserts po. Errors from the driver are returned wrapped but intact so
// callers can inspect write and duplicate-key details.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	now := time.Now().UTC()
	po.CreatedAt = now
	po.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, po)
	if err != nil {
		return fmt.Errorf("insert purchase order %q: %w", po.PONumber, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		po.ID = oid
	}
	return nil
}
