package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PurchaseOrderStatus is the lifecycle state of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSent      PurchaseOrderStatus = "sent"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "confirmed"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// Priority levels derived from the department code
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SourceTypeManual marks purchase orders that were not generated from a quotation
const SourceTypeManual = "manual"

// PurchaseOrder is a persisted purchase order. Validation tags are checked
// before every insert.
type PurchaseOrder struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PONumber             string              `bson:"po_number" json:"po_number" validate:"required"`
	Supplier             string              `bson:"supplier" json:"supplier" validate:"required"`
	Items                []PurchaseOrderItem `bson:"items" json:"items" validate:"required,min=1,dive"`
	TotalAmount          float64             `bson:"total_amount" json:"total_amount" validate:"gte=0"`
	Status               PurchaseOrderStatus `bson:"status" json:"status" validate:"required"`
	ExpectedDeliveryDate time.Time           `bson:"expected_delivery_date" json:"expected_delivery_date"`
	Priority             Priority            `bson:"priority" json:"priority" validate:"oneof=low medium high urgent"`
	SourceType           string              `bson:"source_type" json:"source_type"`
	Notes                string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy            string              `bson:"created_by" json:"created_by" validate:"required"`
	OrderDate            time.Time           `bson:"order_date" json:"order_date"`
	CreatedAt            time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `bson:"updated_at" json:"updated_at"`
}

// PurchaseOrderItem is a single line of a purchase order
type PurchaseOrderItem struct {
	Product     primitive.ObjectID `bson:"product" json:"product" validate:"required"`
	Quantity    float64            `bson:"quantity" json:"quantity" validate:"gt=0"`
	UnitPrice   float64            `bson:"unit_price" json:"unit_price" validate:"gte=0"`
	TotalPrice  float64            `bson:"total_price" json:"total_price" validate:"gte=0"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}
