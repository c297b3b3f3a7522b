package repository

import (
	"context"
	"errors"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// ProductRepo is the product master access used by the import pipeline.
type ProductRepo interface {
	// FindByPartNo returns ErrNotFound when no active or inactive product has partNo.
	FindByPartNo(ctx context.Context, partNo string) (*models.Product, error)
	// Create inserts product and sets its ID. A part number collision returns an
	// error wrapping ErrDuplicate.
	Create(ctx context.Context, product *models.Product) error
}

// PurchaseOrderRepo is the purchase order access used by the import pipeline.
type PurchaseOrderRepo interface {
	ExistsByPONumber(ctx context.Context, poNumber string) (bool, error)
	Create(ctx context.Context, po *models.PurchaseOrder) error
}

// StockLocationRepo resolves the fallback placement for imported products.
type StockLocationRepo interface {
	// EnsureDefault returns the default location/room/rack, creating any that
	// are missing. Calling it repeatedly returns the same identifiers.
	EnsureDefault(ctx context.Context, createdBy string) (*models.Placement, error)
}

// ImportRunRepo keeps the audit trail of committed imports.
type ImportRunRepo interface {
	Record(ctx context.Context, run *models.ImportRun) error
	Get(ctx context.Context, runID string) (*models.ImportRun, error)
}
