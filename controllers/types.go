package controllers

import (
	"context"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
)

// DefaultContextTimeout bounds a synchronous import
const DefaultContextTimeout = 5 * time.Minute

// PurchaseImportAPI is implemented by *services.PurchaseImportService
type PurchaseImportAPI interface {
	PreviewFile(ctx context.Context, data []byte, filename string) (*models.ImportPreview, error)
	ImportFile(ctx context.Context, data []byte, filename, createdBy string) (*models.ImportOutcome, error)
	GetRun(ctx context.Context, runID string) (*models.ImportRun, error)
}

// ImportJobAPI is implemented by *services.ImportJobs
type ImportJobAPI interface {
	Submit(ctx context.Context, data []byte, filename, createdBy string) (*models.ImportJob, error)
	Status(ctx context.Context, id string) (*models.ImportJob, error)
}
