package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/apperrors"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/logger"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/middleware"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/services"
	"go.uber.org/zap"
)

const templateFileName = "purchase_order_import_template.xlsx"

// PurchaseImportController serves the purchase order import endpoints
type PurchaseImportController struct {
	imports   PurchaseImportAPI
	jobs      ImportJobAPI
	validator *UploadValidator
	timeout   time.Duration
}

// NewPurchaseImportController builds the controller. jobs may be nil, in which
// case async imports are refused.
func NewPurchaseImportController(imports PurchaseImportAPI, jobs ImportJobAPI, validator *UploadValidator, timeout time.Duration) *PurchaseImportController {
	if timeout <= 0 {
		timeout = DefaultContextTimeout
	}
	return &PurchaseImportController{
		imports:   imports,
		jobs:      jobs,
		validator: validator,
		timeout:   timeout,
	}
}

// PreviewImport reports what an import of the uploaded file would create
func (pc *PurchaseImportController) PreviewImport(c *gin.Context) {
	filename, data, err := pc.validator.ReadUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	preview, err := pc.imports.PreviewFile(ctx, data, filename)
	if err != nil {
		pc.fail(c, "Purchase order import preview failed", filename, err)
		return
	}

	respondOK(c, http.StatusOK, "Import preview generated", preview)
}

// Import commits the uploaded file. With ?async=true the file is queued and
// the job is returned with 202.
func (pc *PurchaseImportController) Import(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ErrUnauthorized)
		return
	}

	filename, data, err := pc.validator.ReadUpload(c)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	if strings.ToLower(strings.TrimSpace(c.Query("async"))) == "true" {
		pc.handleAsyncImport(c, data, filename, userID)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pc.timeout)
	defer cancel()

	outcome, err := pc.imports.ImportFile(ctx, data, filename, userID)
	if err != nil {
		pc.fail(c, "Purchase order import failed", filename, err)
		return
	}

	msg := fmt.Sprintf("Import completed: %d successful, %d failed", outcome.Successful, outcome.Failed)
	respondOK(c, http.StatusOK, msg, outcome)
}

func (pc *PurchaseImportController) handleAsyncImport(c *gin.Context, data []byte, filename, userID string) {
	if pc.jobs == nil {
		apperrors.Respond(c, apperrors.ErrServiceUnavailable.Wrap(errors.New("async imports are not enabled")))
		return
	}

	job, err := pc.jobs.Submit(c.Request.Context(), data, filename, userID)
	if err != nil {
		logger.FromContext(c).Error("Failed to enqueue purchase order import", zap.Error(err))
		apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
		return
	}

	respondOK(c, http.StatusAccepted, "Import queued for processing", job)
}

// GetImportJob returns the state of an async import
func (pc *PurchaseImportController) GetImportJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		apperrors.Respond(c, apperrors.ErrBadRequest.Wrap(errors.New("job id required")))
		return
	}
	if pc.jobs == nil {
		apperrors.Respond(c, apperrors.ErrNotFound)
		return
	}

	job, err := pc.jobs.Status(c.Request.Context(), id)
	if errors.Is(err, services.ErrJobNotFound) {
		apperrors.Respond(c, apperrors.New(http.StatusNotFound, "Job not found", nil))
		return
	}
	if err != nil {
		logger.FromContext(c).Error("Failed to get import job", zap.String("job_id", id), zap.Error(err))
		apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
		return
	}

	respondOK(c, http.StatusOK, "Import job status", job)
}

// GetImportRun returns the audit record of a committed import
func (pc *PurchaseImportController) GetImportRun(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	run, err := pc.imports.GetRun(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		apperrors.Respond(c, apperrors.New(http.StatusNotFound, "Import run not found", nil))
		return
	}
	if err != nil {
		logger.FromContext(c).Error("Failed to get import run", zap.String("run_id", id), zap.Error(err))
		apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
		return
	}

	respondOK(c, http.StatusOK, "Import run", run)
}

// DownloadTemplate serves an xlsx with the expected header row
func (pc *PurchaseImportController) DownloadTemplate(c *gin.Context) {
	buf, err := services.BuildTemplate()
	if err != nil {
		logger.FromContext(c).Error("Failed to build import template", zap.Error(err))
		apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, templateFileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// fail maps service errors onto request errors. Parse failures and empty
// sheets are the caller's fault; anything else is logged and reported as 500.
func (pc *PurchaseImportController) fail(c *gin.Context, msg, filename string, err error) {
	switch {
	case errors.Is(err, services.ErrNoData):
		apperrors.Respond(c, apperrors.ErrNoData)
	case errors.Is(err, services.ErrUnreadableFile):
		logger.FromContext(c).Warn(msg, zap.String("file", filename), zap.Error(err))
		if strings.EqualFold(filepath.Ext(filename), ".xls") {
			apperrors.Respond(c, apperrors.ErrUnreadableFile.Wrap(errors.New("legacy .xls workbooks are not supported, save the file as .xlsx")))
			return
		}
		apperrors.Respond(c, apperrors.ErrUnreadableFile)
	default:
		logger.FromContext(c).Error(msg, zap.String("file", filename), zap.Error(err))
		apperrors.Respond(c, apperrors.ErrInternalServer.Wrap(err))
	}
}
