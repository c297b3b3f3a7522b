package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/apperrors"
)

// DefaultMaxUploadSize applies when no limit is configured
const DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB

var allowedImportExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
}

// UploadValidator checks the multipart "file" field of an import request
type UploadValidator struct {
	maxSize int64
}

func NewUploadValidator(maxSize int64) *UploadValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadValidator{maxSize: maxSize}
}

// IsAllowedImportFile reports whether the extension is one we accept
func (v *UploadValidator) IsAllowedImportFile(file *multipart.FileHeader) bool {
	return allowedImportExtensions[strings.ToLower(filepath.Ext(file.Filename))]
}

func (v *UploadValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > v.maxSize {
		return apperrors.ErrFileTooLarge.Wrap(fmt.Errorf("max %dMB", v.maxSize/(1024*1024)))
	}
	return nil
}

// ReadUpload validates the uploaded file and returns its name and content
func (v *UploadValidator) ReadUpload(c *gin.Context) (string, []byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", nil, apperrors.ErrNoFile
	}
	if !v.IsAllowedImportFile(file) {
		return "", nil, apperrors.ErrUnsupportedFile
	}
	if err := v.ValidateFileSize(file); err != nil {
		return "", nil, err
	}

	fh, err := file.Open()
	if err != nil {
		return "", nil, apperrors.ErrInternalServer.Wrap(fmt.Errorf("open upload: %w", err))
	}
	defer fh.Close()

	data, err := io.ReadAll(io.LimitReader(fh, v.maxSize+1))
	if err != nil {
		return "", nil, apperrors.ErrInternalServer.Wrap(fmt.Errorf("read upload: %w", err))
	}
	if int64(len(data)) > v.maxSize {
		return "", nil, apperrors.ErrFileTooLarge
	}
	return filepath.Base(file.Filename), data, nil
}
