package aws

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client creates a new S3 client from AWS config.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

// S3Archiver stores uploaded import files under <prefix>/<yyyy>/<mm>/<runID>/<file>.
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3Archiver(client *s3.Client, bucket, prefix string) *S3Archiver {
	if prefix == "" {
		prefix = "purchase-imports"
	}
	return &S3Archiver{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// ArchiveKey returns the object key used for a run's upload.
func (a *S3Archiver) ArchiveKey(runID, filename string, at time.Time) string {
	return path.Join(a.prefix, at.UTC().Format("2006/01"), runID, path.Base(filename))
}

// Archive uploads data and returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, runID, filename string, data []byte) (string, error) {
	key := a.ArchiveKey(runID, filename, time.Now())
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: sdkaws.String(a.bucket),
		Key:    sdkaws.String(key),
		Body:   bytes.NewReader(data),
		Metadata: map[string]string{
			"run-id": runID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s to s3://%s/%s: %w", filename, a.bucket, key, err)
	}
	return key, nil
}
