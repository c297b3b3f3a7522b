package services

import (
	"context"
	"errors"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
)

var (
	// ErrNoData is returned when a readable upload contains no data rows
	ErrNoData = errors.New("no data found in file")
	// ErrPONumberExhausted is returned when every PO number suffix up to the cap is taken
	ErrPONumberExhausted = errors.New("could not allocate unique PO number")
)

// MetricsRecorder is implemented by *aws.MetricsClient
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

// FileArchiver keeps a copy of every committed upload. Archive returns the
// location the file was stored under.
type FileArchiver interface {
	Archive(ctx context.Context, runID, filename string, data []byte) (string, error)
}

// EventPublisher is implemented by *aws.SNSClient
type EventPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

// ImportIntegrations are the optional side channels of a commit. Nil members
// are skipped.
type ImportIntegrations struct {
	Runs     repository.ImportRunRepo
	Archiver FileArchiver
	Events   EventPublisher
	TopicArn string
	Metrics  MetricsRecorder
}
