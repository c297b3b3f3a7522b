package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryQueue struct {
	mu   sync.Mutex
	jobs map[string]models.ImportJob
	ids  chan string
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{jobs: make(map[string]models.ImportJob), ids: make(chan string, 10)}
}

func (q *memoryQueue) Save(ctx context.Context, job *models.ImportJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs[job.ID] = *job
	return nil
}

func (q *memoryQueue) Get(_ context.Context, id string) (*models.ImportJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func (q *memoryQueue) Delete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.jobs, id)
	return nil
}

func (q *memoryQueue) Push(_ context.Context, id string) error {
	q.ids <- id
	return nil
}

func (q *memoryQueue) Pop(ctx context.Context) (string, error) {
	select {
	case id := <-q.ids:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type stubImporter struct {
	got       []byte
	createdBy string
	err       error
	// cancels the worker context while the import is running
	interrupt context.CancelFunc
}

func (s *stubImporter) ImportFile(ctx context.Context, data []byte, _ string, createdBy string) (*models.ImportOutcome, error) {
	s.got = data
	s.createdBy = createdBy
	if s.interrupt != nil {
		s.interrupt()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.ImportOutcome{RunID: "run-1", UniqueOrders: 1, Successful: 1}, nil
}

func TestImportJobs_SubmitAndProcess(t *testing.T) {
	queue := newMemoryQueue()
	importer := &stubImporter{}
	jobs := NewImportJobs(queue, importer, t.TempDir(), time.Minute, nil)
	ctx := context.Background()

	job, err := jobs.Submit(ctx, []byte("ORDER NO\nPO-1\n"), "orders.csv", "user-7")
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobPending, job.Status)
	assert.FileExists(t, job.FilePath)

	id := <-queue.ids
	assert.Equal(t, job.ID, id)
	jobs.process(ctx, id)

	got, err := jobs.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobDone, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "run-1", got.Result.RunID)
	assert.Equal(t, "ORDER NO\nPO-1\n", string(importer.got))
	assert.Equal(t, "user-7", importer.createdBy)
	assert.NoFileExists(t, job.FilePath)
}

func TestImportJobs_RecordsFailure(t *testing.T) {
	queue := newMemoryQueue()
	jobs := NewImportJobs(queue, &stubImporter{err: errors.New("mongo unavailable")}, t.TempDir(), 0, nil)
	ctx := context.Background()

	job, err := jobs.Submit(ctx, []byte("x"), "orders.xlsx", "user-7")
	require.NoError(t, err)
	jobs.process(ctx, <-queue.ids)

	got, err := jobs.Status(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, got.Status)
	assert.Equal(t, "mongo unavailable", got.Error)
	_, statErr := os.Stat(job.FilePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImportJobs_RecordsFailureWhenShutDownMidImport(t *testing.T) {
	queue := newMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := NewImportJobs(queue, &stubImporter{interrupt: cancel}, t.TempDir(), time.Minute, nil)

	job, err := jobs.Submit(ctx, []byte("ORDER NO\nPO-1\n"), "orders.csv", "user-7")
	require.NoError(t, err)
	jobs.process(ctx, <-queue.ids)

	got, err := jobs.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportJobFailed, got.Status)
	assert.Equal(t, context.Canceled.Error(), got.Error)
	assert.NoFileExists(t, job.FilePath)
}

func TestImportJobs_StartStopsWithContext(t *testing.T) {
	queue := newMemoryQueue()
	importer := &stubImporter{}
	jobs := NewImportJobs(queue, importer, t.TempDir(), 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs.Start(ctx)
	job, err := jobs.Submit(ctx, []byte("ORDER NO\nPO-1\n"), "orders.csv", "user-7")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, err := jobs.Status(context.Background(), job.ID)
		return err == nil && got.Status == models.ImportJobDone
	}, 2*time.Second, 10*time.Millisecond)
}

func TestImportJobs_UnknownJob(t *testing.T) {
	jobs := NewImportJobs(newMemoryQueue(), &stubImporter{}, t.TempDir(), 0, nil)
	_, err := jobs.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
