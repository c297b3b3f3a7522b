package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"go.uber.org/zap"
)

const (
	importQueueKey  = "purchase_import:queue"
	importJobPrefix = "purchase_import:job:"
	importJobTTL    = 24 * time.Hour

	// terminal job states are saved on their own deadline so a shutdown that
	// cancels the worker context still records them
	jobStateSaveTimeout = 5 * time.Second
)

// ErrJobNotFound is returned for unknown or expired job ids
var ErrJobNotFound = errors.New("import job not found")

// JobQueue stores async import jobs and hands their ids to the worker in FIFO order.
type JobQueue interface {
	Save(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
	Delete(ctx context.Context, id string) error
	Push(ctx context.Context, id string) error
	// Pop blocks until an id is available or ctx is done
	Pop(ctx context.Context) (string, error)
}

// RedisJobQueue keeps job metadata under purchase_import:job:<id> and the
// pending ids in the purchase_import:queue list.
type RedisJobQueue struct {
	rdb *redis.Client
}

func NewRedisJobQueue(rdb *redis.Client) *RedisJobQueue {
	return &RedisJobQueue{rdb: rdb}
}

func (q *RedisJobQueue) Save(ctx context.Context, job *models.ImportJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := q.rdb.Set(ctx, importJobPrefix+job.ID, b, importJobTTL).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}

func (q *RedisJobQueue) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	val, err := q.rdb.Get(ctx, importJobPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", id, err)
	}
	var job models.ImportJob
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job %s: %w", id, err)
	}
	return &job, nil
}

func (q *RedisJobQueue) Delete(ctx context.Context, id string) error {
	return q.rdb.Del(ctx, importJobPrefix+id).Err()
}

func (q *RedisJobQueue) Push(ctx context.Context, id string) error {
	if err := q.rdb.RPush(ctx, importQueueKey, id).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", id, err)
	}
	return nil
}

func (q *RedisJobQueue) Pop(ctx context.Context) (string, error) {
	// 0 blocks until an item arrives
	res, err := q.rdb.BLPop(ctx, 0, importQueueKey).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", redis.Nil
	}
	return res[1], nil
}

// FileImporter is implemented by *PurchaseImportService
type FileImporter interface {
	ImportFile(ctx context.Context, data []byte, filename, createdBy string) (*models.ImportOutcome, error)
}

// ImportJobs persists uploads to disk and runs them through a FileImporter
// in the background.
type ImportJobs struct {
	queue      JobQueue
	importer   FileImporter
	storageDir string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewImportJobs(queue JobQueue, importer FileImporter, storageDir string, timeout time.Duration, logger *zap.Logger) *ImportJobs {
	if storageDir == "" {
		storageDir = "./data/purchase_imports"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportJobs{
		queue:      queue,
		importer:   importer,
		storageDir: storageDir,
		timeout:    timeout,
		logger:     logger,
	}
}

// Submit writes data to the storage dir and queues a pending job for it
func (j *ImportJobs) Submit(ctx context.Context, data []byte, filename, createdBy string) (*models.ImportJob, error) {
	if err := os.MkdirAll(j.storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(j.storageDir, id+filepath.Ext(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to persist file: %w", err)
	}

	job := &models.ImportJob{
		ID:        id,
		Status:    models.ImportJobPending,
		FileName:  filepath.Base(filename),
		FilePath:  path,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := j.queue.Save(ctx, job); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if err := j.queue.Push(ctx, id); err != nil {
		_ = os.Remove(path)
		_ = j.queue.Delete(ctx, id)
		return nil, err
	}

	j.logger.Info("purchase import job queued", zap.String("job_id", id), zap.String("file", job.FileName))
	return job, nil
}

// Status returns the current state of job id
func (j *ImportJobs) Status(ctx context.Context, id string) (*models.ImportJob, error) {
	return j.queue.Get(ctx, id)
}

// Start consumes the queue in a goroutine until ctx is cancelled. Jobs are
// processed one at a time.
func (j *ImportJobs) Start(ctx context.Context) {
	go func() {
		j.logger.Info("purchase import worker started", zap.String("dir", j.storageDir))
		for {
			id, err := j.queue.Pop(ctx)
			if err != nil {
				if ctx.Err() != nil {
					j.logger.Info("purchase import worker stopping")
					return
				}
				j.logger.Error("failed to pop import job", zap.Error(err))
				time.Sleep(500 * time.Millisecond)
				continue
			}
			j.process(ctx, id)
		}
	}()
}

// process runs a single job and stores its result. The persisted file is
// removed whatever the outcome.
func (j *ImportJobs) process(ctx context.Context, id string) {
	log := j.logger.With(zap.String("job_id", id))

	job, err := j.queue.Get(ctx, id)
	if err != nil {
		log.Error("failed to read job metadata", zap.Error(err))
		return
	}
	defer os.Remove(job.FilePath)

	job.Status = models.ImportJobProcessing
	if err := j.queue.Save(ctx, job); err != nil {
		log.Warn("failed to mark job processing", zap.Error(err))
	}

	data, err := os.ReadFile(filepath.Clean(job.FilePath))
	if err != nil {
		j.fail(log, job, err)
		return
	}

	runCtx := ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	outcome, err := j.importer.ImportFile(runCtx, data, job.FileName, job.CreatedBy)
	if err != nil {
		j.fail(log, job, err)
		return
	}

	job.Status = models.ImportJobDone
	job.Result = outcome
	if err := j.saveFinal(job); err != nil {
		log.Error("failed to store job result", zap.Error(err))
		return
	}
	log.Info("purchase import job finished",
		zap.Int("successful", outcome.Successful),
		zap.Int("failed", outcome.Failed),
	)
}

func (j *ImportJobs) fail(log *zap.Logger, job *models.ImportJob, cause error) {
	log.Error("purchase import job failed", zap.Error(cause))
	job.Status = models.ImportJobFailed
	job.Error = cause.Error()
	if err := j.saveFinal(job); err != nil {
		log.Error("failed to store job failure", zap.Error(err))
	}
}

func (j *ImportJobs) saveFinal(job *models.ImportJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), jobStateSaveTimeout)
	defer cancel()
	return j.queue.Save(ctx, job)
}
