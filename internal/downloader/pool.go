package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"igarchiver/pkg/logger"
	"igarchiver/pkg/ratelimit"
)

// ErrPoolStopped is returned by Submit once the pool is shutting down
var ErrPoolStopped = errors.New("worker pool is shutting down")

// Job is one asset download. Filename is decided before submission, so the
// position of an asset in its post never depends on completion order.
type Job struct {
	Seq      int
	URL      string
	Filename string
	Username string
	PostID   string
}

// Result represents the result of a download job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// AssetDownloader fetches asset bytes
type AssetDownloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// AssetStorage stores assets by filename
type AssetStorage interface {
	Exists(name string) bool
	SaveAsset(name string, r io.Reader) error
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	client      AssetDownloader
	storage     AssetStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewWorkerPool creates a new download worker pool. The limiter is shared by
// all workers, so it spaces downloads across the whole pool.
func NewWorkerPool(
	numWorkers int,
	client AssetDownloader,
	storage AssetStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if rateLimiter == nil {
		rateLimiter = ratelimit.Nop{}
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start launches the workers. Cancelling ctx abandons queued jobs.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for the workers and closes Results
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit adds a new download job to the queue
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the result channel for consuming download results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

// Run starts the pool, feeds it jobs, waits for completion and returns the
// results in job order. A pool runs once.
func (wp *WorkerPool) Run(ctx context.Context, jobs []Job) []Result {
	wp.Start(ctx)

	var results []Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		for result := range wp.Results() {
			results = append(results, result)
		}
	}()

	var unsent []Result
	for i, job := range jobs {
		job.Seq = i
		if err := wp.Submit(job); err != nil {
			unsent = append(unsent, Result{Job: job, Error: err})
		}
	}

	wp.Stop()
	<-done
	results = append(results, unsent...)

	sort.Slice(results, func(i, j int) bool { return results[i].Job.Seq < results[j].Job.Seq })
	return results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result Result
		if err := wp.ctx.Err(); err != nil {
			result = Result{Job: job, Error: err}
		} else {
			result = wp.processJob(job, id)
		}
		wp.resultQueue <- result
	}
}

// processJob handles a single download job
func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if wp.storage.Exists(job.Filename) {
		wp.logger.DebugWithFields("Asset already archived", map[string]interface{}{
			"worker_id": workerID,
			"file":      job.Filename,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if err := wp.rateLimiter.Wait(wp.ctx); err != nil {
		result.Error = fmt.Errorf("rate limit wait: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	data, err := wp.client.Download(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogAsset(wp.logger.WithField("worker_id", workerID), job.Username, job.Filename, 0, err)
		return result
	}
	result.Size = len(data)

	if err := wp.storage.SaveAsset(job.Filename, bytes.NewReader(data)); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		logger.LogAsset(wp.logger.WithField("worker_id", workerID), job.Username, job.Filename, result.Size, err)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	logger.LogAsset(wp.logger, job.Username, job.Filename, result.Size, nil)
	return result
}
