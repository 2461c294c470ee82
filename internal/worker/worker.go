package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/job"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/rag"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

// CleanupRunner is what a Cleanup job executes.
type CleanupRunner interface {
	Run(ctx context.Context) (job.CleanupReport, error)
}

var (
	_jobService        *job.Service
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             = logger_i.NewLogger("WorkerPool")
	_ragService        rag.Service
	_cleanup           CleanupRunner
	minWorkerCount     = config.MinWorkerCount
	maxWorkerCount     = config.MaxWorkerCount
	idleTimeout        = config.IdleWorkerTimeout
	jobTimeout         = config.JobTimeout
	maxAttempts        = config.MaxJobAttempts
	retryBackoff       = config.RetryBackoff
)

func InitServices(jobService *job.Service, ragService rag.Service, cleanup CleanupRunner) {
	_jobService = jobService
	_ragService = ragService
	_cleanup = cleanup
	dispatcherChannel = jobService.DispatcherChannel
}

// Configure overrides the compiled pool limits. Call it before InitWorkerPool.
func Configure(s config.WorkerSettings) {
	if s.Min > 0 {
		atomic.StoreInt64(&minWorkerCount, s.Min)
	}
	if s.Max > 0 {
		atomic.StoreInt64(&maxWorkerCount, s.Max)
	}
	if s.IdleTimeout > 0 {
		idleTimeout = s.IdleTimeout
	}
	if s.JobTimeout > 0 {
		jobTimeout = s.JobTimeout
	}
	if s.MaxAttempts > 0 {
		maxAttempts = s.MaxAttempts
	}
	if s.RetryBackoff > 0 {
		retryBackoff = s.RetryBackoff
	}
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger.Info("Initializing worker pool", "min", minWorkerCount, "max", maxWorkerCount)
	for i := int64(0); i < atomic.LoadInt64(&minWorkerCount); i++ {
		createWorker()
	}
	go dispatcher()
}

func dispatcher() {
	logger.Info("Dispatcher started")
	for {
		select {
		case _, ok := <-dispatcherChannel:
			if !ok {
				return
			}
			if atomic.LoadInt64(&currentWorkerCount) < atomic.LoadInt64(&maxWorkerCount) {
				logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&currentWorkerCount))
				createWorker()
			}
		case <-stopWorkerChannel:
			logger.Info("Dispatcher stopped")
			return
		}
	}
}

func createWorker() {
	workerWaitGroup.Add(1)
	atomic.AddInt64(&currentWorkerCount, 1)
	go worker()
	metrics.IncrementActiveWorkerCount()
	logger.Debug("Created new worker")
}

func worker() {
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			metrics.DecrementJobsInQueue()
			executeJob(currentJob)
			idle.Reset(idleTimeout)

		case <-stopWorkerChannel:
			atomic.AddInt64(&currentWorkerCount, -1)
			removeWorker("Stop worker signal received")
			return

		case <-idle.C:
			// idle for too long, retire unless we are at the floor
			if retireIdle() {
				removeWorker("Idle worker timeout")
				return
			}
			idle.Reset(idleTimeout)
		}
	}
}

// retireIdle decrements the worker count only while it stays above the minimum.
func retireIdle() bool {
	for {
		n := atomic.LoadInt64(&currentWorkerCount)
		if n <= atomic.LoadInt64(&minWorkerCount) {
			return false
		}
		if atomic.CompareAndSwapInt64(&currentWorkerCount, n, n-1) {
			return true
		}
	}
}
