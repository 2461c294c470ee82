package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/internal/storage"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const msgProcessingTimedOut = "processing timed out"

type CleanupOptions struct {
	Documents commonModels.DocumentStore
	// Janitor is optional; only backends with scratch files implement it.
	Janitor    storage.Janitor
	StaleAfter time.Duration
}

type CleanupReport struct {
	TimedOut     int
	Requeued     int
	FilesRemoved int
}

func (r CleanupReport) String() string {
	return fmt.Sprintf("timed out %d, requeued %d, files removed %d", r.TimedOut, r.Requeued, r.FilesRemoved)
}

// Cleaner recovers documents that ingestion lost track of.
type Cleaner struct {
	service    *Service
	documents  commonModels.DocumentStore
	janitor    storage.Janitor
	staleAfter time.Duration
	now        func() time.Time
	logger     *logger_i.Logger
}

func NewCleaner(service *Service, opts CleanupOptions) *Cleaner {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = config.StaleProcessingTimeout
	}
	return &Cleaner{
		service:    service,
		documents:  opts.Documents,
		janitor:    opts.Janitor,
		staleAfter: opts.StaleAfter,
		now:        time.Now,
		logger:     logger_i.NewLogger("Cleanup"),
	}
}

// Run fails documents stuck in Processing, re-enqueues old Pending documents
// and clears stale scratch files. Each part runs even if an earlier one failed.
func (c *Cleaner) Run(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport
	cutoff := c.now().Add(-c.staleAfter)
	log := c.logger.With("traceId", config.TraceId(ctx))

	timedOut, errTimedOut := c.failStuck(ctx, cutoff)
	report.TimedOut = timedOut

	requeued, errRequeue := c.requeuePending(ctx, cutoff)
	report.Requeued = requeued

	var errFiles error
	if c.janitor != nil {
		report.FilesRemoved, errFiles = c.janitor.RemoveStale(ctx, c.staleAfter)
	}

	metrics.IncrementCleanupAction("timed_out", report.TimedOut)
	metrics.IncrementCleanupAction("requeued", report.Requeued)
	metrics.IncrementCleanupAction("files_removed", report.FilesRemoved)

	err := errors.Join(errTimedOut, errRequeue, errFiles)
	if err != nil {
		log.Error("Cleanup finished with errors", "report", report.String(), "err", err)
	} else {
		log.Info("Cleanup finished", "report", report.String())
	}
	return report, err
}

func (c *Cleaner) failStuck(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := c.documents.ListByStatus(ctx, commonModels.StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("listing processing documents: %w", err)
	}
	n := 0
	for _, doc := range docs {
		if !lastTouched(doc).Before(cutoff) {
			continue
		}
		err := c.documents.UpdateStatus(ctx, doc.Id, commonModels.StatusProcessing, commonModels.StatusError,
			commonModels.StatusUpdate{ErrorMessage: msgProcessingTimedOut})
		if errors.Is(err, commonModels.ErrInvalidTransition) {
			//the worker finished while we were looking
			continue
		}
		if err != nil {
			return n, fmt.Errorf("failing document %s: %w", doc.Id, err)
		}
		c.logger.Warn("Document timed out in processing", "documentId", doc.Id)
		n++
	}
	return n, nil
}

// requeuePending covers an upload whose enqueue was lost. A duplicate job is
// harmless since only one of them can claim the document. Delayed uploads are
// measured from their due time, not from the upload.
func (c *Cleaner) requeuePending(ctx context.Context, cutoff time.Time) (int, error) {
	docs, err := c.documents.ListByStatus(ctx, commonModels.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("listing pending documents: %w", err)
	}
	n := 0
	for _, doc := range docs {
		if !doc.DueAt().Before(cutoff) {
			continue
		}
		if _, err := c.service.Submit(ctx, NewIngestJob(doc.Id, "", config.TraceId(ctx)), 0); err != nil {
			return n, fmt.Errorf("requeueing document %s: %w", doc.Id, err)
		}
		n++
	}
	return n, nil
}

func lastTouched(doc commonModels.Document) time.Time {
	if doc.UpdatedAt.IsZero() {
		return doc.CreatedAt
	}
	return doc.UpdatedAt
}
