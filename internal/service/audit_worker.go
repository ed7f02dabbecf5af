package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/domain"
	"github.com/pactorhq/pactor/internal/metrics"
	"github.com/pactorhq/pactor/internal/models"
)

// AuditJob represents a single audit entry to be recorded.
type AuditJob struct {
	OrgID string
	Entry models.AuditEntry
}

// AuditEnqueuer accepts audit jobs for asynchronous recording.
type AuditEnqueuer interface {
	Enqueue(job *AuditJob)
}

// AuditWorker buffers audit entries and writes them via a single worker goroutine.
type AuditWorker struct {
	auditor domain.Auditor
	log     *logrus.Logger
	jobs    chan *AuditJob
}

// NewAuditWorker creates an AuditWorker with the given queue capacity.
func NewAuditWorker(auditor domain.Auditor, log *logrus.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	return &AuditWorker{
		auditor: auditor,
		log:     log,
		jobs:    make(chan *AuditJob, queueSize),
	}
}

// Enqueue adds an audit job. Non-blocking; drops the job if the queue is full.
func (w *AuditWorker) Enqueue(job *AuditJob) {
	select {
	case w.jobs <- job:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
	default:
		w.log.WithField("action", job.Entry.Action).Warn("audit queue full, dropping entry")
	}
}

// Depth reports the number of queued jobs not yet written.
func (w *AuditWorker) Depth() int {
	return len(w.jobs)
}

// Run processes audit jobs until the context is cancelled, then drains remaining jobs.
func (w *AuditWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *AuditWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *AuditWorker) process(job *AuditJob) {
	if err := w.auditor.RecordAudit(context.Background(), job.OrgID, job.Entry); err != nil {
		w.log.WithError(err).Warn("audit record failed")
	}
	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
}

// auditAsync enqueues an audit entry, tolerating a nil worker in tests.
func auditAsync(enq AuditEnqueuer, orgID string, entry models.AuditEntry) {
	if enq == nil {
		return
	}
	enq.Enqueue(&AuditJob{OrgID: orgID, Entry: entry})
}
