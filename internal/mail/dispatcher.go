package mail

import (
	"context"

	"github.com/freshcart/freshcart/internal/logging"
)

const (
	defaultWorkers = 4
	queueBuffer    = 256
)

// Job is a single activation-email delivery request.
type Job struct {
	To       string
	Username string
	Token    string
}

// Enqueuer is the fire-and-forget contract the request path depends on.
// Submitting a job never waits for, or reports, delivery.
type Enqueuer interface {
	Enqueue(job Job)
}

// Sender delivers a single activation email.
type Sender interface {
	SendActivationEmail(ctx context.Context, toEmail, username, token string) error
}

// Dispatcher fans mail jobs out to a fixed pool of workers over a buffered
// channel. Failed deliveries are logged and dropped; the request that
// enqueued the job has long since returned its redirect.
type Dispatcher struct {
	jobs    chan Job
	sender  Sender
	logger  *logging.Logger
	workers int
}

// NewDispatcher creates a Dispatcher with numWorkers workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, logger *logging.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{
		jobs:    make(chan Job, queueBuffer),
		sender:  sender,
		logger:  logger,
		workers: numWorkers,
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		go d.runWorker(ctx, i)
	}
}

// Enqueue submits a job for delivery. Non-blocking up to queueBuffer
// capacity.
func (d *Dispatcher) Enqueue(job Job) {
	d.jobs <- job
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			if err := d.sender.SendActivationEmail(ctx, job.To, job.Username, job.Token); err != nil {
				d.logger.Warn("mail delivery failed",
					"email", job.To,
					"worker_id", id,
					"error", err.Error(),
				)
			}
		}
	}
}
