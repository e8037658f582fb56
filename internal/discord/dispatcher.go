package discord

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrQueueFull        = errors.New("dispatch queue full")
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

const DefaultQueueSize = 32

// Job is one chat command waiting to be answered.
type Job struct {
	ID        string
	ChannelID string
	AuthorID  string
	Args      string
}

type JobHandler func(ctx context.Context, job Job)

// Dispatcher runs jobs one at a time, in submission order, on a single
// worker goroutine.
type Dispatcher struct {
	jobs   chan Job
	handle JobHandler
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(queueSize int, handle JobHandler, logger *zap.Logger) *Dispatcher {
	if handle == nil {
		panic("nil JobHandler provided to NewDispatcher")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		jobs:   make(chan Job, queueSize),
		handle: handle,
		logger: logger.Named("dispatcher"),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for job := range d.jobs {
		d.logger.Debug("job started", zap.String("request_id", job.ID))
		d.handle(d.ctx, job)
	}
}

// Submit queues job without blocking. A job without an ID gets a fresh one.
func (d *Dispatcher) Submit(job Job) (Job, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return job, ErrDispatcherClosed
	}

	select {
	case d.jobs <- job:
		return job, nil
	default:
		d.logger.Warn("dispatch queue full, rejecting job",
			zap.String("request_id", job.ID),
			zap.Int("capacity", cap(d.jobs)))
		return job, ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish. If ctx ends
// first, the running job's context is canceled and ctx's error returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}
