package accel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mindscribe/internal/logging"
)

// ErrPoolClosed is returned for work submitted after shutdown began, and for
// work still queued when shutdown drained the pool.
var ErrPoolClosed = errors.New("accelerated pool closed")

// queueCapacity bounds how many accelerated requests may wait. The
// accelerated engines hold large in-memory models, so queue depth is about
// fairness, not throughput; jobs past this bound block in Execute until a
// slot frees.
const queueCapacity = 16

type request struct {
	ctx      context.Context
	name     string
	fn       func(context.Context) error
	done     chan error
	enqueued time.Time
}

// Pool serializes all accelerated-engine work onto a single worker.
// Exactly one unit of accelerated execution runs system-wide at any instant;
// additional requests wait in arrival order. Correctness motivates the
// serialization: concurrent model loads risk resource exhaustion and
// unpredictable latency.
type Pool struct {
	logger   *slog.Logger
	requests chan *request

	mu         sync.Mutex
	closed     bool
	submitters sync.WaitGroup
	workerDone chan struct{}
}

// NewPool constructs and starts the single-slot pool.
func NewPool(logger *slog.Logger) *Pool {
	p := &Pool{
		logger:     logging.NewComponentLogger(logger, "accel-pool"),
		requests:   make(chan *request, queueCapacity),
		workerDone: make(chan struct{}),
	}
	go p.run()
	return p
}

// Execute queues fn and blocks the calling goroutine until it has run on the
// pool's worker, the context is cancelled, or the pool shuts down. A request
// cancelled while still queued never occupies the slot. The caller's context
// is also the execution context, so cancellation mid-run propagates to fn.
func (p *Pool) Execute(ctx context.Context, name string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("accelerated work fn is nil")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.submitters.Add(1)
	p.mu.Unlock()
	defer p.submitters.Done()

	req := &request{
		ctx:      ctx,
		name:     name,
		fn:       fn,
		done:     make(chan error, 1),
		enqueued: time.Now(),
	}

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		// The worker notices the cancelled context before running the
		// request; if it is already in flight, fn observes the same
		// cancellation. Either way the result channel is buffered, so the
		// worker never blocks on an abandoned request.
		return ctx.Err()
	}
}

// Close drains the pool: new submissions are rejected, the in-flight unit
// finishes (or is cancelled through its own context), and work still queued
// is released with ErrPoolClosed. Close blocks until the worker has exited.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.workerDone
		return
	}
	p.closed = true
	p.mu.Unlock()

	// Wait for submitters that passed the closed check before sealing the
	// channel, then let the worker drain what remains.
	p.submitters.Wait()
	close(p.requests)
	<-p.workerDone
}

func (p *Pool) run() {
	defer close(p.workerDone)
	for req := range p.requests {
		if p.isClosed() {
			req.done <- ErrPoolClosed
			continue
		}
		if err := req.ctx.Err(); err != nil {
			// Cancelled while queued: never allocate the slot.
			req.done <- err
			continue
		}

		waited := time.Since(req.enqueued)
		logger := logging.WithContext(req.ctx, p.logger)
		logger.Debug("accelerated slot acquired",
			logging.String("work", req.name),
			logging.Duration("queue_wait", waited),
		)
		start := time.Now()
		err := req.fn(req.ctx)
		logger.Debug("accelerated slot released",
			logging.String("work", req.name),
			logging.Duration("run_duration", time.Since(start)),
			logging.Error(err),
		)
		req.done <- err
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
