package queue

import (
	"context"
	"sync"
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/metrics"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

const (
	DefaultDispatchBuffer = 1024
	dispatchJobTimeout    = 5 * time.Second
)

type job struct {
	kind string
	run  func(ctx context.Context) error
}

// dispatcher runs post-commit side effects on a single worker, in submission order.
// Submitting never blocks: when the buffer is full the job is dropped.
type dispatcher struct {
	jobs    chan job
	l       logger.Logger
	metrics metrics.QueueMetrics

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func newDispatcher(buffer int, l logger.Logger, m metrics.QueueMetrics) *dispatcher {
	if buffer <= 0 {
		buffer = DefaultDispatchBuffer
	}
	d := &dispatcher{
		jobs:    make(chan job, buffer),
		l:       l,
		metrics: m,
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *dispatcher) submit(ctx context.Context, kind string, run func(ctx context.Context) error) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.jobs <- job{kind: kind, run: run}:
		return true
	default:
		d.metrics.AddDroppedJob(kind)
		d.l.Warnf(ctx, "queue.dispatcher.submit: buffer full, dropped %s job", kind)
		return false
	}
}

func (d *dispatcher) loop() {
	defer d.wg.Done()
	for j := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchJobTimeout)
		if err := j.run(ctx); err != nil {
			d.l.Warnf(ctx, "queue.dispatcher.%s: %v", j.kind, err)
		}
		cancel()
	}
}

// close stops accepting jobs and waits for the buffered ones to finish.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
