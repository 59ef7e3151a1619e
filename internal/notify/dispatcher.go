package notify

import (
	"context"
	"sync"
	"time"

	"harambee/internal/logger"
)

const (
	defaultBuffer     = 256
	defaultMaxRetries = 5
	drainTimeout      = 5 * time.Second
)

// AsyncDispatcher queues intents in memory and publishes them from a single
// background goroutine. When the queue is full new intents are dropped with
// a warning; Dispatch never blocks.
type AsyncDispatcher struct {
	publisher  Publisher
	queue      chan Intent
	maxRetries int
	backoff    func(attempt int) time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncDispatcher creates a dispatcher with the given queue size.
// Call Run to start draining it.
func NewAsyncDispatcher(publisher Publisher, buffer int) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &AsyncDispatcher{
		publisher:  publisher,
		queue:      make(chan Intent, buffer),
		maxRetries: defaultMaxRetries,
		backoff:    exponentialBackoff,
		done:       make(chan struct{}),
	}
}

// Dispatch enqueues intent or drops it when the queue is full or closed.
func (d *AsyncDispatcher) Dispatch(_ context.Context, intent Intent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Get().Warnw("notification dropped after shutdown", "kind", intent.Kind, "member_id", intent.MemberID)
		return
	}
	select {
	case d.queue <- intent:
	default:
		logger.Get().Warnw("notification queue full, dropping intent",
			"kind", intent.Kind,
			"member_id", intent.MemberID,
			"capacity", cap(d.queue),
		)
	}
}

// Run publishes queued intents until ctx is cancelled or Close is called,
// then drains whatever is left.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			d.drain(drainCtx)
			cancel()
			return
		case intent, ok := <-d.queue:
			if !ok {
				return
			}
			d.publish(ctx, intent)
		}
	}
}

// Close stops accepting intents and waits for Run to flush the queue.
// Run must have been started.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *AsyncDispatcher) drain(ctx context.Context) {
	for {
		select {
		case intent, ok := <-d.queue:
			if !ok {
				return
			}
			d.publish(ctx, intent)
		default:
			return
		}
	}
}

func (d *AsyncDispatcher) publish(ctx context.Context, intent Intent) {
	var err error
	for attempt := 0; attempt < d.maxRetries; attempt++ {
		if err = d.publisher.Publish(ctx, intent); err == nil {
			return
		}
		logger.Get().Warnw("failed to publish notification intent",
			"error", err,
			"attempt", attempt+1,
			"kind", intent.Kind,
			"member_id", intent.MemberID,
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff(attempt)):
		}
	}
	logger.Get().Errorw("giving up on notification intent",
		"error", err,
		"kind", intent.Kind,
		"member_id", intent.MemberID,
	)
}

// exponentialBackoff doubles from one second and caps at thirty.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return 30 * time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}
