package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/events"
)

// ErrAuditQueueFull is returned when an event is dropped because the worker
// is behind.
var ErrAuditQueueFull = errors.New("audit queue full")

// ErrAuditWorkerStopped is returned for events handed over after Stop.
var ErrAuditWorkerStopped = errors.New("audit worker stopped")

// AuditSink persists one audit event.
type AuditSink interface {
	Append(ctx context.Context, event events.Event) error
}

// AuditWorker moves audit events from the request path to a sink on a single
// background goroutine. Events are buffered up to a fixed queue size; when the
// queue is full new events are dropped rather than blocking the publisher.
type AuditWorker struct {
	sink   AuditSink
	logger *zap.Logger
	queue  chan events.Event

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewAuditWorker creates a worker with room for queueSize pending events.
func NewAuditWorker(sink AuditSink, logger *zap.Logger, queueSize int) *AuditWorker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &AuditWorker{
		sink:   sink,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Subscribe registers the worker for every audit event type.
func (w *AuditWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, et := range events.AuditEventTypes {
		dispatcher.Subscribe(et, w.Handle)
	}
}

// Start launches the delivery loop. It returns immediately.
func (w *AuditWorker) Start() {
	go w.run()
}

// Handle enqueues event without blocking. It satisfies events.EventHandler.
func (w *AuditWorker) Handle(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrAuditWorkerStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrAuditQueueFull
	}
}

// Stop refuses new events and waits until queued ones are delivered or ctx
// ends.
func (w *AuditWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *AuditWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		if err := w.sink.Append(context.Background(), event); err != nil {
			w.logger.Warn("audit stream write failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err),
			)
		}
	}
}
