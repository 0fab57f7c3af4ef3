package amqp

import (
	"context"
	"sync/atomic"

	"clubstats/internal/controller"
	"clubstats/internal/log"
)

// ViewPublisher sends a dashboard view message. *Client implements it.
type ViewPublisher interface {
	PublishView(ctx context.Context, msg *DashboardViewMessage) error
}

// Forwarder queues published views and sends them from its own goroutine so
// a slow broker never holds up the controller.
type Forwarder struct {
	publisher ViewPublisher
	logger    *log.Logger
	queue     chan *DashboardViewMessage
	dropped   atomic.Uint64
	sent      atomic.Uint64
}

// NewForwarder returns a Forwarder buffering up to size views. When the
// buffer is full new views are dropped.
func NewForwarder(p ViewPublisher, size int, logger *log.Logger) *Forwarder {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAMQP)
	}
	return &Forwarder{publisher: p, logger: logger, queue: make(chan *DashboardViewMessage, size)}
}

// Handle is a controller.Subscriber.
func (f *Forwarder) Handle(v controller.View) {
	select {
	case f.queue <- NewDashboardViewMessage(v):
	default:
		f.dropped.Add(1)
		f.logger.Warn("Dashboard view dropped, forward queue full", log.FieldVersion, v.Version)
	}
}

// Run sends queued views until ctx is done.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-f.queue:
			if err := f.publisher.PublishView(ctx, msg); err != nil {
				f.logger.ErrorContext(ctx, "Failed to forward dashboard view",
					log.FieldVersion, msg.Version,
					log.FieldError, err)
				continue
			}
			f.sent.Add(1)
		}
	}
}

// Sent returns the number of views published.
func (f *Forwarder) Sent() uint64 { return f.sent.Load() }

// Dropped returns the number of views dropped on a full queue.
func (f *Forwarder) Dropped() uint64 { return f.dropped.Load() }
