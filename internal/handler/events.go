package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/service"
)

// publishTimeout bounds a single background publish.
const publishTimeout = 5 * time.Second

// Emitter publishes activity events off the request path.  A failed publish
// is logged and counted; it never changes the response.
type Emitter struct {
	pub service.Publisher
	log *slog.Logger
	wg  sync.WaitGroup
}

func NewEmitter(pub service.Publisher, log *slog.Logger) *Emitter {
	if pub == nil {
		pub = service.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{pub: pub, log: log}
}

// Emit publishes ev in the background.
func (e *Emitter) Emit(ev queue.ActivityEvent) {
	if e == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := e.pub.Publish(ctx, ev); err != nil {
			metrics.EventPublishFailuresTotal.WithLabelValues(ev.Type).Inc()
			e.log.Warn("activity event not published", "type", ev.Type, "resource_id", ev.ResourceID, "error", err)
		}
	}()
}

// Wait blocks until every pending publish has finished.  Called on shutdown.
func (e *Emitter) Wait() {
	if e != nil {
		e.wg.Wait()
	}
}
