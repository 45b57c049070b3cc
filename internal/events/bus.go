package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// Sink consumes registry domain events. Sinks must not block for long;
// slow delivery belongs behind the sink's own buffering.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event *models.Event) error
}

// defaultSinkTimeout caps how long a single sink may hold up delivery
const defaultSinkTimeout = 5 * time.Second

// Bus fans every event out to all registered sinks. Delivery is
// best-effort: a failing sink is logged and never blocks the
// originating operation or the other sinks, and each sink gets its
// own deadline.
type Bus struct {
	sinks   []Sink
	timeout time.Duration
}

// NewBus creates an event bus over the given sinks
func NewBus(sinks ...Sink) *Bus {
	return &Bus{sinks: sinks, timeout: defaultSinkTimeout}
}

// AddSink registers another sink. Not safe to call after Publish
// traffic starts; wire everything at startup.
func (b *Bus) AddSink(sink Sink) {
	b.sinks = append(b.sinks, sink)
}

// Publish delivers the event to every sink
func (b *Bus) Publish(ctx context.Context, event *models.Event) {
	for _, sink := range b.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.timeout)
		err := sink.Publish(sinkCtx, event)
		cancel()
		if err != nil {
			logger.Warn("event delivery failed",
				zap.String("sink", sink.Name()),
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.String("agent_id", event.AgentID),
				zap.Error(err),
			)
		}
	}
}
