package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	redisAdapter "github.com/selivandex/agent-registry/internal/adapters/redis"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// LogSink writes every event to the structured log
type LogSink struct{}

// NewLogSink creates a log sink
func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Name() string {
	return "log"
}

func (s *LogSink) Publish(ctx context.Context, event *models.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("agent_id", event.AgentID),
		zap.String("owner", event.Owner.Hex()),
	}
	if event.Execution != nil {
		fields = append(fields,
			zap.String("feed_id", event.Execution.PriceFeedID.Hex()),
			zap.String("observed_price", event.Execution.ObservedPrice.String()),
			zap.String("trigger_price", event.Execution.TriggerPrice.String()),
		)
	}
	logger.Info("domain event", fields...)
	return nil
}

// RedisSink publishes events as JSON on a Redis pub/sub channel for
// external observers (dashboards, indexers)
type RedisSink struct {
	client  *redisAdapter.Client
	channel string
}

// NewRedisSink creates a Redis pub/sub sink
func NewRedisSink(client *redisAdapter.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string {
	return "redis"
}

func (s *RedisSink) Publish(ctx context.Context, event *models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
