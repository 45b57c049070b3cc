package clickhouse

import (
	"context"

	"github.com/selivandex/agent-registry/pkg/models"
)

// Sink feeds TriggerExecuted events into the execution history table.
// Lifecycle events are not persisted here; Postgres already holds the
// authoritative agent state.
type Sink struct {
	repo *Repository
}

// NewSink creates an event sink over the repository
func NewSink(repo *Repository) *Sink {
	return &Sink{repo: repo}
}

func (s *Sink) Name() string {
	return "clickhouse"
}

func (s *Sink) Publish(ctx context.Context, event *models.Event) error {
	if event.Type != models.EventTriggerExecuted || event.Execution == nil {
		return nil
	}
	return s.repo.SaveExecutions(ctx, []*models.ExecutionRecord{event.Execution})
}
