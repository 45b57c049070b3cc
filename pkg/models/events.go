package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EventType identifies a domain event emitted by the registry
type EventType string

const (
	EventAgentCreated     EventType = "agent_created"
	EventStrategyUpdated  EventType = "strategy_updated"
	EventAgentDeactivated EventType = "agent_deactivated"
	EventTriggerExecuted  EventType = "trigger_executed"
)

// Event is a structured domain event for external observers
// (dashboards, indexers, notification channels).
type Event struct {
	ID         string           `json:"id"`
	Type       EventType        `json:"type"`
	AgentID    string           `json:"agent_id"`
	Owner      common.Address   `json:"owner"`
	Strategy   *Strategy        `json:"strategy,omitempty"`
	Execution  *ExecutionRecord `json:"execution,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewEvent creates an event with a fresh id
func NewEvent(t EventType, agentID string, owner common.Address, occurredAt time.Time) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		AgentID:    agentID,
		Owner:      owner,
		OccurredAt: occurredAt,
	}
}
