package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// SubnameRegistrar binds a human-readable label under the service's
// parent name to an owner. Registration happens once, at agent
// creation; the returned handle is stored opaquely and never renamed.
type SubnameRegistrar interface {
	RegisterSubname(ctx context.Context, label string, owner common.Address) (common.Hash, error)
}

// EventPublisher receives the registry's domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *models.Event)
}

// Service is the public operation surface of the registry: input
// validation, authorization, event emission and error mapping around
// the store and the trigger engine. It carries no state of its own.
type Service struct {
	store  Store
	engine *Engine
	naming SubnameRegistrar
	events EventPublisher
	now    func() time.Time
}

// NewService composes the registry facade
func NewService(store Store, engine *Engine, naming SubnameRegistrar, events EventPublisher) *Service {
	return &Service{
		store:  store,
		engine: engine,
		naming: naming,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock, used by tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateAgent registers a new agent owned by the caller. The label is
// registered with the external naming collaborator first; the store is
// untouched if either the name registration or the insert fails.
func (s *Service) CreateAgent(ctx context.Context, caller common.Address, agentID, label string, strategy models.Strategy) (*models.Agent, error) {
	if agentID == "" {
		return nil, fmt.Errorf("%w: agent id must not be empty", ErrInvalidStrategy)
	}
	if err := strategy.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}

	binding, err := s.naming.RegisterSubname(ctx, label, caller)
	if err != nil {
		return nil, fmt.Errorf("failed to register subname %q: %w", label, err)
	}

	now := s.now()
	agent := &models.Agent{
		ID:          agentID,
		Owner:       caller,
		NameBinding: binding,
		Strategy:    strategy.Copy(),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Create(ctx, agent); err != nil {
		return nil, err
	}

	logger.Info("agent created",
		zap.String("agent_id", agentID),
		zap.String("owner", caller.Hex()),
		zap.String("name_binding", binding.Hex()),
	)

	event := models.NewEvent(models.EventAgentCreated, agentID, caller, now)
	st := agent.Strategy.Copy()
	event.Strategy = &st
	s.events.Publish(ctx, event)

	return agent.Copy(), nil
}

// UpdateStrategy replaces the agent's strategy wholesale. Owner only;
// LastExecuted survives the replacement.
func (s *Service) UpdateStrategy(ctx context.Context, caller common.Address, agentID string, strategy models.Strategy) error {
	agent, err := s.store.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if err := AuthorizeMutation(agent.Owner, caller); err != nil {
		return err
	}
	if err := strategy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}

	if err := s.store.ReplaceStrategy(ctx, agentID, strategy); err != nil {
		return err
	}

	logger.Info("strategy updated",
		zap.String("agent_id", agentID),
		zap.String("owner", caller.Hex()),
	)

	event := models.NewEvent(models.EventStrategyUpdated, agentID, agent.Owner, s.now())
	st := strategy.Copy()
	event.Strategy = &st
	s.events.Publish(ctx, event)

	return nil
}

// DeactivateAgent permanently disables the agent. Owner only; there is
// no reactivation path.
func (s *Service) DeactivateAgent(ctx context.Context, caller common.Address, agentID string) error {
	agent, err := s.store.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if err := AuthorizeMutation(agent.Owner, caller); err != nil {
		return err
	}

	if err := s.store.Deactivate(ctx, agentID); err != nil {
		return err
	}

	logger.Info("agent deactivated",
		zap.String("agent_id", agentID),
		zap.String("owner", caller.Hex()),
	)

	s.events.Publish(ctx, models.NewEvent(models.EventAgentDeactivated, agentID, agent.Owner, s.now()))
	return nil
}

// GetAgent returns the agent record. Reads are public.
func (s *Service) GetAgent(ctx context.Context, agentID string) (*models.Agent, error) {
	return s.store.Get(ctx, agentID)
}

// ListAgentsByOwner returns the owner's agent ids in insertion order
func (s *Service) ListAgentsByOwner(ctx context.Context, owner common.Address) ([]string, error) {
	return s.store.ListByOwner(ctx, owner)
}

// CheckTrigger reports whether the agent's condition currently holds,
// without mutating state. Public.
func (s *Service) CheckTrigger(ctx context.Context, agentID string) (*models.TriggerStatus, error) {
	return s.engine.CheckTrigger(ctx, agentID)
}

// EvaluateAndExecute runs a real execution attempt and emits a
// TriggerExecuted event on success. The swap itself is the caller's
// responsibility once the record is returned.
func (s *Service) EvaluateAndExecute(ctx context.Context, agentID string) (*models.ExecutionRecord, error) {
	record, err := s.engine.EvaluateAndExecute(ctx, agentID)
	if err != nil {
		return nil, err
	}

	event := models.NewEvent(models.EventTriggerExecuted, record.AgentID, record.Owner, record.ExecutedAt)
	event.Execution = record
	s.events.Publish(ctx, event)

	return record, nil
}
