package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/pkg/models"
)

// MemStore is an in-memory Store guarded by a single mutex. Executions
// are infrequent, so one lock is simpler than per-agent locking and
// contention is not a concern.
type MemStore struct {
	mu      sync.RWMutex
	agents  map[string]*models.Agent
	byOwner map[common.Address][]string
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		agents:  make(map[string]*models.Agent),
		byOwner: make(map[common.Address][]string),
	}
}

// Create inserts a new agent, rejecting id collisions
func (m *MemStore) Create(ctx context.Context, agent *models.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.agents[agent.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, agent.ID)
	}

	m.agents[agent.ID] = agent.Copy()
	m.byOwner[agent.Owner] = append(m.byOwner[agent.Owner], agent.ID)
	return nil
}

// Get returns a copy of the agent
func (m *MemStore) Get(ctx context.Context, agentID string) (*models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agent, ok := m.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	return agent.Copy(), nil
}

// ReplaceStrategy swaps the strategy wholesale, preserving LastExecuted
func (m *MemStore) ReplaceStrategy(ctx context.Context, agentID string, s models.Strategy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[agentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}

	agent.Strategy = s.Copy()
	agent.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkExecuted is the only path that advances LastExecuted. The
// activity and cooldown re-checks happen under the store lock, so two
// racing executions in the same cooldown window cannot both succeed.
func (m *MemStore) MarkExecuted(ctx context.Context, agentID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[agentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}
	if !agent.IsActive {
		return fmt.Errorf("%w: %s", ErrAgentInactive, agentID)
	}
	if now.Before(agent.LastExecuted) {
		// LastExecuted is monotonically non-decreasing
		return fmt.Errorf("%w: %s", ErrCooldownNotExpired, agentID)
	}
	if !MayExecute(agent.LastExecuted, agent.Strategy.CooldownPeriod, now) {
		return fmt.Errorf("%w: %s", ErrCooldownNotExpired, agentID)
	}

	agent.LastExecuted = now
	agent.UpdatedAt = now
	return nil
}

// Deactivate flips IsActive to false
func (m *MemStore) Deactivate(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[agentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, agentID)
	}

	agent.IsActive = false
	agent.UpdatedAt = time.Now().UTC()
	return nil
}

// ListByOwner returns the owner's agent ids in insertion order
func (m *MemStore) ListByOwner(ctx context.Context, owner common.Address) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byOwner[owner]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// ListActive returns copies of all active agents
func (m *MemStore) ListActive(ctx context.Context) ([]*models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Agent
	for _, agent := range m.agents {
		if agent.IsActive {
			out = append(out, agent.Copy())
		}
	}
	return out, nil
}

// Count returns the number of live agents
func (m *MemStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.agents), nil
}
