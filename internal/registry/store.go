package registry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/selivandex/agent-registry/pkg/models"
)

// Store is the authoritative collection of agent records. All mutation
// goes through it; every operation is atomic with respect to concurrent
// readers and writers of the same agent, so a reader never observes a
// half-applied strategy.
//
// MarkExecuted is the linchpin: it re-validates activity and cooldown
// under the store's own concurrency discipline (mutex or SQL row
// update), which is what guarantees at-most-one successful execution
// per cooldown window even when many callers race on the same agent.
type Store interface {
	// Create inserts a new agent. Fails with ErrAlreadyExists on id
	// collision, leaving the existing record untouched.
	Create(ctx context.Context, agent *models.Agent) error

	// Get returns a copy of the agent or ErrNotFound.
	Get(ctx context.Context, agentID string) (*models.Agent, error)

	// ReplaceStrategy swaps the whole strategy value. LastExecuted is
	// preserved across replacement.
	ReplaceStrategy(ctx context.Context, agentID string, s models.Strategy) error

	// MarkExecuted advances LastExecuted to now. It fails with
	// ErrAgentInactive on a deactivated agent and ErrCooldownNotExpired
	// when now falls inside the cooldown window; on success LastExecuted
	// only ever moves forward.
	MarkExecuted(ctx context.Context, agentID string, now time.Time) error

	// Deactivate flips IsActive to false. One-way: the registry exposes
	// no reactivation.
	Deactivate(ctx context.Context, agentID string) error

	// ListByOwner returns the owner's agent ids in insertion order.
	ListByOwner(ctx context.Context, owner common.Address) ([]string, error)

	// ListActive returns copies of all active agents, for the trigger
	// monitor worker.
	ListActive(ctx context.Context) ([]*models.Agent, error)

	// Count returns the number of live agents in the store.
	Count(ctx context.Context) (int, error)
}
