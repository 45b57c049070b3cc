package redis

import "context"

// AgentLock defines interface for distributed agent locking, so only
// one pod evaluates a given agent at a time. Implementations can be
// swapped (Redis, PostgreSQL advisory locks, etcd).
type AgentLock interface {
	// TryAcquire attempts to acquire exclusive lock for agent.
	// Returns true if lock was acquired, false if already locked.
	TryAcquire(ctx context.Context) (bool, error)

	// Release releases the lock
	Release(ctx context.Context) error

	// GetAgentID returns the agent ID this lock is for
	GetAgentID() string
}
