package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/pkg/logger"
)

// DistributedLock wraps redlock-go for distributing agent evaluation
// across pods
type DistributedLock struct {
	lockManager *redlock.RedLock
	agentID     string
	lockName    string
	ttl         time.Duration
	locked      bool
}

// NewDistributedLock creates a lock for one agent
func NewDistributedLock(lockManager *redlock.RedLock, agentID string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		lockManager: lockManager,
		agentID:     agentID,
		lockName:    fmt.Sprintf("agent:lock:%s", agentID),
		ttl:         ttl,
	}
}

// TryAcquire attempts to acquire the exclusive agent lock.
// Returns true if acquired, false if another pod holds it.
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		logger.Debug("agent lock already held by another pod",
			zap.String("agent_id", dl.agentID),
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.locked = true

	logger.Debug("agent lock acquired",
		zap.String("agent_id", dl.agentID),
		zap.Duration("ttl", dl.ttl),
	)

	return true, nil
}

// Release releases the lock
func (dl *DistributedLock) Release(ctx context.Context) error {
	if !dl.locked {
		return nil
	}

	if err := dl.lockManager.UnLock(ctx, dl.lockName); err != nil {
		// Lock may have already expired naturally
		logger.Warn("failed to release lock",
			zap.String("agent_id", dl.agentID),
			zap.Error(err),
		)
	}

	dl.locked = false
	return nil
}

// GetAgentID returns the agent ID this lock is for
func (dl *DistributedLock) GetAgentID() string {
	return dl.agentID
}
