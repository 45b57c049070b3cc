package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/oracle"
	"github.com/selivandex/agent-registry/internal/adapters/redis"
	"github.com/selivandex/agent-registry/internal/adapters/swap"
	"github.com/selivandex/agent-registry/internal/registry"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/models"
)

// TriggerWorker sweeps all active agents each tick and attempts an
// execution for each. Per-agent distributed locks keep replicas from
// racing on the same agent; the store's own cooldown check is still the
// final arbiter, the lock only saves wasted oracle calls.
type TriggerWorker struct {
	svc    *registry.Service
	store  registry.Store
	locks  redis.LockFactory
	stream *oracle.Stream
	venue  swap.Venue
}

// NewTriggerWorker creates the trigger monitor worker. stream and venue
// are optional.
func NewTriggerWorker(svc *registry.Service, store registry.Store, locks redis.LockFactory, stream *oracle.Stream, venue swap.Venue) *TriggerWorker {
	return &TriggerWorker{
		svc:    svc,
		store:  store,
		locks:  locks,
		stream: stream,
		venue:  venue,
	}
}

// Name returns worker name
func (w *TriggerWorker) Name() string {
	return "trigger_monitor"
}

// Run executes one monitoring sweep
func (w *TriggerWorker) Run(ctx context.Context) error {
	agents, err := w.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active agents: %w", err)
	}
	if len(agents) == 0 {
		return nil
	}

	if w.stream != nil {
		feeds := make([]common.Hash, 0, len(agents))
		for _, agent := range agents {
			feeds = append(feeds, agent.Strategy.PriceFeedID)
		}
		if err := w.stream.Subscribe(feeds...); err != nil {
			logger.Warn("failed to refresh stream subscription", zap.Error(err))
		}
	}

	executed := 0
	for _, agent := range agents {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if w.processAgent(ctx, agent) {
			executed++
		}
	}

	if executed > 0 {
		logger.Info("trigger sweep finished",
			zap.Int("agents", len(agents)),
			zap.Int("executed", executed),
		)
	} else {
		logger.Debug("trigger sweep finished",
			zap.Int("agents", len(agents)),
		)
	}
	return nil
}

// processAgent attempts one execution for the agent, reporting whether
// it fired
func (w *TriggerWorker) processAgent(ctx context.Context, agent *models.Agent) bool {
	lock := w.locks.CreateAgentLock(agent.ID)
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		logger.Warn("agent lock acquisition failed",
			zap.String("agent_id", agent.ID),
			zap.Error(err),
		)
		return false
	}
	if !acquired {
		// Another replica holds this agent
		return false
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("agent lock release failed",
				zap.String("agent_id", agent.ID),
				zap.Error(err),
			)
		}
	}()

	record, err := w.svc.EvaluateAndExecute(ctx, agent.ID)
	if err != nil {
		w.logAttemptFailure(agent.ID, err)
		return false
	}

	if w.venue != nil {
		w.executeSwap(ctx, record)
	}
	return true
}

// logAttemptFailure keeps routine non-firing outcomes off the error log
func (w *TriggerWorker) logAttemptFailure(agentID string, err error) {
	switch {
	case errors.Is(err, registry.ErrConditionNotMet),
		errors.Is(err, registry.ErrCooldownNotExpired),
		errors.Is(err, registry.ErrAgentInactive):
		logger.Debug("trigger attempt skipped",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
	case errors.Is(err, registry.ErrPriceUnavailable):
		logger.Warn("price unavailable for agent",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
	default:
		logger.Error("trigger attempt failed",
			zap.String("agent_id", agentID),
			zap.Error(err),
		)
	}
}

// executeSwap carries out the swap the execution record describes. The
// registry state is already updated at this point; a venue failure is
// logged but does not roll back the execution.
func (w *TriggerWorker) executeSwap(ctx context.Context, record *models.ExecutionRecord) {
	quote, err := w.venue.GetQuote(ctx, record)
	if err != nil {
		logger.Error("failed to quote swap",
			zap.String("agent_id", record.AgentID),
			zap.String("venue", w.venue.GetName()),
			zap.Error(err),
		)
		return
	}

	result, err := w.venue.ExecuteSwap(ctx, quote)
	if err != nil {
		logger.Error("failed to execute swap",
			zap.String("agent_id", record.AgentID),
			zap.String("venue", w.venue.GetName()),
			zap.String("symbol", quote.Symbol),
			zap.Error(err),
		)
		return
	}

	logger.Info("trigger swap completed",
		zap.String("agent_id", record.AgentID),
		zap.String("venue", w.venue.GetName()),
		zap.String("symbol", result.Symbol),
		zap.String("side", result.Side),
		zap.String("amount", result.Amount.String()),
		zap.String("fill_price", result.FillPrice.String()),
		zap.String("order_id", result.OrderID),
	)
}
