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

// DefaultMaxPriceAge bounds how stale an oracle reading may be before
// an execution attempt fails with ErrPriceUnavailable.
const DefaultMaxPriceAge = 300 * time.Second

// PriceSource serves point-in-time oracle readings. maxAge zero means
// the caller accepts any cached reading regardless of staleness.
type PriceSource interface {
	GetPrice(ctx context.Context, feedID common.Hash, maxAge time.Duration) (*models.PriceReading, error)
}

// Engine answers "is this agent's condition met right now" and, on a
// real execution attempt, atomically records the execution against the
// store.
type Engine struct {
	store       Store
	prices      PriceSource
	maxPriceAge time.Duration
	now         func() time.Time
}

// NewEngine creates a trigger engine over the given store and price source
func NewEngine(store Store, prices PriceSource, maxPriceAge time.Duration) *Engine {
	if maxPriceAge <= 0 {
		maxPriceAge = DefaultMaxPriceAge
	}
	return &Engine{
		store:       store,
		prices:      prices,
		maxPriceAge: maxPriceAge,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine clock, used by tests to pin time
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// CheckTrigger is the side-effect-free, externally re-checkable query:
// it normalizes the latest reading and runs the comparison, without the
// freshness and cooldown gates of a real execution and without touching
// state.
func (e *Engine) CheckTrigger(ctx context.Context, agentID string) (*models.TriggerStatus, error) {
	agent, err := e.store.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	reading, err := e.prices.GetPrice(ctx, agent.Strategy.PriceFeedID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	price := NormalizePrice(reading.Mantissa, reading.Expo)

	return &models.TriggerStatus{
		AgentID:       agentID,
		Met:           ConditionMet(price, &agent.Strategy.TriggerPrice.Int, agent.Strategy.TriggerAbove),
		ObservedPrice: models.NewBigInt(price),
		TriggerPrice:  agent.Strategy.TriggerPrice.Copy(),
		TriggerAbove:  agent.Strategy.TriggerAbove,
		PriceFeedID:   agent.Strategy.PriceFeedID,
		PublishedAt:   reading.PublishedAt,
		CheckedAt:     e.now(),
	}, nil
}

// EvaluateAndExecute runs the full gate sequence and, when every gate
// holds, stamps the execution time. Each gate is hard: the first
// failure short-circuits. The cooldown pre-check here is only a fast
// path; the authoritative activity and cooldown re-check happens inside
// Store.MarkExecuted, atomically, so concurrent attempts within one
// cooldown window yield exactly one success.
//
// The asset swap itself is not performed here. The returned record is
// handed to the orchestration layer, which invokes the swap venue.
func (e *Engine) EvaluateAndExecute(ctx context.Context, agentID string) (*models.ExecutionRecord, error) {
	agent, err := e.store.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	if !agent.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrAgentInactive, agentID)
	}

	now := e.now()

	reading, err := e.prices.GetPrice(ctx, agent.Strategy.PriceFeedID, e.maxPriceAge)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	if !MayExecute(agent.LastExecuted, agent.Strategy.CooldownPeriod, now) {
		return nil, fmt.Errorf("%w: %s", ErrCooldownNotExpired, agentID)
	}

	price := NormalizePrice(reading.Mantissa, reading.Expo)

	if !ConditionMet(price, &agent.Strategy.TriggerPrice.Int, agent.Strategy.TriggerAbove) {
		return nil, fmt.Errorf("%w: observed %s, trigger %s", ErrConditionNotMet, price, agent.Strategy.TriggerPrice)
	}

	if err := e.store.MarkExecuted(ctx, agentID, now); err != nil {
		return nil, err
	}

	logger.Info("trigger executed",
		zap.String("agent_id", agentID),
		zap.String("feed_id", agent.Strategy.PriceFeedID.Hex()),
		zap.String("observed_price", price.String()),
		zap.String("trigger_price", agent.Strategy.TriggerPrice.String()),
		zap.Bool("trigger_above", agent.Strategy.TriggerAbove),
	)

	return &models.ExecutionRecord{
		AgentID:       agentID,
		Owner:         agent.Owner,
		PriceFeedID:   agent.Strategy.PriceFeedID,
		ObservedPrice: models.NewBigInt(price),
		TriggerPrice:  agent.Strategy.TriggerPrice.Copy(),
		TriggerAbove:  agent.Strategy.TriggerAbove,
		TokenIn:       agent.Strategy.TokenIn,
		TokenOut:      agent.Strategy.TokenOut,
		AmountIn:      agent.Strategy.AmountIn.Copy(),
		ExecutedAt:    now,
	}, nil
}
