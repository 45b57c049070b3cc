package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PriceScaleDecimals is the canonical fixed-point scale all oracle
// prices are normalized to before comparison against a trigger price.
const PriceScaleDecimals = 8

// Strategy is the conditional trading rule attached to an agent.
// It is replaced wholesale on update, never patched field by field.
type Strategy struct {
	PriceFeedID    common.Hash    `json:"price_feed_id"`
	TriggerPrice   *BigInt        `json:"trigger_price"` // 1e8 fixed point
	TriggerAbove   bool           `json:"trigger_above"` // true: fire at price >= trigger, false: at price <= trigger
	TokenIn        common.Address `json:"token_in"`
	TokenOut       common.Address `json:"token_out"`
	AmountIn       TradeAmount    `json:"amount_in"`
	CooldownPeriod time.Duration  `json:"cooldown_period"`
}

// Validate checks strategy well-formedness. An invalid strategy is
// rejected as a whole; it is never partially applied.
func (s *Strategy) Validate() error {
	if s.PriceFeedID == (common.Hash{}) {
		return fmt.Errorf("price feed id must be non-zero")
	}
	if s.TriggerPrice == nil || s.TriggerPrice.Sign() <= 0 {
		return fmt.Errorf("trigger price must be positive")
	}
	if s.TokenIn == (common.Address{}) {
		return fmt.Errorf("token_in must be non-zero")
	}
	if s.TokenOut == (common.Address{}) {
		return fmt.Errorf("token_out must be non-zero")
	}
	if err := s.AmountIn.Validate(); err != nil {
		return fmt.Errorf("amount_in: %w", err)
	}
	if s.CooldownPeriod < 0 {
		return fmt.Errorf("cooldown period must not be negative")
	}
	return nil
}

// Copy returns a deep copy so callers can hand out strategies without
// sharing the underlying big integers
func (s *Strategy) Copy() Strategy {
	cp := *s
	cp.TriggerPrice = s.TriggerPrice.Copy()
	cp.AmountIn = s.AmountIn.Copy()
	return cp
}

// Agent is a registered trading agent: an owner, a name binding and
// the current strategy, plus the execution state the trigger engine
// maintains.
type Agent struct {
	ID           string         `json:"id"`
	Owner        common.Address `json:"owner"`
	NameBinding  common.Hash    `json:"name_binding"`
	Strategy     Strategy       `json:"strategy"`
	IsActive     bool           `json:"is_active"`
	LastExecuted time.Time      `json:"last_executed"` // zero before first execution
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Copy returns a deep copy of the agent
func (a *Agent) Copy() *Agent {
	cp := *a
	cp.Strategy = a.Strategy.Copy()
	return &cp
}

// ExecutionRecord captures one successful trigger execution, handed to
// the orchestration layer that performs the actual swap.
type ExecutionRecord struct {
	AgentID       string         `json:"agent_id"`
	Owner         common.Address `json:"owner"`
	PriceFeedID   common.Hash    `json:"price_feed_id"`
	ObservedPrice *BigInt        `json:"observed_price"` // 1e8 fixed point
	TriggerPrice  *BigInt        `json:"trigger_price"`
	TriggerAbove  bool           `json:"trigger_above"`
	TokenIn       common.Address `json:"token_in"`
	TokenOut      common.Address `json:"token_out"`
	AmountIn      TradeAmount    `json:"amount_in"`
	ExecutedAt    time.Time      `json:"executed_at"`
}

// TriggerStatus is the result of a side-effect-free trigger check.
type TriggerStatus struct {
	AgentID       string      `json:"agent_id"`
	Met           bool        `json:"met"`
	ObservedPrice *BigInt     `json:"observed_price"`
	TriggerPrice  *BigInt     `json:"trigger_price"`
	TriggerAbove  bool        `json:"trigger_above"`
	PriceFeedID   common.Hash `json:"price_feed_id"`
	PublishedAt   time.Time   `json:"published_at"`
	CheckedAt     time.Time   `json:"checked_at"`
}
