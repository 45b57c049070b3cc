package swap

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/selivandex/agent-registry/pkg/models"
)

// Quote is a venue's current pricing for one swap direction
type Quote struct {
	TokenIn  common.Address
	TokenOut common.Address
	Symbol   string
	Side     string // "buy" or "sell" of the venue symbol
	Amount   decimal.Decimal
	Price    decimal.Decimal
	QuotedAt time.Time
}

// TradeResult is the venue's confirmation of an executed swap
type TradeResult struct {
	OrderID    string
	Symbol     string
	Side       string
	Amount     decimal.Decimal
	FillPrice  decimal.Decimal
	ExecutedAt time.Time
}

// Venue converts one asset into another at prevailing market price.
// It is invoked by the orchestration layer only after a successful
// trigger execution, never by the registry core.
type Venue interface {
	// GetQuote prices the swap an execution record describes
	GetQuote(ctx context.Context, record *models.ExecutionRecord) (*Quote, error)

	// ExecuteSwap places the swap for a previously obtained quote
	ExecuteSwap(ctx context.Context, quote *Quote) (*TradeResult, error)

	// GetName returns venue name
	GetName() string
}
